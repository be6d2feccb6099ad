// Package spawn places pooled props on terrain valleys using a
// deterministic spatial grid.
//
// Every cell of the world plane is evaluated at most once: a hash of the
// cell coordinates decides whether it spawns and where inside the cell.
// Spawned props are kept in a pool and only toggled active or inactive as
// the camera moves.
package spawn

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"wonderland/internal/logger"
	"wonderland/internal/util"
)

var (
	// ErrInvalidCellSize is returned for a non-positive cell size
	ErrInvalidCellSize = errors.New("spawn: cell size must be positive")
	// ErrInvalidRadius is returned when the radii do not form a hysteresis band
	ErrInvalidRadius = errors.New("spawn: despawn radius must be >= spawn radius >= 0")
)

// Salts separate the independent rolls made for one cell
const (
	saltSpawn uint32 = iota
	saltJitterX
	saltJitterZ
)

// alignEpsilon is how close to 1 dot(up, normal) must be to skip tilting
const alignEpsilon = 0.9999

var worldUp = mgl32.Vec3{0, 1, 0}

// HeightField answers terrain queries at world X/Z
type HeightField interface {
	HeightAt(x, z float32) float32
	NormalAt(x, z float32) mgl32.Vec3
}

// Options controls the spawn grid
type Options struct {
	HeightThreshold  float32
	CellSize         float32
	SpawnRadius      float32
	DespawnRadius    float32
	SpawnProbability float32
	Seed             uint32
	SinkDepth        float32
	PropScale        mgl32.Vec3
}

// DefaultOptions returns the grid used by the demo scene
func DefaultOptions() Options {
	return Options{
		HeightThreshold:  -100,
		CellSize:         150,
		SpawnRadius:      2000,
		DespawnRadius:    2500,
		SpawnProbability: 0.3,
		SinkDepth:        5,
		PropScale:        mgl32.Vec3{1, 1, 1},
	}
}

// Validate checks the structural options
func (o Options) Validate() error {
	if !(o.CellSize > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidCellSize, o.CellSize)
	}
	if o.SpawnRadius < 0 || o.DespawnRadius < o.SpawnRadius {
		return fmt.Errorf("%w: spawn %v, despawn %v", ErrInvalidRadius, o.SpawnRadius, o.DespawnRadius)
	}
	return nil
}

// Prop is one pooled instance placed on the terrain
type Prop struct {
	Cell     Cell
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Active   bool
}

// Model returns the prop's world transform
func (p Prop) Model() mgl32.Mat4 {
	return mgl32.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z()).
		Mul4(p.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(p.Scale.X(), p.Scale.Y(), p.Scale.Z()))
}

// PropDrawer draws a batch of active props
type PropDrawer interface {
	DrawProps(props []Prop)
	DrawPropsDepth(props []Prop)
}

// Spawner owns the prop pool and the evaluated-cell bookkeeping
type Spawner struct {
	field HeightField
	opts  Options

	props      []Prop
	cellToProp map[int64]int
	evaluated  map[int64]struct{}

	active []Prop
	log    *logger.Logger
}

// New creates a spawner over field. field must outlive the spawner.
func New(field HeightField, opts Options, log *logger.Logger) (*Spawner, error) {
	if field == nil {
		return nil, errors.New("spawn: nil height field")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.PropScale == (mgl32.Vec3{}) {
		opts.PropScale = mgl32.Vec3{1, 1, 1}
	}
	if log == nil {
		log = logger.Discard()
	}

	s := &Spawner{
		field:      field,
		opts:       opts,
		cellToProp: make(map[int64]int),
		evaluated:  make(map[int64]struct{}),
		log:        log,
	}
	log.Infof("spawner cell=%.0f spawn=%.0f despawn=%.0f p=%.2f threshold=%.1f",
		opts.CellSize, opts.SpawnRadius, opts.DespawnRadius, opts.SpawnProbability, opts.HeightThreshold)
	return s, nil
}

// WorldToCell returns the cell containing world position (x, z)
func (s *Spawner) WorldToCell(x, z float32) Cell {
	return worldToCell(x, z, s.opts.CellSize)
}

// CellRandom returns a deterministic value in [0,1) for cell and salt
func (s *Spawner) CellRandom(c Cell, salt uint32) float32 {
	return unitFloat(hashCell(c, salt, s.opts.Seed))
}

// TryActivateCell activates the prop owned by c, evaluating the cell on
// first visit. It reports whether the cell has an active prop afterwards.
// A cell is rolled at most once; later calls replay the stored outcome.
func (s *Spawner) TryActivateCell(c Cell) bool {
	key := c.Key()

	if idx, ok := s.cellToProp[key]; ok {
		s.props[idx].Active = true
		return true
	}
	if _, ok := s.evaluated[key]; ok {
		return false
	}
	s.evaluated[key] = struct{}{}

	if s.CellRandom(c, saltSpawn) > s.opts.SpawnProbability {
		return false
	}

	size := s.opts.CellSize
	x := (float32(c.X) + s.CellRandom(c, saltJitterX)) * size
	z := (float32(c.Z) + s.CellRandom(c, saltJitterZ)) * size

	h := s.field.HeightAt(x, z)
	if h >= s.opts.HeightThreshold {
		return false
	}

	n := s.field.NormalAt(x, z)
	prop := s.place(c, mgl32.Vec3{x, h, z}, n)

	s.cellToProp[key] = len(s.props)
	s.props = append(s.props, prop)
	s.log.Debugf("cell %v spawned prop %d at (%.1f, %.1f, %.1f)", c, len(s.props)-1, x, h, z)
	return true
}

// place builds an active prop standing on pos, tilted to the surface normal
// and sunk so its base does not float after the tilt
func (s *Spawner) place(c Cell, pos, normal mgl32.Vec3) Prop {
	prop := Prop{
		Cell:     c,
		Position: pos.Sub(worldUp.Mul(s.opts.SinkDepth)),
		Rotation: mgl32.QuatIdent(),
		Scale:    s.opts.PropScale,
		Active:   true,
	}

	if l := normal.Len(); l > 0 {
		normal = normal.Mul(1 / l)
	} else {
		return prop
	}

	d := worldUp.Dot(normal)
	axis := worldUp.Cross(normal)
	if d >= alignEpsilon || axis.Len() <= 1e-4 {
		return prop
	}

	angle := math32.Acos(mgl32.Clamp(d, -1, 1))
	prop.Rotation = mgl32.QuatRotate(angle, axis.Normalize())

	lift := prop.Rotation.Rotate(worldUp).Sub(worldUp).Dot(normal)
	heightOffset := s.opts.SinkDepth * lift * s.opts.PropScale.Y()
	prop.Position = pos.Sub(normal.Mul(heightOffset))
	return prop
}

// Update deactivates props beyond the despawn radius, then activates every
// cell whose centre lies within the spawn radius of the camera
func (s *Spawner) Update(cameraPos mgl32.Vec3, deltaTime float32) {
	despawnSq := s.opts.DespawnRadius * s.opts.DespawnRadius
	for i := range s.props {
		p := &s.props[i]
		if p.Active && p.Position.Sub(cameraPos).LenSqr() > despawnSq {
			p.Active = false
		}
	}

	size := s.opts.CellSize
	center := s.WorldToCell(cameraPos.X(), cameraPos.Z())
	reach := int32(math32.Ceil(s.opts.SpawnRadius / size))

	for dz := -reach; dz <= reach; dz++ {
		for dx := -reach; dx <= reach; dx++ {
			c := Cell{X: center.X + dx, Z: center.Z + dz}
			cx := (float32(c.X) + 0.5) * size
			cz := (float32(c.Z) + 0.5) * size
			if util.IsInside(cx, cz, cameraPos.X(), cameraPos.Z(), s.opts.SpawnRadius) {
				s.TryActivateCell(c)
			}
		}
	}
}

// Active returns the currently active props. The slice is reused by the
// next call.
func (s *Spawner) Active() []Prop {
	s.active = s.active[:0]
	for _, p := range s.props {
		if p.Active {
			s.active = append(s.active, p)
		}
	}
	return s.active
}

// Render hands the active props to d
func (s *Spawner) Render(d PropDrawer) {
	if props := s.Active(); len(props) > 0 {
		d.DrawProps(props)
	}
}

// RenderDepth hands the active props to d's depth pass
func (s *Spawner) RenderDepth(d PropDrawer) {
	if props := s.Active(); len(props) > 0 {
		d.DrawPropsDepth(props)
	}
}

// ActiveCount returns the number of active props
func (s *Spawner) ActiveCount() int {
	n := 0
	for _, p := range s.props {
		if p.Active {
			n++
		}
	}
	return n
}

// TotalCount returns the pool size
func (s *Spawner) TotalCount() int { return len(s.props) }

// EvaluatedCount returns how many cells have been rolled
func (s *Spawner) EvaluatedCount() int { return len(s.evaluated) }

// HasProp reports whether c owns a pooled prop
func (s *Spawner) HasProp(c Cell) bool {
	_, ok := s.cellToProp[c.Key()]
	return ok
}

// PropAt returns the prop owned by c
func (s *Spawner) PropAt(c Cell) (Prop, bool) {
	idx, ok := s.cellToProp[c.Key()]
	if !ok {
		return Prop{}, false
	}
	return s.props[idx], true
}

// Options returns the current options
func (s *Spawner) Options() Options { return s.opts }

// HeightThreshold returns the valley cut-off height
func (s *Spawner) HeightThreshold() float32 { return s.opts.HeightThreshold }

// SetHeightThreshold changes the cut-off for cells evaluated from now on
func (s *Spawner) SetHeightThreshold(h float32) { s.opts.HeightThreshold = h }

// Reset forgets every evaluated cell and empties the pool, so the next
// Update re-rolls cells against the current terrain
func (s *Spawner) Reset() {
	s.props = s.props[:0]
	s.active = s.active[:0]
	clear(s.cellToProp)
	clear(s.evaluated)
	s.log.Debug("spawn grid reset")
}
