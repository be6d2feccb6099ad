// Package terrain implements the camera-following height field mesh.
//
// The mesh is a fixed R x R grid in local space spanning scale.x by scale.z
// around the origin. Every Update resamples the noise under the current
// offset so that the noise coordinate of a vertex equals its world X/Z
// divided by scale.x; the render model matrix stretches the grid by the
// special scale and moves it to follow the camera.
package terrain

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"wonderland/internal/logger"
	"wonderland/internal/noise"
	"wonderland/internal/util"
)

// ErrInvalidResolution is returned when the grid has fewer than 2x2 vertices
var ErrInvalidResolution = errors.New("terrain: resolution must be at least 2")

const (
	// DefaultGroundMargin is the clearance kept between the camera and the ground
	DefaultGroundMargin = 50
	// DefaultReferenceAltitude is the camera height per unit of special scale
	DefaultReferenceAltitude = 300
	// minSpecialScale is the smallest horizontal stretch of the grid
	minSpecialScale = 2
)

// MeshSink receives the vertex and normal arrays after every update. The
// slices are owned by the terrain and must not be modified or retained
// past the call.
type MeshSink interface {
	UploadMesh(vertices, normals []mgl32.Vec3)
}

// Option configures a Terrain at construction
type Option func(*Terrain)

// WithField sets the noise field; defaults to reference Perlin noise
func WithField(f noise.Field) Option {
	return func(t *Terrain) { t.field = f }
}

// WithParams sets the initial noise parameters
func WithParams(p noise.Params) Option {
	return func(t *Terrain) { t.params = p }
}

// WithWorkers bounds the goroutines used for resampling; 0 means one per CPU
func WithWorkers(n int) Option {
	return func(t *Terrain) { t.workers = n }
}

// WithGroundMargin sets the clearance used by GroundHeightConstraint
func WithGroundMargin(m float32) Option {
	return func(t *Terrain) { t.groundMargin = m }
}

// WithReferenceAltitude sets the camera height that maps to one unit of
// special scale
func WithReferenceAltitude(a float32) Option {
	return func(t *Terrain) {
		if a > 0 {
			t.referenceAltitude = a
		}
	}
}

// WithMeshSink sets the collaborator that receives updated buffers
func WithMeshSink(s MeshSink) Option {
	return func(t *Terrain) { t.sink = s }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(t *Terrain) { t.log = l }
}

// Terrain owns the grid geometry and answers height and normal queries
type Terrain struct {
	scale             mgl32.Vec3
	resolution        int
	consistencyFactor float64

	field  noise.Field
	params noise.Params

	offset       mgl32.Vec3
	position     mgl32.Vec3
	specialScale mgl32.Vec3

	// window the vertices were last sampled under
	sampledPos   mgl32.Vec3
	sampledScale float32

	vertices []mgl32.Vec3
	normals  []mgl32.Vec3
	indices  []uint32

	workers           int
	groundMargin      float32
	referenceAltitude float32
	wireframe         bool

	sink MeshSink
	log  *logger.Logger
}

// New builds a terrain of resolution x resolution vertices covering
// scale.x by scale.z world units, samples it once at the origin and
// computes smooth face-averaged normals.
func New(scale mgl32.Vec3, resolution int, opts ...Option) (*Terrain, error) {
	if resolution < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidResolution, resolution)
	}
	if scale.X() <= 0 || scale.Z() <= 0 {
		return nil, fmt.Errorf("terrain: scale must be positive on X and Z, got %v", scale)
	}

	t := &Terrain{
		scale:             scale,
		resolution:        resolution,
		consistencyFactor: float64(resolution) / float64(scale.X()),
		params:            noise.DefaultParams(),
		specialScale:      mgl32.Vec3{minSpecialScale, 1, minSpecialScale},
		groundMargin:      DefaultGroundMargin,
		referenceAltitude: DefaultReferenceAltitude,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.log == nil {
		t.log = logger.Discard()
	}
	if t.field == nil {
		pn, err := noise.NewPerlin(0)
		if err != nil {
			return nil, err
		}
		t.field = pn
	}
	if t.workers <= 0 {
		t.workers = runtime.NumCPU()
	}
	if t.workers > resolution {
		t.workers = resolution
	}

	count := resolution * resolution
	t.vertices = make([]mgl32.Vec3, count)
	t.normals = make([]mgl32.Vec3, count)
	t.indices = GridIndices(resolution, CounterClockwise)

	t.resample()
	t.computeFaceNormals()

	t.log.Infof("terrain %dx%d over %.0fx%.0f, %d indices, %d workers",
		resolution, resolution, scale.X(), scale.Z(), len(t.indices), t.workers)
	return t, nil
}

// UpdateOffset recentres the sampling window. The mesh follows on X/Z but
// stays on the y=0 plane. Heights are not resampled until Update.
func (t *Terrain) UpdateOffset(offset mgl32.Vec3) {
	t.offset = offset
	t.position = mgl32.Vec3{offset.X(), 0, offset.Z()}
}

// Update resamples every vertex under the current offset, recomputes
// normals and hands the buffers to the mesh sink
func (t *Terrain) Update(deltaTime float32) {
	start := time.Now()

	s := util.Max(minSpecialScale, t.offset.Y()/t.referenceAltitude)
	t.specialScale = mgl32.Vec3{s, 1, s}

	t.resample()
	t.computeFastNormals()

	if t.sink != nil {
		t.sink.UploadMesh(t.vertices, t.normals)
	}

	t.log.Debugf("update dt=%.4f special=%.2f center=%.2f took %.2fms",
		deltaTime, s, t.CenterHeight(), util.Since(start)*1000)
}

// sampleHeight maps grid vertex (col, row) through the noise to a height in
// [-peak, peak]
func (t *Terrain) sampleHeight(col, row int, s float64, params noise.Params) float32 {
	r := float64(t.resolution)
	u := s*(float64(col)/r-0.5) + float64(t.offset.X())*t.consistencyFactor/r
	v := s*(float64(row)/r-0.5) + float64(t.offset.Z())*t.consistencyFactor/r

	h := noise.Octave(t.field, u, v, params)
	return float32(params.PeakHeight * (h - 0.5) * 2)
}

// resample fills every vertex in parallel row bands and records the
// window it sampled
func (t *Terrain) resample() {
	t.sampledPos = mgl32.Vec3{t.offset.X(), 0, t.offset.Z()}
	t.sampledScale = t.specialScale.X()

	s := float64(t.sampledScale)
	params := t.params.Sanitized()
	r := t.resolution
	sx, sz := t.scale.X(), t.scale.Z()

	t.forRows(r, func(row int) {
		z := sz * (float32(row)/float32(r) - 0.5)
		for col := 0; col < r; col++ {
			x := sx * (float32(col)/float32(r) - 0.5)
			t.vertices[row*r+col] = mgl32.Vec3{x, t.sampleHeight(col, row, s, params), z}
		}
	})
}

// forRows runs fn for rows [0, rows) split into one contiguous band per
// worker, returning when all bands are done
func (t *Terrain) forRows(rows int, fn func(row int)) {
	var wg sync.WaitGroup

	numGoroutines := t.workers
	if numGoroutines > rows {
		numGoroutines = rows
	}
	if numGoroutines < 1 {
		numGoroutines = 1
	}
	rowsPerGoroutine := rows / numGoroutines

	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)

		startRow := g * rowsPerGoroutine
		endRow := startRow + rowsPerGoroutine
		if g == numGoroutines-1 {
			endRow = rows
		}

		go func(startRow, endRow int) {
			defer wg.Done()
			for row := startRow; row < endRow; row++ {
				fn(row)
			}
		}(startRow, endRow)
	}

	wg.Wait()
}

// computeFaceNormals accumulates the normal of every triangle into its
// three vertices and normalises the sums
func (t *Terrain) computeFaceNormals() {
	for i := range t.normals {
		t.normals[i] = mgl32.Vec3{}
	}

	for i := 0; i+2 < len(t.indices); i += 3 {
		a, b, c := t.indices[i], t.indices[i+1], t.indices[i+2]
		va, vb, vc := t.vertices[a], t.vertices[b], t.vertices[c]
		n := vb.Sub(va).Cross(vc.Sub(va))

		t.normals[a] = t.normals[a].Add(n)
		t.normals[b] = t.normals[b].Add(n)
		t.normals[c] = t.normals[c].Add(n)
	}

	for i, n := range t.normals {
		t.normals[i] = safeNormalize(n)
	}
}

// computeFastNormals takes one triangle per vertex: the cross product of
// the edge to the next row and the edge to the next column. The last row
// and column reuse their inner neighbour.
func (t *Terrain) computeFastNormals() {
	r := t.resolution

	t.forRows(r-1, func(row int) {
		for col := 0; col < r-1; col++ {
			i := row*r + col
			v := t.vertices[i]
			n := t.vertices[i+r].Sub(v).Cross(t.vertices[i+1].Sub(v))
			t.normals[i] = safeNormalize(n)
		}
		t.normals[row*r+r-1] = t.normals[row*r+r-2]
	})

	last := (r - 1) * r
	copy(t.normals[last:last+r], t.normals[last-r:last])
}

func safeNormalize(n mgl32.Vec3) mgl32.Vec3 {
	l := n.Len()
	if l == 0 || math.IsNaN(float64(l)) {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Mul(1 / l)
}

// gridIndex maps a world X/Z position to the nearest vertex of the last
// sampled window, clamped into the grid
func (t *Terrain) gridIndex(worldX, worldZ float32) int {
	r := float32(t.resolution)
	s := t.sampledScale

	fc := ((worldX-t.sampledPos.X())/(s*t.scale.X()) + 0.5) * r
	fr := ((worldZ-t.sampledPos.Z())/(s*t.scale.Z()) + 0.5) * r

	col := util.Clamp(int(math.Round(float64(fc))), 0, t.resolution-1)
	row := util.Clamp(int(math.Round(float64(fr))), 0, t.resolution-1)
	return row*t.resolution + col
}

// HeightAt returns the height of the vertex nearest to (worldX, worldZ)
// as written by the last update. Positions outside the window clamp to
// the border. An UpdateOffset without a following Update does not move
// the queried window.
func (t *Terrain) HeightAt(worldX, worldZ float32) float32 {
	return t.vertices[t.gridIndex(worldX, worldZ)].Y()
}

// NormalAt returns the world-space normal of the vertex nearest to
// (worldX, worldZ)
func (t *Terrain) NormalAt(worldX, worldZ float32) mgl32.Vec3 {
	n := t.normals[t.gridIndex(worldX, worldZ)]
	s := t.sampledScale
	return safeNormalize(mgl32.Vec3{n.X() / s, n.Y(), n.Z() / s})
}

// CenterHeight returns the height of the grid's centre vertex
func (t *Terrain) CenterHeight() float32 {
	half := t.resolution / 2
	return t.vertices[half+half*t.resolution].Y()
}

// GroundHeightConstraint lifts pos to the ground clearance when it is
// below it and reports whether it did
func (t *Terrain) GroundHeightConstraint(pos *mgl32.Vec3) bool {
	floor := t.CenterHeight() + t.groundMargin
	if pos[1] < floor {
		pos[1] = floor
		return true
	}
	return false
}

// NoiseParams returns the current noise parameters
func (t *Terrain) NoiseParams() noise.Params {
	return t.params
}

// SetNoiseParams replaces the noise parameters used by the next update
func (t *Terrain) SetNoiseParams(p noise.Params) {
	t.params = p
}

// SetPeakHeight changes only the vertical scale
func (t *Terrain) SetPeakHeight(peak float64) {
	t.params.PeakHeight = peak
}

// SetField swaps the noise source used by the next update
func (t *Terrain) SetField(f noise.Field) {
	if f != nil {
		t.field = f
	}
}

func (t *Terrain) Offset() mgl32.Vec3       { return t.offset }
func (t *Terrain) Position() mgl32.Vec3     { return t.position }
func (t *Terrain) Scale() mgl32.Vec3        { return t.scale }
func (t *Terrain) SpecialScale() mgl32.Vec3 { return t.specialScale }
func (t *Terrain) Resolution() int          { return t.resolution }

// ConsistencyFactor is resolution / scale.x, converting world offsets
// into grid-normalised noise offsets
func (t *Terrain) ConsistencyFactor() float64 { return t.consistencyFactor }

func (t *Terrain) Wireframe() bool        { return t.wireframe }
func (t *Terrain) SetMeshSink(s MeshSink) { t.sink = s }
func (t *Terrain) SetWireframe(on bool)   { t.wireframe = on }
func (t *Terrain) GroundMargin() float32  { return t.groundMargin }
func (t *Terrain) VertexCount() int       { return len(t.vertices) }
func (t *Terrain) IndexCount() int        { return len(t.indices) }
func (t *Terrain) Indices() []uint32      { return t.indices }
func (t *Terrain) Vertices() []mgl32.Vec3 { return append([]mgl32.Vec3(nil), t.vertices...) }
func (t *Terrain) Normals() []mgl32.Vec3  { return append([]mgl32.Vec3(nil), t.normals...) }

// Model returns the render transform of the sampled mesh: translate to
// the window position, then stretch by the special scale
func (t *Terrain) Model() mgl32.Mat4 {
	p, s := t.sampledPos, t.sampledScale
	return mgl32.Translate3D(p.X(), p.Y(), p.Z()).Mul4(mgl32.Scale3D(s, 1, s))
}
