package noise

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ojrac/opensimplex-go"

	"wonderland/internal/util"
)

// Params controls fractal summation and the vertical scale of the result
type Params struct {
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
	PeakHeight  float64 `yaml:"peak_height"`
}

// DefaultParams returns the parameters the terrain starts with
func DefaultParams() Params {
	return Params{
		Octaves:     5,
		Persistence: 0.503,
		Lacunarity:  2,
		PeakHeight:  800,
	}
}

// Sanitized returns p with degenerate values replaced: fewer than one
// octave becomes one, negative persistence becomes zero
func (p Params) Sanitized() Params {
	if p.Octaves < 1 {
		p.Octaves = 1
	}
	if p.Persistence < 0 {
		p.Persistence = 0
	}
	return p
}

// Octave sums octaves of f at (x, y), doubling detail per octave by
// lacunarity and fading amplitude by persistence. The total is divided by
// the sum of amplitudes used, so the result stays in [0,1].
func Octave(f Field, x, y float64, p Params) float64 {
	p = p.Sanitized()

	total := 0.0
	frequency := 1.0
	amplitude := 1.0
	maxValue := 0.0

	for i := 0; i < p.Octaves; i++ {
		total += f.Sample(x*frequency, y*frequency) * amplitude
		maxValue += amplitude

		amplitude *= p.Persistence
		frequency *= p.Lacunarity
	}

	return total / maxValue
}

// Simplex adapts OpenSimplex noise to Field
type Simplex struct {
	n opensimplex.Noise
}

// NewSimplex creates a normalized OpenSimplex field for seed
func NewSimplex(seed int64) *Simplex {
	return &Simplex{n: opensimplex.NewNormalized(seed)}
}

// Sample evaluates the noise at (x, y), returning a value in [0,1]
func (s *Simplex) Sample(x, y float64) float64 {
	return util.Clamp(s.n.Eval2(x, y), 0, 1)
}

// ErrRepeatUnsupported is returned when a repeat period is requested for a
// field that cannot wrap
var ErrRepeatUnsupported = errors.New("noise: field does not support a repeat period")

// New builds the field named by kind ("perlin" or "simplex"). Only Perlin
// noise wraps; simplex rejects a positive repeat.
func New(kind string, repeat int, seed int64) (Field, error) {
	switch strings.ToLower(kind) {
	case "", "perlin":
		return NewSeededPerlin(repeat, seed)
	case "simplex", "opensimplex":
		if repeat > 0 {
			return nil, fmt.Errorf("%w: %s with repeat %d", ErrRepeatUnsupported, kind, repeat)
		}
		return NewSimplex(seed), nil
	default:
		return nil, fmt.Errorf("noise: unknown field kind %q", kind)
	}
}
