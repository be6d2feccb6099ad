// Package noise provides seeded 2D coherent noise and the octave
// combinator used to build terrain heights.
package noise

import (
	"errors"
	"fmt"
	"math"

	"wonderland/internal/util"
)

// MaxRepeat is the largest wraparound period the 256-entry lattice supports
const MaxRepeat = 256

// ErrInvalidRepeat is returned for repeat periods the lattice cannot honour
var ErrInvalidRepeat = errors.New("noise: repeat period exceeds lattice size")

// Field is a 2D coherent noise source. Sample must return a value in [0,1]
// and must be safe for concurrent use.
type Field interface {
	Sample(x, y float64) float64
}

// permutation is Ken Perlin's reference permutation
var permutation = [256]int{
	151, 160, 137, 91, 90, 15, 131, 13, 201, 95, 96, 53, 194, 233, 7, 225,
	140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23, 190, 6, 148,
	247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32,
	57, 177, 33, 88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175,
	74, 165, 71, 134, 139, 48, 27, 166, 77, 146, 158, 231, 83, 111, 229, 122,
	60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244, 102, 143, 54,
	65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169,
	200, 196, 135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64,
	52, 217, 226, 250, 124, 123, 5, 202, 38, 147, 118, 126, 255, 82, 85, 212,
	207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42, 223, 183, 170, 213,
	119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104,
	218, 246, 97, 228, 251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241,
	81, 51, 145, 235, 249, 14, 239, 107, 49, 192, 214, 31, 181, 199, 106, 157,
	184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254, 138, 236, 205, 93,
	222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180,
}

// Perlin is classic 2D gradient noise over a fixed permutation lattice.
// It is immutable after construction.
type Perlin struct {
	repeat int
	p      [512]int
}

// NewPerlin creates Perlin noise over the reference permutation. A repeat
// period <= 0 disables wraparound; otherwise coordinates wrap modulo repeat.
func NewPerlin(repeat int) (*Perlin, error) {
	if repeat > MaxRepeat {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidRepeat, repeat, MaxRepeat)
	}
	pn := &Perlin{repeat: repeat}
	for i := 0; i < 512; i++ {
		pn.p[i] = permutation[i&255]
	}
	return pn, nil
}

// NewSeededPerlin creates Perlin noise whose permutation is the reference
// table shuffled by seed. Seed 0 keeps the reference table.
func NewSeededPerlin(repeat int, seed int64) (*Perlin, error) {
	pn, err := NewPerlin(repeat)
	if err != nil || seed == 0 {
		return pn, err
	}

	base := permutation
	s := uint64(seed)
	for i := 255; i > 0; i-- {
		s = s*6364136223846793005 + 1442695040888963407
		j := int((s >> 33) % uint64(i+1))
		base[i], base[j] = base[j], base[i]
	}
	for i := 0; i < 512; i++ {
		pn.p[i] = base[i&255]
	}
	return pn, nil
}

// Repeat returns the wraparound period, <= 0 meaning none
func (pn *Perlin) Repeat() int {
	return pn.repeat
}

// Sample evaluates the noise at (x, y), returning a value in [0,1]
func (pn *Perlin) Sample(x, y float64) float64 {
	if pn.repeat > 0 {
		x = pn.wrap(x)
		y = pn.wrap(y)
	}

	fx := math.Floor(x)
	fy := math.Floor(y)
	xi := int(fx) & 255
	yi := int(fy) & 255
	xf := x - fx
	yf := y - fy

	u := fade(xf)
	v := fade(yf)

	p := &pn.p
	aa := p[p[xi]+yi]
	ab := p[p[xi]+pn.inc(yi)]
	ba := p[p[pn.inc(xi)]+yi]
	bb := p[p[pn.inc(xi)]+pn.inc(yi)]

	x1 := util.Lerp(grad2D(aa, xf, yf), grad2D(ba, xf-1, yf), u)
	x2 := util.Lerp(grad2D(ab, xf, yf-1), grad2D(bb, xf-1, yf-1), u)

	return util.Clamp((util.Lerp(x1, x2, v)+1)/2, 0, 1)
}

// wrap maps c into [0, repeat)
func (pn *Perlin) wrap(c float64) float64 {
	r := float64(pn.repeat)
	c -= r * math.Floor(c/r)
	if c >= r {
		c -= r
	}
	return c
}

// inc steps a lattice index, honouring the repeat period
func (pn *Perlin) inc(n int) int {
	n++
	if pn.repeat > 0 {
		n %= pn.repeat
	}
	return n
}

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// grad2D picks one of four diagonal gradients from the low bits of hash
// and dots it with (x, y)
func grad2D(hash int, x, y float64) float64 {
	switch hash & 3 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	default:
		return -x - y
	}
}
