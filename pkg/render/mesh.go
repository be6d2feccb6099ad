package render

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is CPU-side indexed geometry
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32
}

// Interleave packs positions and normals as x,y,z,nx,ny,nz per vertex
func Interleave(positions, normals []mgl32.Vec3) []float32 {
	out := make([]float32, 0, len(positions)*6)
	for i, p := range positions {
		n := mgl32.Vec3{0, 1, 0}
		if i < len(normals) {
			n = normals[i]
		}
		out = append(out, p[0], p[1], p[2], n[0], n[1], n[2])
	}
	return out
}

// Mushroom dimensions in local units; the base sits at y=0
const (
	stemRadius    = 1.2
	stemHeight    = 6
	capRadius     = 4
	capHeight     = 3
	mushroomTopY  = stemHeight + capHeight
	minSegments   = 3
	capRingsCount = 4
)

// MushroomMesh builds a glowing mushroom: an open cylinder stem and a
// dome cap sitting on top of it. segments is the number of sides.
func MushroomMesh(segments int) Mesh {
	if segments < minSegments {
		segments = minSegments
	}

	var m Mesh
	ring := func(radius, y float32, normalY float32) uint32 {
		start := uint32(len(m.Positions))
		for i := 0; i < segments; i++ {
			a := 2 * math32.Pi * float32(i) / float32(segments)
			c, s := math32.Cos(a), math32.Sin(a)
			m.Positions = append(m.Positions, mgl32.Vec3{radius * c, y, radius * s})
			m.Normals = append(m.Normals, mgl32.Vec3{c, normalY, s}.Normalize())
		}
		return start
	}
	// stitch joins two rings with outward-facing quads
	stitch := func(lower, upper uint32) {
		n := uint32(segments)
		for i := uint32(0); i < n; i++ {
			j := (i + 1) % n
			m.Indices = append(m.Indices,
				lower+i, upper+i, lower+j,
				lower+j, upper+i, upper+j,
			)
		}
	}

	bottom := ring(stemRadius, 0, 0)
	top := ring(stemRadius, stemHeight, 0)
	stitch(bottom, top)

	// Underside of the cap: a flat disc facing down
	under := ring(capRadius, stemHeight, -1)
	centerUnder := uint32(len(m.Positions))
	m.Positions = append(m.Positions, mgl32.Vec3{0, stemHeight, 0})
	m.Normals = append(m.Normals, mgl32.Vec3{0, -1, 0})
	for i := uint32(0); i < uint32(segments); i++ {
		j := (i + 1) % uint32(segments)
		m.Indices = append(m.Indices, centerUnder, under+i, under+j)
	}

	// Dome: rings of decreasing radius up to the apex
	prev := ring(capRadius, stemHeight, 0)
	for r := 1; r < capRingsCount; r++ {
		phi := float32(r) / capRingsCount * math32.Pi / 2
		radius := capRadius * math32.Cos(phi)
		y := stemHeight + capHeight*math32.Sin(phi)
		cur := ring(radius, y, math32.Tan(phi))
		stitch(prev, cur)
		prev = cur
	}

	apex := uint32(len(m.Positions))
	m.Positions = append(m.Positions, mgl32.Vec3{0, mushroomTopY, 0})
	m.Normals = append(m.Normals, mgl32.Vec3{0, 1, 0})
	for i := uint32(0); i < uint32(segments); i++ {
		j := (i + 1) % uint32(segments)
		m.Indices = append(m.Indices, prev+i, apex, prev+j)
	}

	return m
}
