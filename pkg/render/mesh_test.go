package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMushroomMesh(t *testing.T) {
	for _, segments := range []int{0, 3, 12} {
		m := MushroomMesh(segments)
		require.Len(t, m.Normals, len(m.Positions))
		require.NotEmpty(t, m.Indices)
		assert.Zero(t, len(m.Indices)%3)

		for _, i := range m.Indices {
			assert.Less(t, i, uint32(len(m.Positions)))
		}
		for _, n := range m.Normals {
			assert.InDelta(t, 1, n.Len(), 1e-5)
		}

		var minY, maxY float32 = 1e9, -1e9
		for _, p := range m.Positions {
			minY = mgl32.Clamp(p.Y(), -1e9, minY)
			maxY = mgl32.Clamp(p.Y(), maxY, 1e9)
		}
		assert.Equal(t, float32(0), minY)
		assert.Equal(t, float32(mushroomTopY), maxY)
	}
}

func TestMushroomMeshFacesOutward(t *testing.T) {
	m := MushroomMesh(16)
	// Every stem triangle's face normal points away from the axis
	stemTriangles := 16 * 2
	for tri := 0; tri < stemTriangles; tri++ {
		a := m.Positions[m.Indices[tri*3]]
		b := m.Positions[m.Indices[tri*3+1]]
		c := m.Positions[m.Indices[tri*3+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		center := a.Add(b).Add(c).Mul(1.0 / 3)
		radial := mgl32.Vec3{center.X(), 0, center.Z()}
		assert.Greater(t, n.Dot(radial), float32(0), "triangle %d", tri)
	}
}

func TestInterleave(t *testing.T) {
	out := Interleave(
		[]mgl32.Vec3{{1, 2, 3}, {4, 5, 6}},
		[]mgl32.Vec3{{0, 0, 1}},
	)
	assert.Equal(t, []float32{1, 2, 3, 0, 0, 1, 4, 5, 6, 0, 1, 0}, out)
}

func TestLightSpaceMatrixCentersTarget(t *testing.T) {
	for _, light := range []mgl32.Vec3{{1000, 2000, 500}, {0, 3000, 0}} {
		m := LightSpaceMatrix(light, mgl32.Vec3{}, 4000, 1, 8000)
		p := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
		assert.InDelta(t, 0, p.X(), 1e-4)
		assert.InDelta(t, 0, p.Y(), 1e-4)
		assert.Greater(t, p.Z(), float32(-1))
		assert.Less(t, p.Z(), float32(1))
	}
}
