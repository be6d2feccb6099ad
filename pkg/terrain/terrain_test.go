package terrain

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wonderland/internal/noise"
)

// constField returns the same value everywhere
type constField float64

func (c constField) Sample(x, y float64) float64 { return float64(c) }

// wavesField is a smooth analytic field with no lattice symmetries
type wavesField struct{}

func (wavesField) Sample(x, y float64) float64 {
	return 0.5 + 0.5*math.Sin(3*x+1.3)*math.Cos(2*y+0.7)
}

type recordingSink struct {
	calls    int
	vertices int
	normals  int
}

func (s *recordingSink) UploadMesh(vertices, normals []mgl32.Vec3) {
	s.calls++
	s.vertices = len(vertices)
	s.normals = len(normals)
}

func TestGridIndicesTopology(t *testing.T) {
	for _, r := range []int{2, 3, 7, 50} {
		for _, w := range []Winding{CounterClockwise, Clockwise} {
			idx := GridIndices(r, w)
			require.Len(t, idx, 6*(r-1)*(r-1))
			for _, i := range idx {
				assert.Less(t, i, uint32(r*r))
			}
		}
	}
	assert.Nil(t, GridIndices(1, CounterClockwise))

	assert.Equal(t, []uint32{0, 2, 1, 2, 3, 1}, GridIndices(2, CounterClockwise))
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, GridIndices(2, Clockwise))
}

func TestNewRejectsSmallResolution(t *testing.T) {
	for _, r := range []int{-1, 0, 1} {
		_, err := New(mgl32.Vec3{1000, 0, 1000}, r)
		assert.ErrorIs(t, err, ErrInvalidResolution)
	}

	_, err := New(mgl32.Vec3{0, 0, 1000}, 10)
	assert.Error(t, err)
}

func TestTopologyCounts(t *testing.T) {
	for _, r := range []int{2, 10, 33} {
		tr, err := New(mgl32.Vec3{500, 0, 500}, r, WithWorkers(3))
		require.NoError(t, err)
		assert.Equal(t, r*r, tr.VertexCount())
		assert.Equal(t, 6*(r-1)*(r-1), tr.IndexCount())

		tr.Update(0.016)
		assert.Len(t, tr.Vertices(), r*r)
		assert.Len(t, tr.Normals(), r*r)
	}
}

func TestEndToEndScenario(t *testing.T) {
	sink := &recordingSink{}
	tr, err := New(mgl32.Vec3{1000, 0, 1000}, 50, WithMeshSink(sink))
	require.NoError(t, err)
	peak := float32(tr.NoiseParams().PeakHeight)

	tr.Update(0.016)
	before := tr.Vertices()
	require.Len(t, before, 2500)
	for _, v := range before {
		assert.GreaterOrEqual(t, v.Y(), -peak)
		assert.LessOrEqual(t, v.Y(), peak)
	}

	tr.UpdateOffset(mgl32.Vec3{500, 0, 0})
	tr.Update(0.016)
	after := tr.Vertices()
	require.Len(t, after, 2500)
	assert.Equal(t, 6*49*49, tr.IndexCount())
	assert.NotEqual(t, before, after)

	assert.Equal(t, 2, sink.calls)
	assert.Equal(t, 2500, sink.vertices)
	assert.Equal(t, 2500, sink.normals)
	assert.Equal(t, mgl32.Vec3{500, 0, 0}, tr.Position())
}

func TestCenterHeightFollowsOffset(t *testing.T) {
	tr, err := New(mgl32.Vec3{1000, 0, 1000}, 50, WithField(wavesField{}))
	require.NoError(t, err)

	tr.Update(0.016)
	c0 := tr.CenterHeight()
	tr.UpdateOffset(mgl32.Vec3{500, 0, 0})
	tr.Update(0.016)
	assert.NotEqual(t, c0, tr.CenterHeight())
}

func TestGroundHeightConstraint(t *testing.T) {
	params := noise.DefaultParams()
	// (c - 0.5) * 2 * peak = 10
	field := constField(0.5 + 10/(2*params.PeakHeight))

	tr, err := New(mgl32.Vec3{1000, 0, 1000}, 20, WithField(field), WithParams(params))
	require.NoError(t, err)
	tr.Update(0.016)
	require.InDelta(t, 10, tr.CenterHeight(), 1e-3)

	pos := mgl32.Vec3{0, 5, 0}
	assert.True(t, tr.GroundHeightConstraint(&pos))
	assert.InDelta(t, 60, pos.Y(), 1e-3)

	pos = mgl32.Vec3{0, 200, 0}
	assert.False(t, tr.GroundHeightConstraint(&pos))
	assert.Equal(t, float32(200), pos.Y())
}

// Shifting the offset by one world-space grid spacing moves the sampled
// field by exactly one column, for any resolution/scale pair with the
// same ratio.
func TestConsistencyFactorShiftsByWholeColumns(t *testing.T) {
	pairs := []struct {
		resolution int
		scale      float32
	}{
		{50, 1000},
		{100, 2000},
	}

	for _, p := range pairs {
		tr, err := New(mgl32.Vec3{p.scale, 0, p.scale}, p.resolution)
		require.NoError(t, err)
		assert.InDelta(t, 0.05, tr.ConsistencyFactor(), 1e-9)

		tr.UpdateOffset(mgl32.Vec3{120, 0, -40})
		tr.Update(0)
		base := tr.Vertices()

		spacing := tr.SpecialScale().X() * p.scale / float32(p.resolution)
		assert.InDelta(t, 40, spacing, 1e-4)

		tr.UpdateOffset(mgl32.Vec3{120 + spacing, 0, -40})
		tr.Update(0)
		shifted := tr.Vertices()

		r := p.resolution
		for row := 0; row < r; row += 7 {
			for col := 0; col+1 < r; col += 3 {
				assert.InDelta(t, base[row*r+col+1].Y(), shifted[row*r+col].Y(), 0.05,
					"R=%d row=%d col=%d", r, row, col)
			}
		}
	}
}

func TestHeightAtMatchesStoredVertices(t *testing.T) {
	tr, err := New(mgl32.Vec3{1000, 0, 1000}, 40)
	require.NoError(t, err)
	tr.UpdateOffset(mgl32.Vec3{-250, 900, 310})
	tr.Update(0.016)

	// 900 / 300 = 3 stretches the window
	s := tr.SpecialScale().X()
	require.InDelta(t, 3, s, 1e-6)

	verts := tr.Vertices()
	pos := tr.Position()
	for _, idx := range []struct{ col, row int }{{0, 0}, {5, 17}, {20, 20}, {39, 39}, {12, 3}} {
		v := verts[idx.row*40+idx.col]
		wx := pos.X() + s*v.X()
		wz := pos.Z() + s*v.Z()
		assert.Equal(t, v.Y(), tr.HeightAt(wx, wz))
	}

	// Queries outside the window clamp to the border vertex
	assert.Equal(t, verts[0].Y(), tr.HeightAt(-1e6, -1e6))
	assert.Equal(t, verts[40*40-1].Y(), tr.HeightAt(1e6, 1e6))
}

func TestQueriesUseLastSampledWindow(t *testing.T) {
	tr, err := New(mgl32.Vec3{1000, 0, 1000}, 50, WithField(wavesField{}))
	require.NoError(t, err)
	tr.Update(0.016)

	verts := tr.Vertices()
	center := verts[25*50+25]
	h := tr.HeightAt(0, 0)
	n := tr.NormalAt(0, 0)
	model := tr.Model()
	require.Equal(t, center.Y(), h)

	// Moving the window without resampling leaves the queries on the old mesh
	tr.UpdateOffset(mgl32.Vec3{500, 2400, 0})
	assert.Equal(t, h, tr.HeightAt(0, 0))
	assert.Equal(t, n, tr.NormalAt(0, 0))
	assert.Equal(t, model, tr.Model())

	tr.Update(0.016)
	verts = tr.Vertices()
	s := tr.SpecialScale().X()
	require.InDelta(t, 8, s, 1e-6)
	v := verts[25*50+25]
	assert.Equal(t, v.Y(), tr.HeightAt(500+s*v.X(), s*v.Z()))
	assert.NotEqual(t, model, tr.Model())
}

func TestNormalsAreUnitAndUpward(t *testing.T) {
	tr, err := New(mgl32.Vec3{1000, 0, 1000}, 30)
	require.NoError(t, err)
	for _, n := range tr.Normals() {
		assert.InDelta(t, 1, n.Len(), 1e-4)
		assert.Greater(t, n.Y(), float32(0))
	}

	tr.Update(0.016)
	for _, n := range tr.Normals() {
		assert.InDelta(t, 1, n.Len(), 1e-4)
		assert.Greater(t, n.Y(), float32(0))
	}

	n := tr.NormalAt(0, 0)
	assert.InDelta(t, 1, n.Len(), 1e-4)
}

func TestFlatTerrainNormalsPointUp(t *testing.T) {
	tr, err := New(mgl32.Vec3{100, 0, 100}, 8, WithField(constField(0.5)))
	require.NoError(t, err)
	tr.Update(0)

	for _, n := range tr.Normals() {
		assert.InDelta(t, 0, n.X(), 1e-6)
		assert.InDelta(t, 1, n.Y(), 1e-6)
		assert.InDelta(t, 0, n.Z(), 1e-6)
	}
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, tr.NormalAt(13, -7))
	assert.Zero(t, tr.HeightAt(13, -7))
}

func TestSingleWorkerMatchesParallel(t *testing.T) {
	a, err := New(mgl32.Vec3{800, 0, 800}, 37, WithWorkers(1))
	require.NoError(t, err)
	b, err := New(mgl32.Vec3{800, 0, 800}, 37, WithWorkers(8))
	require.NoError(t, err)

	for _, tr := range []*Terrain{a, b} {
		tr.UpdateOffset(mgl32.Vec3{73, 650, -19})
		tr.Update(0.016)
	}
	assert.Equal(t, a.Vertices(), b.Vertices())
	assert.Equal(t, a.Normals(), b.Normals())
}

func TestSettersAndModel(t *testing.T) {
	tr, err := New(mgl32.Vec3{1000, 0, 1000}, 10, WithField(constField(1)))
	require.NoError(t, err)

	tr.SetPeakHeight(100)
	tr.Update(0)
	assert.InDelta(t, 100, tr.CenterHeight(), 1e-4)

	p := tr.NoiseParams()
	p.PeakHeight = 0
	tr.SetNoiseParams(p)
	tr.Update(0)
	assert.Zero(t, tr.CenterHeight())

	tr.SetWireframe(true)
	assert.True(t, tr.Wireframe())

	tr.UpdateOffset(mgl32.Vec3{10, 600, 20})
	tr.Update(0)
	m := tr.Model()
	got := m.Mul4x1(mgl32.Vec4{1, 1, 1, 1})
	assert.InDelta(t, 12, got.X(), 1e-4)
	assert.InDelta(t, 1, got.Y(), 1e-4)
	assert.InDelta(t, 22, got.Z(), 1e-4)
}

func TestSetMeshSinkAfterConstruction(t *testing.T) {
	tr, err := New(mgl32.Vec3{1000, 0, 1000}, 8, WithField(constField(0.5)))
	require.NoError(t, err)

	sink := &recordingSink{}
	tr.SetMeshSink(sink)
	tr.Update(0)
	tr.Update(0)
	assert.Equal(t, 2, sink.calls)
	assert.Equal(t, 64, sink.vertices)
	assert.Equal(t, 64, sink.normals)
}
