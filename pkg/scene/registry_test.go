package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	updates  int
	renders  int
	depths   int
	closed   bool
	closeErr error
	log      *[]string
	name     string
}

func (c *counter) Update(dt float32) {
	c.updates++
	if c.log != nil {
		*c.log = append(*c.log, c.name)
	}
}
func (c *counter) Render(f *Frame)      { c.renders++ }
func (c *counter) RenderDepth(f *Frame) { c.depths++ }
func (c *counter) Close() error {
	c.closed = true
	return c.closeErr
}

type updateOnly struct{ n int }

func (u *updateOnly) Update(dt float32) { u.n++ }

type inert struct{}

func TestRegisterRejectsNilAndInert(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Register("nothing", nil)
	assert.ErrorIs(t, err, ErrNilEntity)

	_, err = r.Register("rock", inert{})
	assert.ErrorIs(t, err, ErrNoCapability)
	assert.Zero(t, r.Len())
}

func TestDispatchByCapability(t *testing.T) {
	r := NewRegistry(nil)
	full := &counter{}
	upd := &updateOnly{}

	_, err := r.Register("terrain", full)
	require.NoError(t, err)
	_, err = r.Register("clock", upd)
	require.NoError(t, err)

	f := &Frame{}
	r.Update(0.016)
	r.Update(0.016)
	r.Render(f)
	r.RenderDepth(f)

	assert.Equal(t, 2, full.updates)
	assert.Equal(t, 1, full.renders)
	assert.Equal(t, 1, full.depths)
	assert.Equal(t, 2, upd.n)
}

func TestIDsAreRecycledOldestFirst(t *testing.T) {
	r := NewRegistry(nil)
	ids := make([]ID, 4)
	for i := range ids {
		id, err := r.Register("e", &updateOnly{})
		require.NoError(t, err)
		ids[i] = id
	}
	assert.Equal(t, []ID{0, 1, 2, 3}, ids)

	require.NoError(t, r.Unregister(2))
	require.NoError(t, r.Unregister(0))
	assert.Equal(t, 2, r.Len())

	a, err := r.Register("a", &updateOnly{})
	require.NoError(t, err)
	b, err := r.Register("b", &updateOnly{})
	require.NoError(t, err)
	c, err := r.Register("c", &updateOnly{})
	require.NoError(t, err)

	assert.Equal(t, ID(2), a)
	assert.Equal(t, ID(0), b)
	assert.Equal(t, ID(4), c)
	assert.Equal(t, "a", r.Name(a))
}

func TestUnregisterStopsDispatch(t *testing.T) {
	r := NewRegistry(nil)
	var order []string
	first := &counter{name: "first", log: &order}
	second := &counter{name: "second", log: &order}

	id1, err := r.Register("first", first)
	require.NoError(t, err)
	_, err = r.Register("second", second)
	require.NoError(t, err)

	r.Update(0.1)
	require.NoError(t, r.Unregister(id1))
	r.Update(0.1)

	assert.Equal(t, []string{"first", "second", "second"}, order)
	_, ok := r.Get(id1)
	assert.False(t, ok)

	assert.ErrorIs(t, r.Unregister(id1), ErrUnknownEntity)
	assert.ErrorIs(t, r.Unregister(99), ErrUnknownEntity)
}

func TestResourceIsLoadedOnce(t *testing.T) {
	r := NewRegistry(nil)
	loads := 0
	load := func() (*counter, error) {
		loads++
		return &counter{name: "mesh"}, nil
	}

	a, err := Resource(r, "mushroom", load)
	require.NoError(t, err)
	b, err := Resource(r, "mushroom", load)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, loads)

	_, err = Resource(r, "mushroom", func() (string, error) { return "x", nil })
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = Resource(r, "broken", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	v, err := Resource(r, "broken", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCloseReleasesEverything(t *testing.T) {
	r := NewRegistry(nil)
	ent := &counter{}
	_, err := r.Register("ent", ent)
	require.NoError(t, err)

	boom := errors.New("gl gone")
	res, err := Resource(r, "shader", func() (*counter, error) {
		return &counter{closeErr: boom}, nil
	})
	require.NoError(t, err)

	err = r.Close()
	assert.ErrorIs(t, err, boom)
	assert.True(t, ent.closed)
	assert.True(t, res.closed)
	assert.Zero(t, r.Len())

	r.Update(0.1)
	assert.Zero(t, ent.updates)
}
