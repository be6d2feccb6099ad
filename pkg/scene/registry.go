// Package scene holds the per-scene registry of entities and shared
// resources. Entities are plain values exposing one or more capabilities
// (Updatable, Renderable, DepthRenderable); the registry dispatches each
// frame phase to the entities that implement it.
package scene

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"

	"wonderland/internal/logger"
)

var (
	// ErrNilEntity is returned when registering a nil entity
	ErrNilEntity = errors.New("scene: nil entity")
	// ErrNoCapability is returned for entities that can neither update nor render
	ErrNoCapability = errors.New("scene: entity implements no capability")
	// ErrUnknownEntity is returned for IDs that are not registered
	ErrUnknownEntity = errors.New("scene: unknown entity")
)

// ID identifies a registered entity. IDs of removed entities are reused,
// oldest first.
type ID uint32

// Updatable entities advance their state once per frame
type Updatable interface {
	Update(deltaTime float32)
}

// Renderable entities draw in the colour pass
type Renderable interface {
	Render(f *Frame)
}

// DepthRenderable entities draw into the shadow depth pass
type DepthRenderable interface {
	RenderDepth(f *Frame)
}

// Frame carries the per-frame camera and light state shared by all
// renderables
type Frame struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	LightSpace mgl32.Mat4
	CameraPos  mgl32.Vec3
	LightPos   mgl32.Vec3
	Time       float32
}

type slot struct {
	name   string
	entity any
}

// Registry owns the entities and resources of one running scene
type Registry struct {
	slots []slot
	free  []ID

	updatables []ID
	renderers  []ID
	depth      []ID

	resources map[string]any
	order     []string

	log *logger.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{
		resources: make(map[string]any),
		log:       log,
	}
}

// Register adds e under name and returns its ID. e must implement at least
// one capability.
func (r *Registry) Register(name string, e any) (ID, error) {
	if e == nil {
		r.log.Errorf("register %q: nil entity", name)
		return 0, fmt.Errorf("register %q: %w", name, ErrNilEntity)
	}

	_, upd := e.(Updatable)
	_, ren := e.(Renderable)
	_, dep := e.(DepthRenderable)
	if !upd && !ren && !dep {
		r.log.Errorf("register %q: %T has no capability", name, e)
		return 0, fmt.Errorf("register %q (%T): %w", name, e, ErrNoCapability)
	}

	var id ID
	if len(r.free) > 0 {
		id = r.free[0]
		r.free = r.free[1:]
		r.slots[id] = slot{name: name, entity: e}
	} else {
		id = ID(len(r.slots))
		r.slots = append(r.slots, slot{name: name, entity: e})
	}

	if upd {
		r.updatables = append(r.updatables, id)
	}
	if ren {
		r.renderers = append(r.renderers, id)
	}
	if dep {
		r.depth = append(r.depth, id)
	}

	r.log.Debugf("registered %q as %d (update=%t render=%t depth=%t)", name, id, upd, ren, dep)
	return id, nil
}

// Unregister removes the entity, making its ID available again
func (r *Registry) Unregister(id ID) error {
	if !r.valid(id) {
		r.log.Errorf("unregister %d: unknown entity", id)
		return fmt.Errorf("unregister %d: %w", id, ErrUnknownEntity)
	}

	name := r.slots[id].name
	r.slots[id] = slot{}
	r.free = append(r.free, id)
	r.updatables = removeID(r.updatables, id)
	r.renderers = removeID(r.renderers, id)
	r.depth = removeID(r.depth, id)

	r.log.Debugf("unregistered %q (%d)", name, id)
	return nil
}

func removeID(ids []ID, id ID) []ID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func (r *Registry) valid(id ID) bool {
	return int(id) < len(r.slots) && r.slots[id].entity != nil
}

// Get returns the entity registered under id
func (r *Registry) Get(id ID) (any, bool) {
	if !r.valid(id) {
		return nil, false
	}
	return r.slots[id].entity, true
}

// Name returns the name id was registered with
func (r *Registry) Name(id ID) string {
	if !r.valid(id) {
		return ""
	}
	return r.slots[id].name
}

// Len returns the number of registered entities
func (r *Registry) Len() int {
	return len(r.slots) - len(r.free)
}

// Update advances every Updatable in registration order
func (r *Registry) Update(deltaTime float32) {
	for _, id := range r.updatables {
		r.slots[id].entity.(Updatable).Update(deltaTime)
	}
}

// Render draws every Renderable in registration order
func (r *Registry) Render(f *Frame) {
	for _, id := range r.renderers {
		r.slots[id].entity.(Renderable).Render(f)
	}
}

// RenderDepth draws every DepthRenderable into the depth pass
func (r *Registry) RenderDepth(f *Frame) {
	for _, id := range r.depth {
		r.slots[id].entity.(DepthRenderable).RenderDepth(f)
	}
}

// Resource returns the shared resource stored under key, calling load to
// create it on first use. Failed loads are not cached.
func Resource[T any](r *Registry, key string, load func() (T, error)) (T, error) {
	if v, ok := r.resources[key]; ok {
		t, ok := v.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("scene: resource %q is %T, not %T", key, v, zero)
		}
		return t, nil
	}

	t, err := load()
	if err != nil {
		return t, fmt.Errorf("load resource %q: %w", key, err)
	}
	r.resources[key] = t
	r.order = append(r.order, key)
	r.log.Debugf("loaded resource %q", key)
	return t, nil
}

// Close releases every entity and resource implementing io.Closer, in
// reverse order of creation, and empties the registry
func (r *Registry) Close() error {
	var errs []error

	for i := len(r.slots) - 1; i >= 0; i-- {
		if c, ok := r.slots[i].entity.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close entity %q: %w", r.slots[i].name, err))
			}
		}
	}
	for i := len(r.order) - 1; i >= 0; i-- {
		if c, ok := r.resources[r.order[i]].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close resource %q: %w", r.order[i], err))
			}
		}
	}

	r.slots = nil
	r.free = nil
	r.updatables = nil
	r.renderers = nil
	r.depth = nil
	r.resources = make(map[string]any)
	r.order = nil

	return errors.Join(errs...)
}
