package engine

import (
	"wonderland/pkg/camera"
	"wonderland/pkg/render"
	"wonderland/pkg/scene"
	"wonderland/pkg/spawn"
	"wonderland/pkg/terrain"
)

// terrainEntity recentres the terrain window on the camera every frame
type terrainEntity struct {
	terrain  *terrain.Terrain
	camera   *camera.Camera
	renderer *render.TerrainRenderer
}

func (e *terrainEntity) Update(deltaTime float32) {
	e.terrain.UpdateOffset(e.camera.Position)
	e.terrain.Update(deltaTime)
}

func (e *terrainEntity) Render(f *scene.Frame) {
	if e.renderer != nil {
		e.renderer.Render(f)
	}
}

func (e *terrainEntity) RenderDepth(f *scene.Frame) {
	if e.renderer != nil {
		e.renderer.RenderDepth(f)
	}
}

func (e *terrainEntity) Close() error {
	if e.renderer == nil {
		return nil
	}
	return e.renderer.Close()
}

// propEntity streams spawn cells around the camera and draws active props
type propEntity struct {
	spawner  *spawn.Spawner
	camera   *camera.Camera
	renderer *render.PropRenderer
}

func (e *propEntity) Update(deltaTime float32) {
	e.spawner.Update(e.camera.Position, deltaTime)
}

func (e *propEntity) Render(f *scene.Frame) {
	if e.renderer == nil {
		return
	}
	e.renderer.SetFrame(f)
	e.spawner.Render(e.renderer)
}

func (e *propEntity) RenderDepth(f *scene.Frame) {
	if e.renderer == nil {
		return
	}
	e.renderer.SetFrame(f)
	e.spawner.RenderDepth(e.renderer)
}

func (e *propEntity) Close() error {
	if e.renderer == nil {
		return nil
	}
	return e.renderer.Close()
}
