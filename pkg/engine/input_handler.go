package engine

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"wonderland/pkg/camera"
)

// keySource is the part of *glfw.Window the input handler polls
type keySource interface {
	GetKey(key glfw.Key) glfw.Action
	GetCursorPos() (x, y float64)
}

// trackedKeys are the keys polled every frame
var trackedKeys = []glfw.Key{
	glfw.KeyW, glfw.KeyS, glfw.KeyA, glfw.KeyD,
	glfw.KeySpace, glfw.KeyLeftControl, glfw.KeyLeftShift,
	glfw.KeyCapsLock, glfw.KeyTab, glfw.KeyApostrophe, glfw.KeyEscape,
}

// InputHandler tracks keyboard and cursor state between frames
type InputHandler struct {
	source           keySource
	currentKeys      map[glfw.Key]bool
	previousKeys     map[glfw.Key]bool
	currentMousePos  [2]float64
	previousMousePos [2]float64
	mouseDelta       [2]float64
}

// NewInputHandler creates a new input handler
func NewInputHandler(source keySource) *InputHandler {
	return &InputHandler{
		source:       source,
		currentKeys:  make(map[glfw.Key]bool),
		previousKeys: make(map[glfw.Key]bool),
	}
}

// Update polls the window; call once per frame after PollEvents
func (ih *InputHandler) Update() {
	// Copy the current key state into the previous one
	for k, v := range ih.currentKeys {
		ih.previousKeys[k] = v
	}

	ih.previousMousePos = ih.currentMousePos
	x, y := ih.source.GetCursorPos()
	ih.currentMousePos = [2]float64{x, y}
	ih.mouseDelta[0] = ih.currentMousePos[0] - ih.previousMousePos[0]
	ih.mouseDelta[1] = ih.currentMousePos[1] - ih.previousMousePos[1]

	for _, key := range trackedKeys {
		ih.currentKeys[key] = ih.source.GetKey(key) == glfw.Press
	}
}

// IsKeyDown checks whether a key is held
func (ih *InputHandler) IsKeyDown(key glfw.Key) bool {
	return ih.currentKeys[key]
}

// IsKeyPressed checks whether a key went down this frame
func (ih *InputHandler) IsKeyPressed(key glfw.Key) bool {
	return ih.currentKeys[key] && !ih.previousKeys[key]
}

// IsKeyReleased checks whether a key went up this frame
func (ih *InputHandler) IsKeyReleased(key glfw.Key) bool {
	return !ih.currentKeys[key] && ih.previousKeys[key]
}

// GetMousePosition returns the current cursor position
func (ih *InputHandler) GetMousePosition() [2]float64 {
	return ih.currentMousePos
}

// GetMouseDelta returns the cursor movement since the last frame
func (ih *InputHandler) GetMouseDelta() [2]float64 {
	return ih.mouseDelta
}

// Controls maps the held keys onto camera controls. Flight mode toggles
// when Caps Lock is released.
func (ih *InputHandler) Controls() camera.Controls {
	return camera.Controls{
		Forward:      ih.IsKeyDown(glfw.KeyW),
		Backward:     ih.IsKeyDown(glfw.KeyS),
		Left:         ih.IsKeyDown(glfw.KeyA),
		Right:        ih.IsKeyDown(glfw.KeyD),
		Up:           ih.IsKeyDown(glfw.KeySpace),
		Down:         ih.IsKeyDown(glfw.KeyLeftControl),
		Sprint:       ih.IsKeyDown(glfw.KeyLeftShift),
		ToggleFlight: ih.IsKeyReleased(glfw.KeyCapsLock),
	}
}
