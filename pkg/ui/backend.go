package ui

import (
	"fmt"
	"math"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/inkyblackness/imgui-go/v4"

	"wonderland/pkg/render"
)

const imguiVertexShader = `
#version 410 core
layout (location = 0) in vec2 Position;
layout (location = 1) in vec2 UV;
layout (location = 2) in vec4 Color;

uniform mat4 ProjMtx;

out vec2 Frag_UV;
out vec4 Frag_Color;

void main() {
    Frag_UV = UV;
    Frag_Color = Color;
    gl_Position = ProjMtx * vec4(Position.xy, 0, 1);
}
`

const imguiFragmentShader = `
#version 410 core
in vec2 Frag_UV;
in vec4 Frag_Color;

uniform sampler2D Texture;

out vec4 Out_Color;

void main() {
    Out_Color = Frag_Color * texture(Texture, Frag_UV.st);
}
`

var mouseButtons = [3]glfw.MouseButton{glfw.MouseButton1, glfw.MouseButton2, glfw.MouseButton3}

// UI binds an imgui context to a GLFW window and draws its output with
// OpenGL
type UI struct {
	ctx    *imgui.Context
	io     imgui.IO
	window *glfw.Window

	time             float64
	mouseJustPressed [3]bool

	shader      *render.Shader
	vbo, ebo    uint32
	fontTexture uint32
}

// New creates the imgui context and its GL objects. The window's context
// must be current.
func New(window *glfw.Window) (*UI, error) {
	ctx := imgui.CreateContext(nil)
	io := imgui.CurrentIO()
	io.SetIniFilename("")

	shader, err := render.NewShader(imguiVertexShader, imguiFragmentShader)
	if err != nil {
		ctx.Destroy()
		return nil, fmt.Errorf("failed to create imgui shader: %w", err)
	}

	u := &UI{ctx: ctx, io: io, window: window, shader: shader}
	gl.GenBuffers(1, &u.vbo)
	gl.GenBuffers(1, &u.ebo)
	u.createFontTexture()
	u.installCallbacks()
	return u, nil
}

func (u *UI) createFontTexture() {
	fonts := u.io.Fonts()
	image := fonts.TextureDataRGBA32()

	gl.GenTextures(1, &u.fontTexture)
	gl.BindTexture(gl.TEXTURE_2D, u.fontTexture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(image.Width), int32(image.Height),
		0, gl.RGBA, gl.UNSIGNED_BYTE, image.Pixels)

	fonts.SetTextureID(imgui.TextureID(u.fontTexture))
}

func (u *UI) installCallbacks() {
	u.window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		for i, b := range mouseButtons {
			if b == button {
				u.mouseJustPressed[i] = true
			}
		}
	})
	u.window.SetScrollCallback(func(_ *glfw.Window, x, y float64) {
		u.io.AddMouseWheelDelta(float32(x), float32(y))
	})
	u.window.SetCharCallback(func(_ *glfw.Window, char rune) {
		u.io.AddInputCharacters(string(char))
	})
}

// WantsMouse reports whether imgui is using the mouse this frame
func (u *UI) WantsMouse() bool {
	return u.io.WantCaptureMouse()
}

// NewFrame feeds window size, time and mouse state into imgui and starts
// a frame
func (u *UI) NewFrame() {
	w, h := u.window.GetSize()
	u.io.SetDisplaySize(imgui.Vec2{X: float32(w), Y: float32(h)})

	now := glfw.GetTime()
	if u.time > 0 {
		u.io.SetDeltaTime(float32(now - u.time))
	}
	u.time = now

	if u.window.GetAttrib(glfw.Focused) != 0 {
		x, y := u.window.GetCursorPos()
		u.io.SetMousePosition(imgui.Vec2{X: float32(x), Y: float32(y)})
	} else {
		u.io.SetMousePosition(imgui.Vec2{X: -math.MaxFloat32, Y: -math.MaxFloat32})
	}
	for i, b := range mouseButtons {
		down := u.mouseJustPressed[i] || u.window.GetMouseButton(b) == glfw.Press
		u.io.SetMouseButtonDown(i, down)
		u.mouseJustPressed[i] = false
	}

	imgui.NewFrame()
}

// Render finishes the frame and draws it over the scene
func (u *UI) Render() {
	imgui.Render()
	drawData := imgui.RenderedDrawData()

	w, h := u.window.GetSize()
	fbw, fbh := u.window.GetFramebufferSize()
	if w <= 0 || h <= 0 || fbw <= 0 || fbh <= 0 {
		return
	}
	drawData.ScaleClipRects(imgui.Vec2{X: float32(fbw) / float32(w), Y: float32(fbh) / float32(h)})

	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.SCISSOR_TEST)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	gl.Viewport(0, 0, int32(fbw), int32(fbh))

	u.shader.Use()
	u.shader.SetInt("Texture", 0)
	u.shader.SetMat4("ProjMtx", mgl32.Ortho2D(0, float32(w), float32(h), 0))
	gl.ActiveTexture(gl.TEXTURE0)

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, u.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, u.ebo)

	vertexSize, posOffset, uvOffset, colOffset := imgui.VertexBufferLayout()
	gl.EnableVertexAttribArray(0)
	gl.EnableVertexAttribArray(1)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, int32(vertexSize), gl.PtrOffset(posOffset))
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, int32(vertexSize), gl.PtrOffset(uvOffset))
	gl.VertexAttribPointer(2, 4, gl.UNSIGNED_BYTE, true, int32(vertexSize), gl.PtrOffset(colOffset))

	indexSize := imgui.IndexBufferLayout()
	drawType := uint32(gl.UNSIGNED_SHORT)
	if indexSize == 4 {
		drawType = gl.UNSIGNED_INT
	}

	for _, list := range drawData.CommandLists() {
		vertices, vertexBytes := list.VertexBuffer()
		gl.BufferData(gl.ARRAY_BUFFER, vertexBytes, vertices, gl.STREAM_DRAW)
		indices, indexBytes := list.IndexBuffer()
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, indexBytes, indices, gl.STREAM_DRAW)

		offset := 0
		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
			} else {
				gl.BindTexture(gl.TEXTURE_2D, uint32(cmd.TextureID()))
				clip := cmd.ClipRect()
				gl.Scissor(int32(clip.X), int32(fbh)-int32(clip.W), int32(clip.Z-clip.X), int32(clip.W-clip.Y))
				gl.DrawElements(gl.TRIANGLES, int32(cmd.ElementCount()), drawType, gl.PtrOffset(offset))
			}
			offset += cmd.ElementCount() * indexSize
		}
	}

	gl.DeleteVertexArrays(1, &vao)
	gl.Disable(gl.SCISSOR_TEST)
	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
}

// Close releases GL objects and the imgui context
func (u *UI) Close() error {
	gl.DeleteBuffers(1, &u.vbo)
	gl.DeleteBuffers(1, &u.ebo)
	if u.fontTexture != 0 {
		gl.DeleteTextures(1, &u.fontTexture)
		u.io.Fonts().SetTextureID(0)
	}
	u.shader.Close()
	u.ctx.Destroy()
	return nil
}
