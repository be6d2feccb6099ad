package render

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"wonderland/pkg/scene"
	"wonderland/pkg/spawn"
)

// PropRenderer draws spawned props with a shared mushroom mesh
type PropRenderer struct {
	shader *Shader
	depth  *Shader

	vao, vbo, ebo uint32
	indexCount    int32

	frame     *scene.Frame
	GlowColor mgl32.Vec3
}

// NewPropRenderer uploads mesh once and returns a drawer for spawn props
func NewPropRenderer(mesh Mesh, shader, depth *Shader) *PropRenderer {
	r := &PropRenderer{
		shader:     shader,
		depth:      depth,
		indexCount: int32(len(mesh.Indices)),
		GlowColor:  mgl32.Vec3{0.35, 0.95, 1.0},
	}

	data := Interleave(mesh.Positions, mesh.Normals)

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 6*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 6*4, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.GenBuffers(1, &r.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return r
}

// SetFrame sets the camera and light state used by the next draws
func (r *PropRenderer) SetFrame(f *scene.Frame) {
	r.frame = f
}

// DrawProps draws props in the colour pass
func (r *PropRenderer) DrawProps(props []spawn.Prop) {
	if r.frame == nil {
		return
	}
	s := r.shader
	s.Use()
	s.SetMat4("view", r.frame.View)
	s.SetMat4("projection", r.frame.Projection)
	s.SetVec3("lightPos", r.frame.LightPos)
	s.SetVec3("glowColor", r.GlowColor)
	s.SetFloat("capHeight", stemHeight)

	gl.BindVertexArray(r.vao)
	for _, p := range props {
		s.SetMat4("model", p.Model())
		gl.DrawElements(gl.TRIANGLES, r.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	}
	gl.BindVertexArray(0)
}

// DrawPropsDepth draws props into the bound depth target
func (r *PropRenderer) DrawPropsDepth(props []spawn.Prop) {
	if r.frame == nil {
		return
	}
	r.depth.Use()
	r.depth.SetMat4("lightSpace", r.frame.LightSpace)

	gl.BindVertexArray(r.vao)
	for _, p := range props {
		r.depth.SetMat4("model", p.Model())
		gl.DrawElements(gl.TRIANGLES, r.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	}
	gl.BindVertexArray(0)
}

// Close releases the GPU buffers
func (r *PropRenderer) Close() error {
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteBuffers(1, &r.ebo)
	gl.DeleteVertexArrays(1, &r.vao)
	return nil
}

// Shaders compiles the programs used by the scene
type Shaders struct {
	Terrain *Shader
	Prop    *Shader
	Depth   *Shader
}

// LoadShaders compiles all scene programs
func LoadShaders() (*Shaders, error) {
	terrain, err := NewShader(terrainVertexShader, terrainFragmentShader)
	if err != nil {
		return nil, err
	}
	prop, err := NewShader(propVertexShader, propFragmentShader)
	if err != nil {
		terrain.Close()
		return nil, err
	}
	depth, err := NewShader(depthVertexShader, depthFragmentShader)
	if err != nil {
		terrain.Close()
		prop.Close()
		return nil, err
	}
	return &Shaders{Terrain: terrain, Prop: prop, Depth: depth}, nil
}

// Close deletes every program
func (s *Shaders) Close() error {
	s.Terrain.Close()
	s.Prop.Close()
	s.Depth.Close()
	return nil
}
