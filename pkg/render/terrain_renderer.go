package render

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"wonderland/pkg/scene"
	"wonderland/pkg/terrain"
)

// TerrainRenderer owns the GPU buffers of a terrain mesh. It receives
// fresh vertices through UploadMesh after every terrain update.
type TerrainRenderer struct {
	terrain *terrain.Terrain
	shader  *Shader
	depth   *Shader
	shadow  *ShadowMap

	vao, vbo, ebo uint32
	indexCount    int32
	scratch       []float32

	FogColor     mgl32.Vec3
	ViewDistance float32
}

// NewTerrainRenderer allocates buffers sized for t and uploads its index
// buffer once; the topology never changes. shadow may be nil.
func NewTerrainRenderer(t *terrain.Terrain, shader, depth *Shader, shadow *ShadowMap) *TerrainRenderer {
	r := &TerrainRenderer{
		terrain:      t,
		shader:       shader,
		depth:        depth,
		shadow:       shadow,
		FogColor:     mgl32.Vec3{0.7, 0.4, 0.5},
		ViewDistance: 10000,
	}

	indices := t.Indices()
	r.indexCount = int32(len(indices))

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, t.VertexCount()*6*4, nil, gl.DYNAMIC_DRAW)

	// Position attribute
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 6*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	// Normal attribute
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 6*4, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.GenBuffers(1, &r.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	r.UploadMesh(t.Vertices(), t.Normals())
	return r
}

// UploadMesh replaces the vertex buffer contents
func (r *TerrainRenderer) UploadMesh(vertices, normals []mgl32.Vec3) {
	r.scratch = r.scratch[:0]
	for i, p := range vertices {
		n := normals[i]
		r.scratch = append(r.scratch, p[0], p[1], p[2], n[0], n[1], n[2])
	}
	if len(r.scratch) == 0 {
		return
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(r.scratch)*4, gl.Ptr(r.scratch))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Render draws the terrain in the colour pass
func (r *TerrainRenderer) Render(f *scene.Frame) {
	s := r.shader
	s.Use()
	s.SetMat4("model", r.terrain.Model())
	s.SetMat4("view", f.View)
	s.SetMat4("projection", f.Projection)
	s.SetMat4("lightSpace", f.LightSpace)
	s.SetVec3("lightPos", f.LightPos)
	s.SetVec3("viewPos", f.CameraPos)
	s.SetVec3("fogColor", r.FogColor)
	s.SetFloat("viewDistance", r.ViewDistance)
	s.SetFloat("peakHeight", float32(r.terrain.NoiseParams().PeakHeight))
	s.SetInt("shadowMap", 0)
	if r.shadow != nil {
		r.shadow.Bind(0)
	}

	if r.terrain.Wireframe() {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	gl.BindVertexArray(r.vao)
	gl.DrawElements(gl.TRIANGLES, r.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}

// RenderDepth draws the terrain into the bound depth target
func (r *TerrainRenderer) RenderDepth(f *scene.Frame) {
	r.depth.Use()
	r.depth.SetMat4("model", r.terrain.Model())
	r.depth.SetMat4("lightSpace", f.LightSpace)

	gl.BindVertexArray(r.vao)
	gl.DrawElements(gl.TRIANGLES, r.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}

// Close releases the GPU buffers
func (r *TerrainRenderer) Close() error {
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteBuffers(1, &r.ebo)
	gl.DeleteVertexArrays(1, &r.vao)
	return nil
}
