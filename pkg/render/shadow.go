package render

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// LightSpaceMatrix returns the orthographic light projection used by the
// depth pass: the light looks from lightPos at target and covers a square
// of half-width extent
func LightSpaceMatrix(lightPos, target mgl32.Vec3, extent, near, far float32) mgl32.Mat4 {
	up := mgl32.Vec3{0, 1, 0}
	dir := target.Sub(lightPos)
	if l := dir.Len(); l > 0 && mgl32.Abs(dir.Mul(1/l).Dot(up)) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(lightPos, target, up)
	proj := mgl32.Ortho(-extent, extent, -extent, extent, near, far)
	return proj.Mul4(view)
}

// ShadowMap is a depth-only framebuffer
type ShadowMap struct {
	size    int32
	fbo     uint32
	texture uint32
}

// NewShadowMap allocates a size x size depth target
func NewShadowMap(size int) (*ShadowMap, error) {
	sm := &ShadowMap{size: int32(size)}

	gl.GenFramebuffers(1, &sm.fbo)
	gl.GenTextures(1, &sm.texture)
	gl.BindTexture(gl.TEXTURE_2D, sm.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, sm.size, sm.size, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := []float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, sm.texture, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		sm.Close()
		return nil, fmt.Errorf("shadow framebuffer not complete: 0x%x", status)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return sm, nil
}

// Begin binds the depth target and clears it
func (sm *ShadowMap) Begin() {
	gl.Viewport(0, 0, sm.size, sm.size)
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.fbo)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.CullFace(gl.FRONT)
}

// End restores the default framebuffer at the given viewport
func (sm *ShadowMap) End(width, height int) {
	gl.CullFace(gl.BACK)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Bind attaches the depth texture to texture unit
func (sm *ShadowMap) Bind(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, sm.texture)
}

// Close releases the framebuffer and texture
func (sm *ShadowMap) Close() error {
	if sm.texture != 0 {
		gl.DeleteTextures(1, &sm.texture)
		sm.texture = 0
	}
	if sm.fbo != 0 {
		gl.DeleteFramebuffers(1, &sm.fbo)
		sm.fbo = 0
	}
	return nil
}
