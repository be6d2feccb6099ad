// Package ui draws the Dear ImGui parameter panels over the scene and
// turns slider edits into terrain, view and spawner changes.
package ui

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/inkyblackness/imgui-go/v4"

	"wonderland/internal/noise"
	"wonderland/internal/util"
)

// Slider ranges
const (
	MinOctaves         = 1
	MaxOctaves         = 20
	MaxPersistence     = 1
	MinLacunarity      = 1
	MaxLacunarity      = 10
	MaxPeakHeight      = 2000
	MinViewDistance    = 500
	MaxViewDistance    = 10000
	MinHeightThreshold = -2000
	MaxHeightThreshold = 2000
)

// Values are the editable panel fields in the widget-friendly types imgui
// expects
type Values struct {
	Octaves         int32
	Persistence     float32
	Lacunarity      float32
	PeakHeight      float32
	ViewDistance    float32
	HeightThreshold float32
	Wireframe       bool
}

// ValuesFrom seeds panel values from the live scene state
func ValuesFrom(p noise.Params, viewDistance, threshold float32, wireframe bool) Values {
	return Values{
		Octaves:         int32(p.Octaves),
		Persistence:     float32(p.Persistence),
		Lacunarity:      float32(p.Lacunarity),
		PeakHeight:      float32(p.PeakHeight),
		ViewDistance:    viewDistance,
		HeightThreshold: threshold,
		Wireframe:       wireframe,
	}.Clamped()
}

// Clamped returns v with every field inside its slider range
func (v Values) Clamped() Values {
	v.Octaves = util.Clamp[int32](v.Octaves, MinOctaves, MaxOctaves)
	v.Persistence = util.Clamp[float32](v.Persistence, 0, MaxPersistence)
	v.Lacunarity = util.Clamp[float32](v.Lacunarity, MinLacunarity, MaxLacunarity)
	v.PeakHeight = util.Clamp[float32](v.PeakHeight, 0, MaxPeakHeight)
	v.ViewDistance = util.Clamp[float32](v.ViewDistance, MinViewDistance, MaxViewDistance)
	v.HeightThreshold = util.Clamp[float32](v.HeightThreshold, MinHeightThreshold, MaxHeightThreshold)
	return v
}

// NoiseParams converts the terrain sliders into octave noise parameters
func (v Values) NoiseParams() noise.Params {
	c := v.Clamped()
	return noise.Params{
		Octaves:     int(c.Octaves),
		Persistence: float64(c.Persistence),
		Lacunarity:  float64(c.Lacunarity),
		PeakHeight:  float64(c.PeakHeight),
	}
}

// Changes flags which groups of values an edit touched
type Changes uint8

const (
	NoiseChanged Changes = 1 << iota
	ViewChanged
	ThresholdChanged
	WireframeChanged
	ResetRequested
)

// Has reports whether every flag in f is set
func (c Changes) Has(f Changes) bool { return c&f == f }

// Diff reports which groups differ between two value sets
func Diff(before, after Values) Changes {
	var c Changes
	if before.Octaves != after.Octaves || before.Persistence != after.Persistence ||
		before.Lacunarity != after.Lacunarity || before.PeakHeight != after.PeakHeight {
		c |= NoiseChanged
	}
	if before.ViewDistance != after.ViewDistance {
		c |= ViewChanged
	}
	if before.HeightThreshold != after.HeightThreshold {
		c |= ThresholdChanged
	}
	if before.Wireframe != after.Wireframe {
		c |= WireframeChanged
	}
	return c
}

// Stats is the read-only status shown under the sliders
type Stats struct {
	FPS         float64
	Camera      mgl32.Vec3
	FlightMode  bool
	ActiveProps int
	TotalProps  int
}

// Panel owns the values edited through imgui widgets
type Panel struct {
	Values Values
}

// NewPanel creates a panel showing v
func NewPanel(v Values) *Panel {
	return &Panel{Values: v.Clamped()}
}

// Draw lays out both windows for the current imgui frame and reports what
// the user changed. It must run between NewFrame and Render.
func (p *Panel) Draw(stats Stats) Changes {
	before := p.Values
	v := &p.Values
	var reset bool

	imgui.SetNextWindowPosV(imgui.Vec2{X: 10, Y: 10}, imgui.ConditionFirstUseEver, imgui.Vec2{})
	if imgui.Begin("Terrain Parameters") {
		imgui.SliderInt("Octaves", &v.Octaves, MinOctaves, MaxOctaves)
		imgui.SliderFloat("Persistence", &v.Persistence, 0, MaxPersistence)
		imgui.SliderFloat("Lacunarity", &v.Lacunarity, MinLacunarity, MaxLacunarity)
		imgui.SliderFloat("Peak height", &v.PeakHeight, 0, MaxPeakHeight)
		imgui.Checkbox("Wireframe", &v.Wireframe)
		imgui.Separator()
		imgui.SliderFloat("Spawn threshold", &v.HeightThreshold, MinHeightThreshold, MaxHeightThreshold)
		reset = imgui.Button("Reset props")
	}
	imgui.End()

	imgui.SetNextWindowPosV(imgui.Vec2{X: 10, Y: 230}, imgui.ConditionFirstUseEver, imgui.Vec2{})
	if imgui.Begin("View Parameters") {
		imgui.SliderFloat("View distance", &v.ViewDistance, MinViewDistance, MaxViewDistance)
		imgui.Separator()
		imgui.Text(fmt.Sprintf("%.0f fps", stats.FPS))
		imgui.Text(fmt.Sprintf("camera %.0f %.0f %.0f", stats.Camera.X(), stats.Camera.Y(), stats.Camera.Z()))
		if stats.FlightMode {
			imgui.Text("flight mode")
		}
		imgui.Text(fmt.Sprintf("props %d active / %d placed", stats.ActiveProps, stats.TotalProps))
	}
	imgui.End()

	p.Values = p.Values.Clamped()
	changes := Diff(before, p.Values)
	if reset {
		changes |= ResetRequested
	}
	return changes
}
