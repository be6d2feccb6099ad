package engine

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wonderland/internal/logger"
	"wonderland/pkg/camera"
	"wonderland/pkg/config"
	"wonderland/pkg/ui"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Terrain.ScaleX = 1000
	cfg.Terrain.ScaleZ = 1000
	cfg.Terrain.Resolution = 24
	cfg.Terrain.Workers = 2
	cfg.Spawner.SpawnRadius = 600
	cfg.Spawner.DespawnRadius = 800
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config) *Engine {
	t.Helper()
	e := &Engine{config: cfg, logger: logger.Discard()}
	require.NoError(t, e.buildWorld(logger.Discard()))
	return e
}

func TestBuildWorldRegistersEntities(t *testing.T) {
	e := newTestEngine(t, testConfig())
	assert.Equal(t, 2, e.scene.Len())
	assert.Equal(t, int32(e.config.Terrain.Octaves), e.panel.Values.Octaves)
}

func TestBuildWorldRejectsBadNoise(t *testing.T) {
	cfg := testConfig()
	cfg.Terrain.Noise = "worley"
	e := &Engine{config: cfg, logger: logger.Discard()}
	assert.Error(t, e.buildWorld(logger.Discard()))
}

func TestUpdateFollowsCamera(t *testing.T) {
	e := newTestEngine(t, testConfig())
	e.camera.Position = mgl32.Vec3{500, 5000, 200}

	e.update(0.016, camera.Controls{})

	assert.Equal(t, float32(500), e.terrain.Offset().X())
	assert.Equal(t, float32(200), e.terrain.Offset().Z())
	assert.NotZero(t, e.spawner.EvaluatedCount())
}

func TestUpdateKeepsCameraAboveGround(t *testing.T) {
	e := newTestEngine(t, testConfig())
	e.camera.Position = mgl32.Vec3{0, -1e6, 0}
	floor := e.terrain.CenterHeight() + e.terrain.GroundMargin()

	e.update(0.016, camera.Controls{})

	assert.True(t, e.camera.OnGround())
	assert.Equal(t, floor, e.camera.Position.Y())
}

func TestUpdateIgnoresControlsWhileCursorUnlocked(t *testing.T) {
	e := newTestEngine(t, testConfig())
	e.camera.SetFlightMode(true)
	e.camera.Position = mgl32.Vec3{0, 5000, 0}
	start := e.camera.Position

	e.update(0.5, camera.Controls{Forward: true})
	assert.Equal(t, start, e.camera.Position)

	e.cursorLocked = true
	e.update(0.5, camera.Controls{Forward: true})
	assert.NotEqual(t, start, e.camera.Position)
}

func TestApplyConfig(t *testing.T) {
	e := newTestEngine(t, testConfig())
	e.update(0.016, camera.Controls{})
	evaluated := e.spawner.EvaluatedCount()
	require.NotZero(t, evaluated)

	next := testConfig()
	next.Terrain.Octaves = 3
	next.Terrain.PeakHeight = 100
	next.Terrain.Wireframe = true
	next.Spawner.HeightThreshold = 42
	e.applyConfig(next)

	assert.Equal(t, 3, e.terrain.NoiseParams().Octaves)
	assert.Equal(t, 100.0, e.terrain.NoiseParams().PeakHeight)
	assert.True(t, e.terrain.Wireframe())
	assert.Equal(t, float32(42), e.spawner.HeightThreshold())
	assert.Equal(t, int32(3), e.panel.Values.Octaves)
	assert.Equal(t, evaluated, e.spawner.EvaluatedCount(), "decisions stay frozen by default")

	next = testConfig()
	next.Spawner.ResetOnTerrainChange = true
	e.applyConfig(next)
	assert.Zero(t, e.spawner.EvaluatedCount())
}

func TestApplyConfigChangesLogLevel(t *testing.T) {
	cfg := testConfig()
	cfg.Log.Level = "info"
	root := logger.Discard()
	root.SetLevel("info")
	e := &Engine{config: cfg, logger: root.WithPrefix("engine")}
	require.NoError(t, e.buildWorld(root))

	next := testConfig()
	next.Log.Level = "debug"
	e.applyConfig(next)

	assert.Equal(t, logger.DEBUG, root.Level())
	assert.Equal(t, logger.DEBUG, e.logger.Level())
	assert.Equal(t, "debug", e.config.Log.Level)
}

func TestDrainReloads(t *testing.T) {
	e := newTestEngine(t, testConfig())
	ch := make(chan *config.Config, 2)
	first, second := testConfig(), testConfig()
	first.Terrain.Octaves = 2
	second.Terrain.Octaves = 7
	ch <- first
	ch <- second
	close(ch)
	e.reloads = ch

	e.drainReloads()
	assert.Equal(t, 7, e.terrain.NoiseParams().Octaves)
	assert.Nil(t, e.reloads)

	// A nil channel never delivers
	e.drainReloads()
}

func TestApplyPanel(t *testing.T) {
	e := newTestEngine(t, testConfig())
	e.update(0.016, camera.Controls{})
	require.NotZero(t, e.spawner.EvaluatedCount())

	e.panel.Values.ViewDistance = 700
	e.panel.Values.HeightThreshold = -5
	e.panel.Values.Wireframe = true
	e.panel.Values.Octaves = 9
	e.applyPanel(ui.ViewChanged | ui.ThresholdChanged | ui.WireframeChanged | ui.NoiseChanged)

	assert.Equal(t, float32(700), e.camera.Far())
	assert.Equal(t, float32(-5), e.spawner.HeightThreshold())
	assert.True(t, e.terrain.Wireframe())
	assert.Equal(t, 9, e.terrain.NoiseParams().Octaves)
	assert.NotZero(t, e.spawner.EvaluatedCount())

	e.applyPanel(ui.ResetRequested)
	assert.Zero(t, e.spawner.EvaluatedCount())
}

type fakeKeys struct {
	down map[glfw.Key]bool
	x, y float64
}

func (f *fakeKeys) GetKey(key glfw.Key) glfw.Action {
	if f.down[key] {
		return glfw.Press
	}
	return glfw.Release
}

func (f *fakeKeys) GetCursorPos() (float64, float64) { return f.x, f.y }

func TestInputHandlerEdges(t *testing.T) {
	keys := &fakeKeys{down: map[glfw.Key]bool{}}
	ih := NewInputHandler(keys)

	keys.down[glfw.KeyTab] = true
	keys.x, keys.y = 10, 20
	ih.Update()
	assert.True(t, ih.IsKeyDown(glfw.KeyTab))
	assert.True(t, ih.IsKeyPressed(glfw.KeyTab))
	assert.False(t, ih.IsKeyReleased(glfw.KeyTab))
	assert.Equal(t, [2]float64{10, 20}, ih.GetMousePosition())

	keys.x = 15
	ih.Update()
	assert.False(t, ih.IsKeyPressed(glfw.KeyTab))
	assert.Equal(t, [2]float64{5, 0}, ih.GetMouseDelta())

	keys.down[glfw.KeyTab] = false
	ih.Update()
	assert.True(t, ih.IsKeyReleased(glfw.KeyTab))
}

func TestInputHandlerControls(t *testing.T) {
	keys := &fakeKeys{down: map[glfw.Key]bool{
		glfw.KeyW:         true,
		glfw.KeyLeftShift: true,
		glfw.KeyCapsLock:  true,
	}}
	ih := NewInputHandler(keys)
	ih.Update()

	ctl := ih.Controls()
	assert.True(t, ctl.Forward)
	assert.True(t, ctl.Sprint)
	assert.False(t, ctl.Backward)
	assert.False(t, ctl.ToggleFlight)

	keys.down[glfw.KeyCapsLock] = false
	ih.Update()
	assert.True(t, ih.Controls().ToggleFlight)

	ih.Update()
	assert.False(t, ih.Controls().ToggleFlight)
}
