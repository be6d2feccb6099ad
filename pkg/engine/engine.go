package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"wonderland/internal/logger"
	"wonderland/internal/noise"
	"wonderland/internal/util"
	"wonderland/pkg/camera"
	"wonderland/pkg/config"
	"wonderland/pkg/render"
	"wonderland/pkg/scene"
	"wonderland/pkg/spawn"
	"wonderland/pkg/terrain"
	"wonderland/pkg/ui"
)

const (
	mushroomSegments = 12
	// shadowExtent is the half-width of the area covered by the shadow map
	shadowExtent = 2500
)

// Engine represents the main application
type Engine struct {
	window *glfw.Window
	config *config.Config
	logger *logger.Logger
	input  *InputHandler

	scene   *scene.Registry
	camera  *camera.Camera
	terrain *terrain.Terrain
	spawner *spawn.Spawner
	ground  *terrainEntity
	props   *propEntity

	shadow *render.ShadowMap
	ui     *ui.UI
	panel  *ui.Panel

	reloads   <-chan *config.Config
	stopWatch context.CancelFunc

	fps          *util.RollingAverage
	cursorLocked bool
	isRunning    bool
	startTime    time.Time
	lastUpdate   time.Time
	frameRate    int
}

// NewEngine opens the window, builds the scene and starts watching
// configPath for changes. configPath may be empty.
func NewEngine(cfg *config.Config, configPath string, log *logger.Logger) (*Engine, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// Set window hints
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	var monitor *glfw.Monitor
	if cfg.Window.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	// Create window
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %v", err)
	}

	window.MakeContextCurrent()
	if cfg.Window.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %v", err)
	}
	log.Infof("OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))

	e := &Engine{
		window:    window,
		config:    cfg,
		logger:    log.WithPrefix("engine"),
		input:     NewInputHandler(window),
		frameRate: cfg.Window.FrameRate,
	}

	if err := e.buildWorld(log); err != nil {
		glfw.Terminate()
		return nil, err
	}
	if err := e.buildRenderers(); err != nil {
		e.scene.Close()
		glfw.Terminate()
		return nil, err
	}

	e.ui, err = ui.New(window)
	if err != nil {
		e.scene.Close()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize UI: %v", err)
	}

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if width > 0 && height > 0 {
			e.camera.SetAspect(float32(width) / float32(height))
		}
	})
	e.setCursorLock(true)

	if configPath != "" {
		ctx, cancel := context.WithCancel(context.Background())
		reloads, err := config.Watch(ctx, configPath, log.WithPrefix("config"))
		if err != nil {
			cancel()
			e.logger.Warnf("Config hot reload disabled: %v", err)
		} else {
			e.reloads = reloads
			e.stopWatch = cancel
		}
	}

	return e, nil
}

// buildWorld creates the GL-independent part of the scene: camera,
// terrain, spawner and the registry entities that tie them together
func (e *Engine) buildWorld(log *logger.Logger) error {
	cfg := e.config
	e.fps = util.NewRollingAverage(60)
	e.scene = scene.NewRegistry(log.WithPrefix("scene"))

	aspect := float32(cfg.Window.Width) / float32(cfg.Window.Height)
	e.camera = camera.New(cfg.Camera.Options(aspect))

	field, err := noise.New(cfg.Terrain.Noise, cfg.Terrain.Repeat, cfg.Terrain.Seed)
	if err != nil {
		return fmt.Errorf("failed to initialize noise field: %w", err)
	}

	e.terrain, err = terrain.New(cfg.Terrain.Scale(), cfg.Terrain.Resolution,
		terrain.WithField(field),
		terrain.WithParams(cfg.Terrain.NoiseParams()),
		terrain.WithWorkers(cfg.Terrain.Workers),
		terrain.WithGroundMargin(cfg.Terrain.GroundMargin),
		terrain.WithReferenceAltitude(cfg.Terrain.ReferenceAltitude),
		terrain.WithLogger(log.WithPrefix("terrain")),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize terrain: %w", err)
	}
	e.terrain.SetWireframe(cfg.Terrain.Wireframe)

	e.spawner, err = spawn.New(e.terrain, cfg.Spawner.Options(), log.WithPrefix("spawn"))
	if err != nil {
		return fmt.Errorf("failed to initialize spawner: %w", err)
	}

	// Terrain first: props query the window the terrain just resampled
	e.ground = &terrainEntity{terrain: e.terrain, camera: e.camera}
	if _, err := e.scene.Register("terrain", e.ground); err != nil {
		return err
	}
	e.props = &propEntity{spawner: e.spawner, camera: e.camera}
	if _, err := e.scene.Register("props", e.props); err != nil {
		return err
	}

	e.panel = ui.NewPanel(e.panelValues())
	return nil
}

// buildRenderers compiles shaders and uploads meshes. Needs a current GL
// context.
func (e *Engine) buildRenderers() error {
	shaders, err := scene.Resource(e.scene, "shaders", render.LoadShaders)
	if err != nil {
		return fmt.Errorf("failed to compile shaders: %w", err)
	}
	mesh, err := scene.Resource(e.scene, "mesh/mushroom", func() (render.Mesh, error) {
		return render.MushroomMesh(mushroomSegments), nil
	})
	if err != nil {
		return err
	}
	e.shadow, err = scene.Resource(e.scene, "shadowmap", func() (*render.ShadowMap, error) {
		return render.NewShadowMap(e.config.Scene.ShadowMapSize)
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow map: %w", err)
	}

	tr := render.NewTerrainRenderer(e.terrain, shaders.Terrain, shaders.Depth, e.shadow)
	tr.FogColor = e.config.Scene.Clear().Vec3()
	tr.ViewDistance = e.camera.Far()
	e.terrain.SetMeshSink(tr)
	e.ground.renderer = tr

	e.props.renderer = render.NewPropRenderer(mesh, shaders.Prop, shaders.Depth)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	return nil
}

func (e *Engine) panelValues() ui.Values {
	return ui.ValuesFrom(e.terrain.NoiseParams(), e.camera.Far(), e.spawner.HeightThreshold(), e.terrain.Wireframe())
}

func (e *Engine) setCursorLock(locked bool) {
	e.cursorLocked = locked
	if e.window == nil {
		return
	}
	if locked {
		e.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		e.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

// Run starts the main loop
func (e *Engine) Run() {
	e.isRunning = true
	e.startTime = time.Now()
	e.lastUpdate = e.startTime

	// Main loop
	for e.isRunning && !e.window.ShouldClose() {
		currentTime := time.Now()
		deltaTime := currentTime.Sub(e.lastUpdate).Seconds()
		e.lastUpdate = currentTime
		if deltaTime > 0 {
			e.fps.Add(1 / deltaTime)
		}

		glfw.PollEvents()
		e.processInput()
		e.update(float32(deltaTime), e.input.Controls())
		e.render(float32(currentTime.Sub(e.startTime).Seconds()))

		e.window.SwapBuffers()

		// Cap the frame rate
		if e.frameRate > 0 {
			frameTime := time.Since(currentTime)
			targetFrameTime := time.Second / time.Duration(e.frameRate)
			if frameTime < targetFrameTime {
				time.Sleep(targetFrameTime - frameTime)
			}
		}
	}

	e.cleanup()
}

// processInput handles keys that act on the application rather than the
// camera
func (e *Engine) processInput() {
	e.input.Update()

	if e.input.IsKeyPressed(glfw.KeyEscape) {
		e.isRunning = false
	}
	if e.input.IsKeyReleased(glfw.KeyTab) {
		e.setCursorLock(!e.cursorLocked)
		e.logger.Debugf("cursor locked: %t", e.cursorLocked)
	}
	if e.input.IsKeyPressed(glfw.KeyApostrophe) {
		p := e.camera.Position
		e.logger.Infof("Camera position: (%.1f, %.1f, %.1f)", p.X(), p.Y(), p.Z())
	}

	pos := e.input.GetMousePosition()
	e.camera.HandleMouse(pos[0], pos[1], e.cursorLocked)
}

// update advances the simulation by one frame
func (e *Engine) update(deltaTime float32, controls camera.Controls) {
	if e.cursorLocked {
		e.camera.ProcessInput(controls, deltaTime)
		e.camera.Update(deltaTime)
	}
	e.camera.SetOnGround(e.terrain.GroundHeightConstraint(&e.camera.Position))

	e.scene.Update(deltaTime)
	e.drainReloads()
}

// drainReloads applies every config delivered since the last frame
func (e *Engine) drainReloads() {
	for {
		select {
		case cfg, ok := <-e.reloads:
			if !ok {
				e.reloads = nil
				return
			}
			e.applyConfig(cfg)
		default:
			return
		}
	}
}

// applyConfig applies the runtime-tunable part of a reloaded config
func (e *Engine) applyConfig(cfg *config.Config) {
	old := e.config.Terrain
	if cfg.Terrain.Resolution != old.Resolution || cfg.Terrain.ScaleX != old.ScaleX ||
		cfg.Terrain.ScaleZ != old.ScaleZ || cfg.Spawner.CellSize != e.config.Spawner.CellSize {
		e.logger.Warn("Terrain size and spawn cell size need a restart; ignoring those changes")
	}

	terrainChanged := cfg.Terrain.NoiseParams() != e.terrain.NoiseParams()
	e.terrain.SetNoiseParams(cfg.Terrain.NoiseParams())
	e.terrain.SetWireframe(cfg.Terrain.Wireframe)
	e.spawner.SetHeightThreshold(cfg.Spawner.HeightThreshold)
	e.config.Spawner.ResetOnTerrainChange = cfg.Spawner.ResetOnTerrainChange
	if terrainChanged {
		e.onTerrainChanged()
	}

	e.config.Terrain.Octaves = cfg.Terrain.Octaves
	e.config.Terrain.Persistence = cfg.Terrain.Persistence
	e.config.Terrain.Lacunarity = cfg.Terrain.Lacunarity
	e.config.Terrain.PeakHeight = cfg.Terrain.PeakHeight
	e.config.Terrain.Wireframe = cfg.Terrain.Wireframe
	e.config.Spawner.HeightThreshold = cfg.Spawner.HeightThreshold

	if cfg.Log.Level != e.config.Log.Level {
		e.logger.SetLevel(cfg.Log.Level)
		e.config.Log.Level = cfg.Log.Level
	}

	e.panel.Values = e.panelValues()
	e.logger.Info("Configuration reloaded")
}

// applyPanel applies the edits reported by the UI panel
func (e *Engine) applyPanel(changes ui.Changes) {
	v := e.panel.Values
	if changes.Has(ui.NoiseChanged) {
		e.terrain.SetNoiseParams(v.NoiseParams())
		e.onTerrainChanged()
	}
	if changes.Has(ui.ViewChanged) {
		e.camera.SetFar(v.ViewDistance)
		if e.ground.renderer != nil {
			e.ground.renderer.ViewDistance = v.ViewDistance
		}
	}
	if changes.Has(ui.ThresholdChanged) {
		e.spawner.SetHeightThreshold(v.HeightThreshold)
	}
	if changes.Has(ui.WireframeChanged) {
		e.terrain.SetWireframe(v.Wireframe)
	}
	if changes.Has(ui.ResetRequested) {
		e.spawner.Reset()
	}
}

func (e *Engine) onTerrainChanged() {
	if e.config.Spawner.ResetOnTerrainChange {
		e.logger.Debug("terrain changed, re-evaluating spawn cells")
		e.spawner.Reset()
	}
}

// frame collects the per-frame matrices shared by every renderable
func (e *Engine) frame(elapsed float32) *scene.Frame {
	light := e.config.Scene.LightPos()
	target := mgl32.Vec3{e.camera.Position.X(), 0, e.camera.Position.Z()}
	return &scene.Frame{
		View:       e.camera.View(),
		Projection: e.camera.Projection(),
		LightSpace: render.LightSpaceMatrix(target.Add(light), target, shadowExtent, 1, 2*light.Len()),
		CameraPos:  e.camera.Position,
		LightPos:   target.Add(light),
		Time:       elapsed,
	}
}

// render renders the current frame
func (e *Engine) render(elapsed float32) {
	f := e.frame(elapsed)
	width, height := e.window.GetFramebufferSize()

	e.shadow.Begin()
	e.scene.RenderDepth(f)
	e.shadow.End(width, height)

	clear := e.config.Scene.Clear()
	gl.ClearColor(clear[0], clear[1], clear[2], clear[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)

	e.scene.Render(f)

	e.ui.NewFrame()
	if !e.cursorLocked {
		changes := e.panel.Draw(ui.Stats{
			FPS:         e.fps.Value(),
			Camera:      e.camera.Position,
			FlightMode:  e.camera.FlightMode(),
			ActiveProps: e.spawner.ActiveCount(),
			TotalProps:  e.spawner.TotalCount(),
		})
		e.applyPanel(changes)
	}
	e.ui.Render()
}

// cleanup performs necessary cleanup before exiting
func (e *Engine) cleanup() {
	e.logger.Info("Shutting down engine...")
	if e.stopWatch != nil {
		e.stopWatch()
	}
	if err := e.ui.Close(); err != nil {
		e.logger.Errorf("UI cleanup: %v", err)
	}
	if err := e.scene.Close(); err != nil {
		e.logger.Errorf("Scene cleanup: %v", err)
	}
	glfw.Terminate()
}
