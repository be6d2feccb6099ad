package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v2"

	"wonderland/internal/noise"
	"wonderland/pkg/camera"
	"wonderland/pkg/spawn"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config represents the main configuration
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Log     LogConfig     `yaml:"log"`
	Terrain TerrainConfig `yaml:"terrain"`
	Spawner SpawnerConfig `yaml:"spawner"`
	Camera  CameraConfig  `yaml:"camera"`
	Scene   SceneConfig   `yaml:"scene"`
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Title      string `yaml:"title"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	FrameRate  int    `yaml:"framerate"` // 0 means uncapped
}

// LogConfig selects the log level and an optional log file
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// TerrainConfig contains terrain mesh and noise configuration
type TerrainConfig struct {
	ScaleX            float32 `yaml:"scale_x"`
	ScaleZ            float32 `yaml:"scale_z"`
	Resolution        int     `yaml:"resolution"`
	Octaves           int     `yaml:"octaves"`
	Persistence       float64 `yaml:"persistence"`
	Lacunarity        float64 `yaml:"lacunarity"`
	PeakHeight        float64 `yaml:"peak_height"`
	Repeat            int     `yaml:"repeat"`
	Seed              int64   `yaml:"seed"`
	Noise             string  `yaml:"noise"` // perlin, simplex
	Workers           int     `yaml:"workers"`
	GroundMargin      float32 `yaml:"ground_margin"`
	ReferenceAltitude float32 `yaml:"reference_altitude"`
	Wireframe         bool    `yaml:"wireframe"`
}

// SpawnerConfig contains spawn grid configuration
type SpawnerConfig struct {
	HeightThreshold      float32   `yaml:"height_threshold"`
	CellSize             float32   `yaml:"cell_size"`
	SpawnRadius          float32   `yaml:"spawn_radius"`
	DespawnRadius        float32   `yaml:"despawn_radius"`
	SpawnProbability     float32   `yaml:"spawn_probability"`
	Seed                 uint32    `yaml:"seed"`
	SinkDepth            float32   `yaml:"sink_depth"`
	PropScale            []float32 `yaml:"prop_scale,flow"`
	ResetOnTerrainChange bool      `yaml:"reset_on_terrain_change"`
}

// CameraConfig contains the starting camera state
type CameraConfig struct {
	Position    []float32 `yaml:"position,flow"`
	Front       []float32 `yaml:"front,flow"`
	Speed       float32   `yaml:"speed"`
	Sensitivity float32   `yaml:"sensitivity"`
	Gravity     float32   `yaml:"gravity"`
	FOV         float32   `yaml:"fov"`
	Near        float32   `yaml:"near"`
	Far         float32   `yaml:"far"` // view distance
	FlightMode  bool      `yaml:"flight_mode"`
}

// SceneConfig contains lighting and clear colour
type SceneConfig struct {
	LightPosition []float32 `yaml:"light_position,flow"`
	ClearColor    []float32 `yaml:"clear_color,flow"`
	ShadowMapSize int       `yaml:"shadow_map_size"`
}

// DefaultConfig creates a default configuration
func DefaultConfig() *Config {
	np := noise.DefaultParams()
	so := spawn.DefaultOptions()
	co := camera.DefaultOptions()

	return &Config{
		Window: WindowConfig{
			Width:     1366,
			Height:    768,
			Title:     "Wonderland",
			VSync:     true,
			FrameRate: 0,
		},
		Log: LogConfig{
			Level: "info",
		},
		Terrain: TerrainConfig{
			ScaleX:            3000,
			ScaleZ:            3000,
			Resolution:        300,
			Octaves:           np.Octaves,
			Persistence:       np.Persistence,
			Lacunarity:        np.Lacunarity,
			PeakHeight:        np.PeakHeight,
			Repeat:            0,
			Noise:             "perlin",
			Workers:           0,
			GroundMargin:      50,
			ReferenceAltitude: 300,
		},
		Spawner: SpawnerConfig{
			HeightThreshold:  so.HeightThreshold,
			CellSize:         so.CellSize,
			SpawnRadius:      so.SpawnRadius,
			DespawnRadius:    so.DespawnRadius,
			SpawnProbability: so.SpawnProbability,
			SinkDepth:        so.SinkDepth,
			PropScale:        []float32{1, 1, 1},
		},
		Camera: CameraConfig{
			Position:    co.Position[:],
			Front:       co.Front[:],
			Speed:       co.Speed,
			Sensitivity: co.Sensitivity,
			Gravity:     co.Gravity,
			FOV:         co.FOV,
			Near:        co.Near,
			Far:         co.Far,
		},
		Scene: SceneConfig{
			LightPosition: []float32{1000, 2000, 500},
			ClearColor:    []float32{0.7, 0.4, 0.5, 1},
			ShadowMapSize: 2048,
		},
	}
}

// LoadConfig loads the configuration from a file. A missing or malformed
// file yields the defaults together with the error.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return config, fmt.Errorf("config file not found, using defaults: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("error parsing config: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error serializing config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Validate reports every structural problem in the configuration
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, args...)...))
	}

	t := c.Terrain
	if t.Resolution < 2 {
		fail("terrain.resolution must be >= 2, got %d", t.Resolution)
	}
	if t.ScaleX <= 0 || t.ScaleZ <= 0 {
		fail("terrain.scale_x and scale_z must be positive")
	}
	if t.Octaves < 1 {
		fail("terrain.octaves must be >= 1, got %d", t.Octaves)
	}
	if t.Persistence < 0 {
		fail("terrain.persistence must be >= 0, got %v", t.Persistence)
	}
	if t.Repeat < 0 || t.Repeat > noise.MaxRepeat {
		fail("terrain.repeat must be in [0,%d], got %d", noise.MaxRepeat, t.Repeat)
	}
	if t.Workers < 0 {
		fail("terrain.workers must be >= 0, got %d", t.Workers)
	}
	switch t.Noise {
	case "", "perlin":
	case "simplex", "opensimplex":
		if t.Repeat > 0 {
			fail("terrain.repeat must be 0 for %s noise, got %d", t.Noise, t.Repeat)
		}
	default:
		fail("terrain.noise must be perlin or simplex, got %q", t.Noise)
	}

	s := c.Spawner
	if s.CellSize <= 0 {
		fail("spawner.cell_size must be positive, got %v", s.CellSize)
	}
	if s.SpawnRadius < 0 || s.DespawnRadius < s.SpawnRadius {
		fail("spawner.despawn_radius (%v) must be >= spawn_radius (%v) >= 0", s.DespawnRadius, s.SpawnRadius)
	}
	if s.SpawnProbability < 0 || s.SpawnProbability > 1 {
		fail("spawner.spawn_probability must be in [0,1], got %v", s.SpawnProbability)
	}
	if len(s.PropScale) != 0 && len(s.PropScale) != 3 {
		fail("spawner.prop_scale needs 3 components")
	}

	if len(c.Camera.Position) != 3 || len(c.Camera.Front) != 3 {
		fail("camera.position and camera.front need 3 components")
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		fail("camera.far must exceed camera.near > 0")
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		fail("window size must be positive")
	}
	if c.Scene.ShadowMapSize <= 0 {
		fail("scene.shadow_map_size must be positive, got %d", c.Scene.ShadowMapSize)
	}

	return errors.Join(errs...)
}

// NoiseParams returns the octave parameters of the terrain section
func (t TerrainConfig) NoiseParams() noise.Params {
	return noise.Params{
		Octaves:     t.Octaves,
		Persistence: t.Persistence,
		Lacunarity:  t.Lacunarity,
		PeakHeight:  t.PeakHeight,
	}
}

// Scale returns the terrain extent as a vector
func (t TerrainConfig) Scale() mgl32.Vec3 {
	return mgl32.Vec3{t.ScaleX, 0, t.ScaleZ}
}

// Options converts the spawner section
func (s SpawnerConfig) Options() spawn.Options {
	return spawn.Options{
		HeightThreshold:  s.HeightThreshold,
		CellSize:         s.CellSize,
		SpawnRadius:      s.SpawnRadius,
		DespawnRadius:    s.DespawnRadius,
		SpawnProbability: s.SpawnProbability,
		Seed:             s.Seed,
		SinkDepth:        s.SinkDepth,
		PropScale:        vec3(s.PropScale, mgl32.Vec3{1, 1, 1}),
	}
}

// Options converts the camera section for a window of the given aspect
func (c CameraConfig) Options(aspect float32) camera.Options {
	def := camera.DefaultOptions()
	return camera.Options{
		Position:    vec3(c.Position, def.Position),
		WorldUp:     def.WorldUp,
		Front:       vec3(c.Front, def.Front),
		Speed:       c.Speed,
		Sensitivity: c.Sensitivity,
		Gravity:     c.Gravity,
		FOV:         c.FOV,
		Near:        c.Near,
		Far:         c.Far,
		Aspect:      aspect,
		FlightMode:  c.FlightMode,
	}
}

// LightPos returns the light position
func (s SceneConfig) LightPos() mgl32.Vec3 {
	return vec3(s.LightPosition, mgl32.Vec3{1000, 2000, 500})
}

// Clear returns the clear colour
func (s SceneConfig) Clear() mgl32.Vec4 {
	if len(s.ClearColor) != 4 {
		return mgl32.Vec4{0.7, 0.4, 0.5, 1}
	}
	return mgl32.Vec4{s.ClearColor[0], s.ClearColor[1], s.ClearColor[2], s.ClearColor[3]}
}

func vec3(v []float32, def mgl32.Vec3) mgl32.Vec3 {
	if len(v) != 3 {
		return def
	}
	return mgl32.Vec3{v[0], v[1], v[2]}
}
