package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 300, cfg.Terrain.Resolution)
	assert.Equal(t, float32(3000), cfg.Terrain.ScaleX)
	assert.Equal(t, float32(-100), cfg.Spawner.HeightThreshold)
	assert.Equal(t, float32(150), cfg.Spawner.CellSize)
	assert.Equal(t, mgl32.Vec3{0, 300, 0}, cfg.Camera.Options(1).Position)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
terrain:
  resolution: 128
  octaves: 7
  noise: simplex
spawner:
  spawn_probability: 0.5
  prop_scale: [2, 3, 2]
camera:
  position: [10, 20, 30]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 128, cfg.Terrain.Resolution)
	assert.Equal(t, 7, cfg.Terrain.NoiseParams().Octaves)
	assert.Equal(t, 800.0, cfg.Terrain.NoiseParams().PeakHeight)
	assert.Equal(t, "simplex", cfg.Terrain.Noise)
	assert.Equal(t, float32(0.5), cfg.Spawner.Options().SpawnProbability)
	assert.Equal(t, mgl32.Vec3{2, 3, 2}, cfg.Spawner.Options().PropScale)
	assert.Equal(t, mgl32.Vec3{10, 20, 30}, cfg.Camera.Options(1.5).Position)
	assert.Equal(t, float32(1.5), cfg.Camera.Options(1.5).Aspect)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("terrain: [oops"), 0644))

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Terrain.Seed = 42
	cfg.Spawner.ResetOnTerrainChange = true
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Terrain.Resolution = 1
	cfg.Terrain.Octaves = 0
	cfg.Terrain.Repeat = 300
	cfg.Spawner.CellSize = 0
	cfg.Spawner.DespawnRadius = cfg.Spawner.SpawnRadius - 1
	cfg.Spawner.SpawnProbability = 1.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	for _, key := range []string{"resolution", "octaves", "repeat", "cell_size", "despawn_radius", "spawn_probability"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestValidateRejectsRepeatForSimplex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Terrain.Noise = "simplex"
	cfg.Terrain.Repeat = 16

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "terrain.repeat must be 0 for simplex")

	cfg.Terrain.Repeat = 0
	assert.NoError(t, cfg.Validate())

	cfg.Terrain.Noise = "perlin"
	cfg.Terrain.Repeat = 16
	assert.NoError(t, cfg.Validate())
}

func TestWatchDeliversValidReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := Watch(ctx, path, nil)
	require.NoError(t, err)

	// Invalid edits are skipped
	require.NoError(t, os.WriteFile(path, []byte("terrain:\n  resolution: 1\n"), 0644))
	time.Sleep(3 * reloadDelay)

	cfg := DefaultConfig()
	cfg.Terrain.Octaves = 9
	cfg.Terrain.Wireframe = true
	require.NoError(t, SaveConfig(cfg, path))

	select {
	case got := <-updates:
		assert.Equal(t, 9, got.Terrain.Octaves)
		assert.True(t, got.Terrain.Wireframe)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered")
	}

	cancel()
	for range updates {
	}
}
