package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andperf/andperf/internal/constants"
)

func TestLoader_SaveAndLoad(t *testing.T) {
	loader := NewLoaderAt(t.TempDir())

	config := DefaultConfig()
	config.App = "com.example.app"
	config.ADB.Serial = "emulator-5554"
	config.Sampling.FPSInterval = 5 * time.Second

	require.NoError(t, loader.Save(config))
	assert.FileExists(t, loader.Path())

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestLoader_LoadNotExists(t *testing.T) {
	loader := NewLoaderAt(t.TempDir())

	config, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
	assert.Equal(t, SchemaVersion, config.Version)
	assert.Empty(t, config.App)
}

func TestLoader_LoadPartialFile(t *testing.T) {
	home := t.TempDir()
	loader := NewLoaderAt(home)

	path := loader.Path()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("app: com.example.app\n"), 0644))

	config, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "com.example.app", config.App)
	assert.Equal(t, constants.DefaultADBPath, config.ADB.Path, "defaults fill missing keys")
	assert.Equal(t, constants.DefaultStatInterval, config.Sampling.StatInterval)
}

func TestLoader_LoadInvalidYAML(t *testing.T) {
	loader := NewLoaderAt(t.TempDir())

	path := loader.Path()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("app: [unterminated\n"), 0644))

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	loader := NewLoaderAt(t.TempDir())

	config := DefaultConfig()
	config.App = "com.example.file"
	require.NoError(t, loader.Save(config))

	t.Setenv("ANDPERF_APP", "com.example.env")
	t.Setenv("ANDPERF_SERIAL", "R58M123")

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "com.example.env", loaded.App)
	assert.Equal(t, "R58M123", loaded.ADB.Serial)
}

func TestLoader_SaveRejectsInvalid(t *testing.T) {
	loader := NewLoaderAt(t.TempDir())

	config := DefaultConfig()
	config.Logging.Level = "loud"

	require.Error(t, loader.Save(config))
	assert.NoFileExists(t, loader.Path())
}

func TestNewLoader_ConfigEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ANDPERF_CONFIG", dir)

	loader := NewLoader()
	assert.Equal(t, filepath.Join(dir, constants.DefaultDir, constants.ConfigFile), loader.Path())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "sdk/systrace.py"), ExpandHome("~/sdk/systrace.py"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "/opt/systrace.py", ExpandHome("/opt/systrace.py"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}

func TestLoader_LoadFileIgnoresEnv(t *testing.T) {
	loader := NewLoaderAt(t.TempDir())
	t.Setenv("ANDPERF_APP", "com.example.env")

	config, err := loader.LoadFile()
	require.NoError(t, err)
	assert.Empty(t, config.App)

	config, err = loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "com.example.env", config.App)
}
