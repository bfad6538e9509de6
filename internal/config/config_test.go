package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appsreg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_ResolvesRelativePaths(t *testing.T) {
	path := writeConfig(t, `
registry: https://intranet.example/data/app-links.json
timeout: 5s
bundled: scripts/default-apps.js
storage:
  backend: sqlite
  path: state/registry.db
export:
  dir: /srv/dist
updated_by: ops
`)
	dir := filepath.Dir(path)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://intranet.example/data/app-links.json", cfg.Registry)
	assert.Equal(t, filepath.Join(dir, "scripts", "default-apps.js"), cfg.Bundled)
	assert.Equal(t, StorageSQLite, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "state", "registry.db"), cfg.Storage.Path)
	assert.Equal(t, "/srv/dist", cfg.Export.Dir)
	assert.Equal(t, "ops", cfg.UpdatedBy)

	d, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}

func TestLoad_KeepsDefaultsForUnsetFields(t *testing.T) {
	path := writeConfig(t, "offline: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Offline)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, "15s", cfg.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":    "registry: [",
		"bad backend": "storage:\n  backend: redis\n",
		"bad timeout": "timeout: soon\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestTimeoutDuration_Empty(t *testing.T) {
	d, err := (&Config{Timeout: " "}).TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, d)
}
