package secboard

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("SECBOARD_API_URL", "")
	t.Setenv("SECBOARD_STATE_DIR", t.TempDir())

	var s Settings
	require.NoError(t, LoadSettings("", &s))
	assert.Equal(t, DefaultBaseURL, s.BaseURL)
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	t.Setenv("SECBOARD_API_URL", "http://dash.internal:9000/api")
	t.Setenv("SECBOARD_STATE_DIR", t.TempDir())

	var s Settings
	require.NoError(t, LoadSettings("", &s))
	assert.Equal(t, "http://dash.internal:9000/api", s.BaseURL)
}

func TestLoadSettingsFile(t *testing.T) {
	t.Setenv("SECBOARD_API_URL", "http://ignored.example/api")

	dir := t.TempDir()
	fpath := path.Join(dir, "config.yaml")
	conf := "base_url: http://file.example/api\nstate_dir: " + dir + "\n"
	require.NoError(t, os.WriteFile(fpath, []byte(conf), 0600))

	var s Settings
	require.NoError(t, LoadSettings(fpath, &s))
	// file values win over the environment
	assert.Equal(t, "http://file.example/api", s.BaseURL)
	assert.Equal(t, path.Join(dir, "snapshots.db"), s.SnapshotDB())
}

func TestLoadSettingsCreatesStateDir(t *testing.T) {
	dir := path.Join(t.TempDir(), "nested", "state")
	t.Setenv("SECBOARD_API_URL", "")
	t.Setenv("SECBOARD_STATE_DIR", dir)

	var s Settings
	require.NoError(t, LoadSettings("", &s))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
