package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Another0Noob/comictag/internal/comicinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comictag.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Zero(t, cfg.Batch.Throttle)
	assert.True(t, cfg.Metadata.IsEmpty())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[log]
level = DEBUG

[batch]
throttle = 2.5
replace_existing = true
delete_converted_rar = yes

[metadata]
publisher = Image Comics
language = Japanese
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2.5, cfg.Batch.Throttle)
	assert.True(t, cfg.Batch.ReplaceExisting)
	assert.True(t, cfg.Batch.DeleteConvertedRar)

	v, ok := cfg.Metadata.Get(comicinfo.Publisher)
	require.True(t, ok)
	assert.Equal(t, "Image Comics", v.AsText())
	v, _ = cfg.Metadata.Get(comicinfo.LanguageISO)
	assert.Equal(t, "ja", v.AsText())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad level", "[log]\nlevel = loud\n", "Level"},
		{"negative throttle", "[batch]\nthrottle = -1\n", "Throttle"},
		{"throttle not a number", "[batch]\nthrottle = fast\n", "throttle"},
		{"bad bool", "[batch]\nreplace_existing = perhaps\n", "replace_existing"},
		{"unknown metadata key", "[metadata]\nseriez = x\n", "did you mean Series?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	assert.Error(t, err)
}
