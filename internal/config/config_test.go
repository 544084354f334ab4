package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bknight1/gtpath/internal/magemin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gtpath.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendSynth, cfg.Solver.Backend)
	assert.Equal(t, magemin.BasisMol, cfg.Basis())
	assert.Len(t, cfg.System.Bulk, len(cfg.System.Oxides))
	assert.True(t, cfg.System.Fractionate)
}

func TestLoadEmptyPathKeepsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[solver]
backend = "bridge"
addr = "http://magemin:9100"
timeout_seconds = 60

[system]
basis = "wt"
fractionate = false

[path]
start_p = 3.0
start_t = 420.0
end_p = 11.0
end_t = 700.0
steps = 64

[output]
database = "runs/archive.db"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendBridge, cfg.Solver.Backend)
	assert.Equal(t, "http://magemin:9100", cfg.Solver.Addr)
	assert.Equal(t, 60, cfg.Solver.TimeoutSeconds)
	assert.Equal(t, magemin.BasisWt, cfg.Basis())
	assert.False(t, cfg.System.Fractionate)
	assert.Equal(t, 64, cfg.Path.Steps)
	assert.Equal(t, "runs/archive.db", cfg.Output.Database)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().System.Oxides, cfg.System.Oxides)
	assert.Equal(t, Default().Grid, cfg.Grid)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[system\nbasis = ")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown backend", func(c *Config) { c.Solver.Backend = "magic" }, "unknown solver backend"},
		{"bridge without addr", func(c *Config) { c.Solver.Backend = BackendBridge; c.Solver.Addr = "" }, "needs solver.addr"},
		{"bad basis", func(c *Config) { c.System.Basis = "volume" }, "basis"},
		{"no oxides", func(c *Config) { c.System.Oxides = nil; c.System.Bulk = nil }, "oxides is empty"},
		{"bulk mismatch", func(c *Config) { c.System.Bulk = c.System.Bulk[:3] }, "bulk entries"},
		{"no phase", func(c *Config) { c.System.Phase = "" }, "phase is empty"},
		{"zero steps", func(c *Config) { c.Path.Steps = 0 }, "path.steps"},
		{"empty grid", func(c *Config) { c.Grid.NT = 0 }, "grid axes"},
		{"no database", func(c *Config) { c.Output.Database = "" }, "database is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadValidatesFile(t *testing.T) {
	path := writeConfig(t, `
[system]
basis = "percent"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, magemin.ErrInvalidBasis)
}
