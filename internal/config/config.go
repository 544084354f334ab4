// Package config loads batch-run configuration from TOML. A missing file
// is not an error: callers get the defaults, which run the synthetic
// backend over a metapelite heating path.
// See design doc Section 7.
package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bknight1/gtpath/internal/magemin"
)

// Solver backends.
const (
	BackendBridge = "bridge"
	BackendSynth  = "synth"
)

// Config is the full batch-run configuration.
type Config struct {
	Solver SolverConfig `toml:"solver"`
	System SystemConfig `toml:"system"`
	Path   PathConfig   `toml:"path"`
	Grid   GridConfig   `toml:"grid"`
	Output OutputConfig `toml:"output"`
}

// SolverConfig selects and parameterizes the equilibrium backend.
type SolverConfig struct {
	Backend        string `toml:"backend"`         // bridge or synth
	Addr           string `toml:"addr"`            // bridge daemon base URL
	TimeoutSeconds int    `toml:"timeout_seconds"` // bridge round-trip budget
	Seed           int64  `toml:"seed"`            // synth field seed
}

// SystemConfig describes the rock being tracked.
type SystemConfig struct {
	Oxides      []string  `toml:"oxides"`
	Bulk        []float64 `toml:"bulk"`
	Basis       string    `toml:"basis"`
	Phase       string    `toml:"phase"`
	Fractionate bool      `toml:"fractionate"`
}

// PathConfig is a linear P-T path, endpoints included.
type PathConfig struct {
	StartP float64 `toml:"start_p"` // kbar
	StartT float64 `toml:"start_t"` // °C
	EndP   float64 `toml:"end_p"`
	EndT   float64 `toml:"end_t"`
	Steps  int     `toml:"steps"`
}

// GridConfig is a rectangular P-T window.
type GridConfig struct {
	MinP float64 `toml:"min_p"`
	MaxP float64 `toml:"max_p"`
	NP   int     `toml:"n_p"`
	MinT float64 `toml:"min_t"`
	MaxT float64 `toml:"max_t"`
	NT   int     `toml:"n_t"`
}

// OutputConfig says where results go.
type OutputConfig struct {
	Database string `toml:"database"`
}

// Default returns the configuration used when no file is given: the
// seeded synthetic backend, the average metapelite bulk on the molar
// basis, and a prograde path crossing the garnet-in boundary.
func Default() Config {
	return Config{
		Solver: SolverConfig{
			Backend:        BackendSynth,
			Addr:           "http://localhost:8787",
			TimeoutSeconds: 300,
			Seed:           1,
		},
		System: SystemConfig{
			Oxides:      append([]string(nil), magemin.MetapeliteOxides...),
			Bulk:        append([]float64(nil), magemin.DefaultBulk...),
			Basis:       string(magemin.BasisMol),
			Phase:       "g",
			Fractionate: true,
		},
		Path: PathConfig{
			StartP: 4, StartT: 450,
			EndP: 9, EndT: 670,
			Steps: 32,
		},
		Grid: GridConfig{
			MinP: 2, MaxP: 12, NP: 16,
			MinT: 400, MaxT: 800, NT: 16,
		},
		Output: OutputConfig{
			Database: "gtpath.db",
		},
	}
}

// Load reads a TOML file over the defaults. An empty path skips the file
// entirely; values the file omits keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions before any solver
// work starts.
func (c *Config) Validate() error {
	switch c.Solver.Backend {
	case BackendBridge:
		if c.Solver.Addr == "" {
			return fmt.Errorf("config: bridge backend needs solver.addr")
		}
	case BackendSynth:
	default:
		return fmt.Errorf("config: unknown solver backend %q", c.Solver.Backend)
	}

	if _, err := magemin.ParseBasis(c.System.Basis); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(c.System.Oxides) == 0 {
		return fmt.Errorf("config: system.oxides is empty")
	}
	if len(c.System.Bulk) != len(c.System.Oxides) {
		return fmt.Errorf("config: %d bulk entries for %d oxides",
			len(c.System.Bulk), len(c.System.Oxides))
	}
	if c.System.Phase == "" {
		return fmt.Errorf("config: system.phase is empty")
	}

	if c.Path.Steps < 1 {
		return fmt.Errorf("config: path.steps must be at least 1, got %d", c.Path.Steps)
	}
	if c.Grid.NP < 1 || c.Grid.NT < 1 {
		return fmt.Errorf("config: grid axes need at least 1 point, got %dx%d", c.Grid.NP, c.Grid.NT)
	}

	if c.Output.Database == "" {
		return fmt.Errorf("config: output.database is empty")
	}
	return nil
}

// Basis returns the parsed composition basis. Call Validate first.
func (c *Config) Basis() magemin.Basis {
	return magemin.Basis(c.System.Basis)
}
