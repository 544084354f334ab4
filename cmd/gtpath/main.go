// Command gtpath traces garnet growth along metamorphic pressure-temperature
// paths and archives the results.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/bknight1/gtpath/internal/config"
	"github.com/bknight1/gtpath/internal/engine"
	"github.com/bknight1/gtpath/internal/magemin"
	"github.com/bknight1/gtpath/internal/persistence"
	"github.com/bknight1/gtpath/internal/synth"
)

func main() {
	configFlag := pflag.StringP("config", "c", "", "Path to a TOML config file")
	modeFlag := pflag.StringP("mode", "m", "path", "Run mode: point, path or grid")
	pressureFlag := pflag.Float64P("pressure", "p", 6, "Pressure in kbar (point mode)")
	temperatureFlag := pflag.Float64P("temperature", "t", 600, "Temperature in °C (point mode)")
	backendFlag := pflag.String("backend", "", "Override the solver backend (bridge or synth)")
	dbFlag := pflag.String("db", "", "Override the archive database path")
	noArchiveFlag := pflag.Bool("no-archive", false, "Skip writing the run to the archive")
	verboseFlag := pflag.BoolP("verbose", "v", false, "Log every path step")
	pflag.Parse()

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Flag and environment overrides sit on top of the file.
	if *backendFlag != "" {
		cfg.Solver.Backend = *backendFlag
	}
	if addr := os.Getenv("MAGEMIN_ADDR"); addr != "" {
		cfg.Solver.Addr = addr
	}
	if *dbFlag != "" {
		cfg.Output.Database = *dbFlag
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var solver engine.Solver
	switch cfg.Solver.Backend {
	case config.BackendBridge:
		solver = magemin.NewClient(cfg.Solver.Addr, time.Duration(cfg.Solver.TimeoutSeconds)*time.Second)
		slog.Info("using MAGEMin bridge", "addr", cfg.Solver.Addr)
	case config.BackendSynth:
		solver = synth.NewField(cfg.Solver.Seed)
		slog.Info("using synthetic field", "seed", cfg.Solver.Seed)
	}

	tracker := engine.NewTracker(solver)
	tracker.Phase = cfg.System.Phase

	var db *persistence.DB
	if !*noArchiveFlag {
		db, err = persistence.Open(cfg.Output.Database)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.Output.Database)
	}

	switch *modeFlag {
	case "point":
		runPoint(tracker, cfg, db, *pressureFlag, *temperatureFlag)
	case "path":
		runPath(tracker, cfg, db)
	case "grid":
		runGrid(tracker, cfg, db)
	default:
		slog.Error("unknown mode", "mode", *modeFlag)
		os.Exit(1)
	}
}

func runPoint(tracker *engine.Tracker, cfg config.Config, db *persistence.DB, p, t float64) {
	res, err := tracker.EvaluatePoint(p, t, cfg.System.Bulk, cfg.System.Oxides, cfg.Basis())
	if err != nil {
		slog.Error("point run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Equilibrium at %.2f kbar / %.1f °C:\n", res.P, res.T)
	fmt.Printf("  %s fraction  mol %.4f  wt %.4f  vol %.4f\n",
		cfg.System.Phase, res.MolFrac, res.WtFrac, res.VolFrac)
	for _, em := range tracker.EndMembers {
		fmt.Printf("  %-5s %.4f\n", em, res.EndMembers[em])
	}
	fmt.Printf("  Mg %.4f  Mn %.4f  Fe %.4f  Ca %.4f\n",
		res.Elements.Mg, res.Elements.Mn, res.Elements.Fe, res.Elements.Ca)

	if db == nil {
		return
	}
	run := persistence.NewRun(persistence.KindPoint)
	fillRun(&run, cfg, 1, false)
	if err := db.SaveGridRun(run, []engine.PointResult{*res}); err != nil {
		slog.Error("archive failed", "error", err)
		os.Exit(1)
	}
	db.SaveMeta("last_run", run.ID)
	fmt.Printf("Archived run %s.\n", run.ID)
}

func runPath(tracker *engine.Tracker, cfg config.Config, db *persistence.DB) {
	points := engine.PathPoints(
		engine.Point{P: cfg.Path.StartP, T: cfg.Path.StartT},
		engine.Point{P: cfg.Path.EndP, T: cfg.Path.EndT},
		cfg.Path.Steps,
	)

	slog.Info("tracing path",
		"from", fmt.Sprintf("%.1f kbar / %.0f °C", cfg.Path.StartP, cfg.Path.StartT),
		"to", fmt.Sprintf("%.1f kbar / %.0f °C", cfg.Path.EndP, cfg.Path.EndT),
		"steps", len(points),
		"fractionate", cfg.System.Fractionate,
	)

	tracker.OnStep = func(rec engine.GrowthRecord) {
		slog.Debug("step",
			"n", rec.Step,
			"p", fmt.Sprintf("%.2f", rec.P),
			"t", fmt.Sprintf("%.1f", rec.T),
			"growth_mol", fmt.Sprintf("%.4f", rec.GrowthMol),
			"delta_mol", fmt.Sprintf("%.4f", rec.DeltaMol),
		)
	}

	start := time.Now()
	records, err := tracker.TrackPath(points, cfg.System.Bulk, cfg.System.Oxides, cfg.Basis(), cfg.System.Fractionate)
	if err != nil {
		slog.Error("path run failed", "error", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	if n := len(records); n > 0 {
		last := records[n-1]
		slog.Info("path complete",
			"steps", n,
			"final_growth_mol", fmt.Sprintf("%.4f", last.GrowthMol),
			"final_growth_wt", fmt.Sprintf("%.4f", last.GrowthWt),
			"elapsed", elapsed.Round(time.Millisecond),
		)
	}

	if db == nil {
		return
	}
	run := persistence.NewRun(persistence.KindPath)
	fillRun(&run, cfg, len(points), cfg.System.Fractionate)
	if err := db.SaveRun(run, records); err != nil {
		slog.Error("archive failed", "error", err)
		os.Exit(1)
	}
	db.SaveMeta("last_run", run.ID)
	fmt.Printf("Archived run %s: %s records in %s.\n",
		run.ID, humanize.Comma(int64(len(records))), elapsed.Round(time.Millisecond))
}

func runGrid(tracker *engine.Tracker, cfg config.Config, db *persistence.DB) {
	pAxis := engine.Linspace(cfg.Grid.MinP, cfg.Grid.MaxP, cfg.Grid.NP)
	tAxis := engine.Linspace(cfg.Grid.MinT, cfg.Grid.MaxT, cfg.Grid.NT)
	ps, ts := engine.GridPoints(pAxis, tAxis)

	slog.Info("evaluating grid",
		"p_axis", cfg.Grid.NP,
		"t_axis", cfg.Grid.NT,
		"points", len(ps),
	)

	start := time.Now()
	results, err := tracker.EvaluateGrid(ps, ts, cfg.System.Bulk, cfg.System.Oxides, cfg.Basis())
	if err != nil {
		slog.Error("grid run failed", "error", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	bearing := 0
	for _, r := range results {
		if r.MolFrac > 0 {
			bearing++
		}
	}
	slog.Info("grid complete",
		"points", len(results),
		"phase_present", bearing,
		"elapsed", elapsed.Round(time.Millisecond),
	)

	if db == nil {
		return
	}
	run := persistence.NewRun(persistence.KindGrid)
	fillRun(&run, cfg, len(results), false)
	if err := db.SaveGridRun(run, results); err != nil {
		slog.Error("archive failed", "error", err)
		os.Exit(1)
	}
	db.SaveMeta("last_run", run.ID)
	fmt.Printf("Archived run %s: %s grid points in %s.\n",
		run.ID, humanize.Comma(int64(len(results))), elapsed.Round(time.Millisecond))
}

func fillRun(run *persistence.Run, cfg config.Config, points int, fractionate bool) {
	run.Phase = cfg.System.Phase
	run.Basis = cfg.System.Basis
	run.Fractionate = fractionate
	run.Points = points
	run.Oxides = cfg.System.Oxides
	run.Bulk = cfg.System.Bulk
}
