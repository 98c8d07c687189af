package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/raghav-m/mdcore/internal/box"
	"github.com/raghav-m/mdcore/internal/compute"
	"github.com/raghav-m/mdcore/internal/config"
	"github.com/raghav-m/mdcore/internal/forces"
	"github.com/raghav-m/mdcore/internal/neighbor"
	"github.com/raghav-m/mdcore/internal/particle"
	"github.com/raghav-m/mdcore/internal/report"
	"github.com/raghav-m/mdcore/internal/sim"
	"github.com/raghav-m/mdcore/internal/storage"
	"github.com/raghav-m/mdcore/internal/watch"
)

var (
	dataDir    string
	configFile string
	preset     string

	nParticles int
	boxEdge    float64
	seed       int64
	rCut       float64
	rBuff      float64
	every      uint64
	strategy   string
	mode       string
	dt         float64
	steps      int
	sortEvery  int
	temp       float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mdcore",
		Short: "molecular dynamics engine with skin-buffered neighbor lists",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mdcore", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run an NVE simulation",
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "run with a live terminal view",
		RunE:  runWatch,
	}
	addConfigFlags(watchCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare neighbor list strategies",
		RunE:  runBench,
	}
	addConfigFlags(benchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run's energy series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, watchCmd, benchCmd, listCmd, plotCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a preset configuration")
	cmd.Flags().IntVar(&nParticles, "n", config.DefaultN, "number of particles")
	cmd.Flags().Float64Var(&boxEdge, "box", config.DefaultBoxEdge, "box edge length")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().Float64Var(&rCut, "r-cut", config.DefaultRCut, "interaction cutoff")
	cmd.Flags().Float64Var(&rBuff, "r-buff", config.DefaultRBuff, "skin buffer width")
	cmd.Flags().Uint64Var(&every, "every", 0, "minimum steps between rebuild checks")
	cmd.Flags().StringVar(&strategy, "strategy", "binned", "neighbor strategy (direct, unrolled, binned)")
	cmd.Flags().StringVar(&mode, "mode", "half", "storage mode (half, full)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().IntVar(&sortEvery, "sort-every", 0, "reorder particles by cell every N steps")
	cmd.Flags().Float64Var(&temp, "temperature", config.DefaultTemp, "initial temperature")
}

// resolveConfig merges preset, config file and flags: flags win over the
// file, the file wins over the preset.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("n") {
		cfg.N = nParticles
	}
	if cmd.Flags().Changed("box") {
		cfg.BoxEdge = boxEdge
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("r-cut") {
		cfg.RCut = rCut
	}
	if cmd.Flags().Changed("r-buff") {
		cfg.RBuff = rBuff
	}
	if cmd.Flags().Changed("every") {
		cfg.Every = every
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Strategy = strategy
	}
	if cmd.Flags().Changed("mode") {
		cfg.StorageMode = mode
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("sort-every") {
		cfg.SortEvery = sortEvery
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature = temp
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildSystem assembles particle data, neighbor list, forces and runner from
// a validated config.
func buildSystem(cfg *config.Config) (*sim.Runner, *neighbor.List, error) {
	pd, err := particle.NewLattice(cfg.N, box.NewCubic(cfg.BoxEdge), cfg.Temperature, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}

	nlist, err := neighbor.New(pd, cfg.RCut, cfg.RBuff)
	if err != nil {
		return nil, nil, err
	}
	if err := nlist.SetStrategy(cfg.Strategy); err != nil {
		return nil, nil, err
	}
	if cfg.StorageMode == "full" {
		nlist.SetStorageMode(neighbor.Full)
	}
	nlist.SetEvery(cfg.Every)

	lj, err := forces.NewLJ(pd, nlist, cfg.Epsilon, cfg.Sigma, cfg.RCut)
	if err != nil {
		return nil, nil, err
	}

	runner, err := sim.NewRunner(pd, nlist, lj, cfg.Dt)
	if err != nil {
		return nil, nil, err
	}
	runner.SortEvery = cfg.SortEvery
	runner.AddMetric(&sim.Temperature{})
	runner.AddMetric(&sim.MaxSpeed{})
	runner.AddMetric(&sim.MaxDisplacement{})
	return runner, nlist, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runner, nlist, err := buildSystem(cfg)
	if err != nil {
		return err
	}

	backend := compute.GetBackend()
	fmt.Printf("running %d particles for %d steps (%s backend)...\n", cfg.N, cfg.Steps, backend.Name())
	start := time.Now()

	result, err := runner.Run(context.Background(), cfg.Steps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary(result, nlist.Stats()))
	fmt.Println(report.EnergyPlot(result))
	fmt.Printf("\ncompleted in %v, saved as %s\n", elapsed.Round(time.Millisecond), runID)

	nlist.PrintStats(os.Stdout)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	runner, _, err := buildSystem(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(watch.NewModel(runner, cfg.Dt, cfg.Steps))
	_, err = p.Run()
	return err
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "strategy\tsteps\telapsed\tsteps/s\trebuilds\tdrift")

	for _, strat := range []string{"direct", "unrolled", "binned"} {
		cfg.Strategy = strat
		runner, nlist, err := buildSystem(cfg)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := runner.Run(context.Background(), cfg.Steps)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		nstats := nlist.Stats()
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\t%d\t%.2e\n",
			strat, result.StepsTaken, elapsed.Round(time.Millisecond),
			float64(result.StepsTaken)/elapsed.Seconds(),
			nstats.Updates+nstats.ForcedUpdates, result.EnergyDrift)
	}

	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs stored")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\ttimestamp\tn\tstrategy\tsteps\tdrift")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%.2e\n",
			run.ID, run.Timestamp.Format(time.RFC3339), run.N, run.Strategy, run.Steps, run.EnergyDrift)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	times, pe, ke, total, err := st.LoadEnergies(args[0])
	if err != nil {
		return err
	}
	if len(total) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\nn: %d  strategy: %s  samples: %d\n\n", meta.ID, meta.N, meta.Strategy, len(times))

	result := &sim.Result{Times: times, Potential: pe, Kinetic: ke, Total: total}
	fmt.Println(report.EnergyPlot(result))
	fmt.Println(report.EnergyBreakdown(result))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	times, pe, ke, total, err := st.LoadEnergies(args[0])
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.N = meta.N
	cfg.BoxEdge = meta.BoxEdge
	cfg.RCut = meta.RCut
	cfg.RBuff = meta.RBuff
	cfg.Strategy = meta.Strategy
	cfg.Dt = meta.Dt

	result := &sim.Result{
		Times:       times,
		Potential:   pe,
		Kinetic:     ke,
		Total:       total,
		Metrics:     meta.Metrics,
		StepsTaken:  meta.Steps,
		EnergyDrift: meta.EnergyDrift,
	}
	return storage.ExportJSON(os.Stdout, cfg, result)
}
