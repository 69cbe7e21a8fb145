package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/quadfield/internal/cloud"
	"github.com/san-kum/quadfield/internal/config"
	"github.com/san-kum/quadfield/internal/control"
	"github.com/san-kum/quadfield/internal/metrics"
	"github.com/san-kum/quadfield/internal/sim"
	"github.com/san-kum/quadfield/internal/storage"
	"github.com/san-kum/quadfield/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	policy     string
	integrator string
	dt         float64
	duration   float64
	gain       float64
	seed       int64
	cloudFile  string
	// Ensemble parameters
	numRuns int
	jitter  float64
	// Output path for chart/render
	outPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quadfield",
		Short: "quadrotor obstacle avoidance with artificial potential fields",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".quadfield", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store the result",
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with interactive terminal visualization",
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	chartCmd := &cobra.Command{
		Use:   "chart",
		Short: "run a simulation and write an HTML report",
		RunE:  chartRun,
	}
	addScenarioFlags(chartCmd)
	chartCmd.Flags().StringVar(&outPath, "out", "quadfield.html", "output file")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "run a simulation and write a top-down PNG",
		RunE:  renderRun,
	}
	addScenarioFlags(renderCmd)
	renderCmd.Flags().StringVar(&outPath, "out", "quadfield.png", "output file")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "print a stored run's state table as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json",
		Short: "run a simulation and write the telemetry as JSON",
		RunE:  exportJSON,
	}
	addScenarioFlags(exportJSONCmd)
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output file (stdout when empty)")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storage.Open(dataDir)
			if err != nil {
				return err
			}
			defer st.Close()
			return st.Delete(args[0])
		},
	}

	policiesCmd := &cobra.Command{
		Use:   "policies",
		Short: "list injection policies",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range control.Policies() {
				fmt.Println(p.String())
			}
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run the scenario repeatedly with perturbed starts",
		RunE:  runEnsemble,
	}
	addScenarioFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of ensemble members")
	ensembleCmd.Flags().Float64Var(&jitter, "jitter", 0.2, "initial position perturbation stddev (m)")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, chartCmd, renderCmd,
		exportCSVCmd, exportJSONCmd, deleteCmd, policiesCmd, presetsCmd, ensembleCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	cmd.Flags().StringVar(&policy, "policy", "", "injection policy (velocity, force-pre, force-post)")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (euler, rk4)")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration")
	cmd.Flags().Float64Var(&gain, "gain", 0, "repulsive gain")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&cloudFile, "cloud", "", "obstacle cloud CSV (overrides the built-in wall)")
}

// loadScenario resolves preset, config file, and flag overrides, in that
// order of increasing precedence.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
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

	if cmd.Flags().Changed("policy") {
		cfg.Policy = policy
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("gain") {
		cfg.Field.Gain = gain
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("cloud") {
		cfg.Cloud.File = cloudFile
	}

	return cfg, cfg.Validate()
}

func loadCloud(cfg *config.Config) ([]r3.Vec, error) {
	if cfg.Cloud.File != "" {
		return cloud.LoadCSV(cfg.Cloud.File)
	}
	return cloud.Wall(cfg.Cloud.WallPoints, cfg.Seed), nil
}

func buildSimulator(cmd *cobra.Command) (*sim.Simulator, *config.Config, []float64, sim.Config, error) {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return nil, nil, nil, sim.Config{}, err
	}
	pts, err := loadCloud(cfg)
	if err != nil {
		return nil, nil, nil, sim.Config{}, err
	}
	s, x0, runCfg, err := sim.FromConfig(cfg, pts)
	if err != nil {
		return nil, nil, nil, sim.Config{}, err
	}
	s.AddMetric(metrics.NewControlEffort())
	s.AddMetric(metrics.NewPathLength())
	s.AddMetric(metrics.NewClearance(s.Grid(), cfg.Field.InfluenceRadius))
	return s, cfg, x0, runCfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	s, cfg, x0, runCfg, err := buildSimulator(cmd)
	if err != nil {
		return err
	}

	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Println("running simulation...")
	start := time.Now()

	result, err := s.Run(context.Background(), x0, runCfg)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	label := preset
	if label == "" {
		label = "custom"
	}
	runID, err := st.Save(label, cfg.Policy, cfg.Integrator, cfg.Dt, cfg.Duration, cfg.Seed, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("route complete: %v\n", result.Completed)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nMETRIC\tVALUE")
	for name, val := range result.Metrics {
		fmt.Fprintf(w, "%s\t%.6f\n", name, val)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	s, _, x0, runCfg, err := buildSimulator(cmd)
	if err != nil {
		return err
	}

	label := preset
	if label == "" {
		label = "quadfield"
	}
	return viz.Run(s, x0, runCfg.Dt, label)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tPOLICY\tTIME\tDURATION\tDT\tINTEG\tDONE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%v\n",
			run.ID,
			run.Label,
			run.Policy,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Completed,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cols, rows, err := st.LoadTable(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("policy: %s\n", meta.Policy)
	fmt.Printf("samples: %d\n\n", len(rows))

	captions := map[string]string{
		"x0": "position x",
		"x1": "position y",
		"x2": "position z (altitude)",
		"fx": "repulsive force x",
		"fy": "repulsive force y",
	}
	order := []string{"x0", "x1", "x2", "fx", "fy"}

	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}

	for _, col := range order {
		j, ok := index[col]
		if !ok {
			continue
		}
		data := make([]float64, len(rows))
		for i := range rows {
			data[i] = rows[i][j]
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(captions[col]),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func chartRun(cmd *cobra.Command, args []string) error {
	s, _, x0, runCfg, err := buildSimulator(cmd)
	if err != nil {
		return err
	}

	result, err := s.Run(context.Background(), x0, runCfg)
	if err != nil {
		return err
	}

	title := preset
	if title == "" {
		title = "quadfield run"
	}
	if err := viz.WriteHTML(outPath, title, result, s.Grid()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	s, _, x0, runCfg, err := buildSimulator(cmd)
	if err != nil {
		return err
	}

	result, err := s.Run(context.Background(), x0, runCfg)
	if err != nil {
		return err
	}

	title := preset
	if title == "" {
		title = "quadfield run"
	}
	if err := viz.RenderPNG(outPath, title, result, s.Grid(), s.Route().Waypoints()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	cols, rows, err := st.LoadTable(args[0])
	if err != nil {
		return err
	}

	for i, c := range cols {
		if i > 0 {
			fmt.Print(",")
		}
		fmt.Print(c)
	}
	fmt.Println()
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				fmt.Print(",")
			}
			fmt.Printf("%g", v)
		}
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	s, cfg, x0, runCfg, err := buildSimulator(cmd)
	if err != nil {
		return err
	}

	result, err := s.Run(context.Background(), x0, runCfg)
	if err != nil {
		return err
	}

	label := preset
	if label == "" {
		label = "custom"
	}
	if outPath == "" {
		return storage.ExportJSONStdout(label, cfg.Policy, cfg.Integrator, cfg.Dt, cfg.Duration, result)
	}
	if err := storage.ExportJSON(outPath, label, cfg.Policy, cfg.Integrator, cfg.Dt, cfg.Duration, result); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	pts, err := loadCloud(cfg)
	if err != nil {
		return err
	}

	ens, err := sim.NewEnsemble(cfg, pts, numRuns, jitter)
	if err != nil {
		return err
	}

	fmt.Printf("running %d perturbed simulations...\n", numRuns)
	start := time.Now()
	results, errs := ens.Run(context.Background())
	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTEPS\tDONE\tPEAK FORCE\tMEAN ACTIVE\tERROR")
	completed := 0
	for i, r := range results {
		errStr := ""
		if errs[i] != nil {
			errStr = errs[i].Error()
		}
		if r == nil {
			fmt.Fprintf(w, "%d\t-\t-\t-\t-\t%s\n", i, errStr)
			continue
		}
		if r.Completed {
			completed++
		}
		fmt.Fprintf(w, "%d\t%d\t%v\t%.3f\t%.1f\t%s\n",
			i, r.StepsTaken, r.Completed, r.PeakForce(), r.MeanActive(), errStr)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d/%d runs completed the route\n", completed, numRuns)
	return nil
}
