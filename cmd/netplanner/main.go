package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/joshharrison/netplanner/internal/activity"
	"github.com/joshharrison/netplanner/internal/claude"
	"github.com/joshharrison/netplanner/internal/config"
	"github.com/joshharrison/netplanner/internal/engine"
	"github.com/joshharrison/netplanner/internal/records"
	"github.com/joshharrison/netplanner/internal/reporter"
	"github.com/joshharrison/netplanner/internal/server"
	"github.com/joshharrison/netplanner/internal/ui"
)

var (
	flagConfig   string
	flagJSON     bool
	flagLogLevel string
	flagPolicy   string
	flagUnit     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "netplanner",
		Short: "Critical path and PERT scheduling for project networks",
		Long: `Netplanner reads a list of activities with durations (or three-point
estimates) and predecessors, then computes the project schedule: earliest and
latest times, total and free float, every critical path, the PERT completion
distribution and the activity-on-arrow network.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "Duration policy: normalize or strict")
	rootCmd.PersistentFlags().StringVar(&flagUnit, "unit", "", "Time unit label (default: days)")

	rootCmd.AddCommand(computeCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(sampleCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(inferDepsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings builds the effective configuration: defaults, config file,
// environment, then global flags.
func loadSettings() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, nil, err
	}
	if flagPolicy != "" {
		cfg.Engine.Policy = flagPolicy
	}
	if flagUnit != "" {
		cfg.Output.TimeUnit = flagUnit
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, cfg.Log.Logger(os.Stderr), nil
}

// loadProject imports a project file and reports skipped records on stderr.
func loadProject(path string, logger *slog.Logger) ([]activity.Activity, error) {
	report, err := records.LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, msg := range report.Messages() {
		fmt.Fprintf(os.Stderr, "  %s %s\n", ui.Yellow("⏭️  SKIP:"), msg)
	}
	logger.Debug("Project loaded", "path", path, "activities", len(report.Activities), "skipped", report.Skipped)
	return report.Activities, nil
}

// computeProject loads and schedules a project file.
func computeProject(path string) (*engine.Result, config.Config, error) {
	cfg, logger, err := loadSettings()
	if err != nil {
		return nil, cfg, err
	}
	acts, err := loadProject(path, logger)
	if err != nil {
		return nil, cfg, err
	}
	res := engine.Compute(acts, cfg.Engine.Options())
	logger.Debug("Schedule computed", "method", res.Method, "errors", len(res.Errors), "warnings", len(res.Warnings))
	return res, cfg, nil
}

func newReporter(res *engine.Result, cfg config.Config) *reporter.Reporter {
	return reporter.New(res, reporter.Options{
		Unit:       cfg.Output.TimeUnit,
		Precision:  cfg.Output.Precision,
		GanttWidth: cfg.Output.GanttWidth,
	})
}

// requireSchedule prints the issues of a failed result and turns them into
// an error.
func requireSchedule(rpt *reporter.Reporter) error {
	if rpt.Result.OK() {
		return nil
	}
	rpt.PrintIssues(os.Stderr)
	return fmt.Errorf("project has %d error(s); no schedule computed", len(rpt.Result.Errors))
}

func computeCmd() *cobra.Command {
	var (
		flagDeadline   float64
		flagConfidence float64
	)

	cmd := &cobra.Command{
		Use:   "compute <file>",
		Short: "Compute the schedule, floats and critical paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, cfg, err := computeProject(args[0])
			if err != nil {
				return err
			}
			if flagConfidence == 0 {
				flagConfidence = cfg.Output.Confidence
			}
			var deadline *float64
			if cmd.Flags().Changed("deadline") {
				deadline = &flagDeadline
			}

			if flagJSON {
				out := server.ComputeResponse{Result: res}
				if d := res.Distribution; d != nil && res.OK() {
					if deadline != nil {
						p := d.Probability(*deadline)
						out.Probability = &p
					}
					q, err := d.Quantile(flagConfidence)
					if err != nil {
						return err
					}
					out.Quantile = &q
				}
				if err := outputJSON(out); err != nil {
					return err
				}
				if !res.OK() {
					return fmt.Errorf("project has %d error(s)", len(res.Errors))
				}
				return nil
			}

			rpt := newReporter(res, cfg)
			if err := requireSchedule(rpt); err != nil {
				return err
			}
			rpt.PrintIssues(os.Stdout)
			rpt.PrintSummary(os.Stdout)
			rpt.PrintSchedule(os.Stdout)
			rpt.PrintCriticalPaths(os.Stdout)
			return rpt.PrintDistribution(os.Stdout, deadline, flagConfidence)
		},
	}

	cmd.Flags().Float64Var(&flagDeadline, "deadline", 0, "Report the probability of finishing by this time (PERT)")
	cmd.Flags().Float64Var(&flagConfidence, "confidence", 0, "Report the duration met with this probability (PERT, default from config)")

	return cmd
}

func exportCmd() *cobra.Command {
	var flagOutput string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the computed schedule as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, cfg, err := computeProject(args[0])
			if err != nil {
				return err
			}
			if err := requireSchedule(newReporter(res, cfg)); err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := records.WriteCSV(&buf, res); err != nil {
				return err
			}
			return writeOutput(flagOutput, buf.Bytes(), fmt.Sprintf("%d activities", len(res.Activities)))
		},
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func vizCmd() *cobra.Command {
	var (
		flagFormat string
		flagOutput string
	)

	cmd := &cobra.Command{
		Use:   "viz <file>",
		Short: "Visualize the activity network",
		Long: `Renders the computed network. Formats:
  ascii  activities grouped into waves by earliest start
  gantt  ASCII Gantt chart with float
  dot    activity-on-node graph for Graphviz
  aoa    activity-on-arrow network for Graphviz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, cfg, err := computeProject(args[0])
			if err != nil {
				return err
			}
			rpt := newReporter(res, cfg)
			if err := requireSchedule(rpt); err != nil {
				return err
			}

			var buf bytes.Buffer
			switch flagFormat {
			case "ascii":
				rpt.PrintWaves(&buf)
			case "gantt":
				rpt.PrintGantt(&buf)
			case "dot":
				err = rpt.WriteDOT(&buf)
			case "aoa":
				err = rpt.WriteAOADOT(&buf)
			default:
				return fmt.Errorf("unknown format %q (use ascii, gantt, dot or aoa)", flagFormat)
			}
			if err != nil {
				return err
			}
			return writeOutput(flagOutput, buf.Bytes(), flagFormat)
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format: ascii, gantt, dot, aoa")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func sampleCmd() *cobra.Command {
	var flagFormat string

	cmd := &cobra.Command{
		Use:       "sample [name]",
		Short:     "Print a built-in sample project",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: records.SampleNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "pert"
			if len(args) == 1 {
				name = args[0]
			}
			acts, err := records.Sample(name)
			if err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(server.ExportRequest{Activities: acts})
			}
			switch flagFormat {
			case "csv":
				return records.WriteActivities(os.Stdout, acts)
			case "yaml":
				data, err := records.MarshalYAML(acts)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			default:
				return fmt.Errorf("unknown format %q (use csv or yaml)", flagFormat)
			}
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "csv", "Output format: csv, yaml")

	return cmd
}

func serveCmd() *cobra.Command {
	var flagAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduling HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadSettings()
			if err != nil {
				return err
			}
			if flagAddr != "" {
				cfg.Server.Addr = flagAddr
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gin.SetMode(gin.ReleaseMode)
			ui.PrintBanner(os.Stderr)
			fmt.Fprintf(os.Stderr, "🌐 Listening on %s\n", ui.Bold(cfg.Server.Addr))

			return server.New(cfg, logger).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, :8080)")

	return cmd
}

func inferDepsCmd() *cobra.Command {
	var (
		flagApply    bool
		flagModel    string
		flagOutput   string
		flagFromFile string
	)

	cmd := &cobra.Command{
		Use:   "infer-deps <file>",
		Short: "Use Claude to infer missing predecessors from activity names",
		Long: `Sends the project's activities to Claude and infers precedence edges.
Edges naming unknown activities, self edges, edges already present and edges
that would create a cycle are skipped. By default runs in dry-run mode; use
--apply to write the updated project.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadSettings()
			if err != nil {
				return err
			}
			acts, err := loadProject(args[0], logger)
			if err != nil {
				return err
			}
			if len(acts) == 0 {
				return fmt.Errorf("no activities found in %s", args[0])
			}

			var result *claude.InferResult
			if flagFromFile != "" {
				data, err := os.ReadFile(flagFromFile)
				if err != nil {
					return fmt.Errorf("read from-file: %w", err)
				}
				result, err = claude.ParseResult(string(data))
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "📂 Loaded %s edges from %s\n", ui.Bold(len(result.Edges)), ui.Dim(flagFromFile))
			} else {
				model := flagModel
				if model == "" {
					model = cfg.Claude.Model
				}
				client, err := claude.NewClient(os.Getenv(cfg.Claude.APIKeyEnv), model)
				if err != nil {
					return err
				}

				ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				fmt.Fprintf(os.Stderr, "🔍 Sending %s activities to Claude for predecessor inference...\n", ui.Bold(len(acts)))
				result, err = client.InferPredecessors(ctx, claude.Summaries(acts))
				if err != nil {
					return fmt.Errorf("infer predecessors: %w", err)
				}
			}

			accepted, rejected := claude.Filter(acts, result.Edges)
			logger.Debug("Inferred edges filtered", "proposed", len(result.Edges), "accepted", len(accepted))

			if flagJSON && !flagApply {
				return outputJSON(struct {
					Edges    []claude.Edge     `json:"edges"`
					Rejected []claude.Rejected `json:"rejected"`
					Summary  string            `json:"summary"`
				}{Edges: accepted, Rejected: rejected, Summary: result.Summary})
			}

			for _, r := range rejected {
				fmt.Fprintf(os.Stderr, "  %s %s <- %s: %s\n", ui.Yellow("⏭️  SKIP:"), r.Edge.Activity, r.Edge.Predecessor, r.Reason)
			}
			fmt.Fprintf(os.Stderr, "\n🔗 Inferred %s predecessors (%d from Claude, %d after validation):\n\n",
				ui.Bold(len(accepted)), len(result.Edges), len(accepted))
			for _, e := range accepted {
				fmt.Fprintf(os.Stderr, "  %s %s after %s  %s\n", ui.Cyan("→"), ui.BoldMagenta(e.Activity), ui.BoldMagenta(e.Predecessor), ui.Dim(e.Reason))
			}
			if result.Summary != "" {
				fmt.Fprintf(os.Stderr, "\n💡 %s %s\n", ui.BoldWhite("Summary:"), result.Summary)
			}

			if !flagApply {
				fmt.Fprintf(os.Stderr, "\n🎯 %s\n", ui.Yellow("Dry run: use --apply to write the updated project."))
				return nil
			}

			updated := claude.Apply(acts, accepted)
			before := engine.Compute(acts, cfg.Engine.Options())
			after := engine.Compute(updated, cfg.Engine.Options())
			if before.OK() && after.OK() {
				fmt.Fprintf(os.Stderr, "\n⏱️  Project duration: %.*f → %s %s\n", cfg.Output.Precision, before.ProjectDuration,
					ui.Bold(fmt.Sprintf("%.*f", cfg.Output.Precision, after.ProjectDuration)), cfg.Output.TimeUnit)
			}

			data, err := encodeProject(updated, flagOutput)
			if err != nil {
				return err
			}
			return writeOutput(flagOutput, data, fmt.Sprintf("%d activities", len(updated)))
		},
	}

	cmd.Flags().BoolVar(&flagApply, "apply", false, "Write the project with inferred predecessors (default: dry-run)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Claude model to use (default from config)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file for --apply; .yaml/.yml writes YAML, anything else CSV (default: stdout)")
	cmd.Flags().StringVar(&flagFromFile, "from-file", "", "Load inferred edges from a JSON file instead of calling Claude")

	return cmd
}

// encodeProject serializes activities in the format implied by path.
func encodeProject(acts []activity.Activity, path string) ([]byte, error) {
	if flagJSON {
		return json.MarshalIndent(server.ExportRequest{Activities: acts}, "", "  ")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return records.MarshalYAML(acts)
	default:
		var buf bytes.Buffer
		if err := records.WriteActivities(&buf, acts); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte, what string) error {
	if path == "" {
		_, err := io.Copy(os.Stdout, bytes.NewReader(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s to %s\n", what, ui.Dim(path))
	return nil
}
