package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheApexWu/suzerain/internal/axes"
	"github.com/TheApexWu/suzerain/internal/behavioral"
	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/features"
	"github.com/TheApexWu/suzerain/internal/filelock"
	"github.com/TheApexWu/suzerain/internal/logger"
	"github.com/TheApexWu/suzerain/internal/models"
	"github.com/TheApexWu/suzerain/internal/simulation"
)

// NewAxesCommand creates the 'suzerain axes' command
func NewAxesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "axes",
		Short: "Check whether trust, sophistication and variance are independent",
		Long: `Axes computes one feature vector per session and reports Pearson and
Spearman correlations for each pair of axes, with scatter plots.

Sessions come from the logs directory, or with --simulated from every
built-in persona. The result is diagnostic and never changes a
classification.`,
		Args: cobra.NoArgs,
		RunE: runAxes,
	}

	cmd.Flags().String("logs-dir", "", "Claude Code projects directory (default from config)")
	cmd.Flags().String("project", "", "only use projects whose directory name contains this")
	cmd.Flags().Bool("simulated", false, "use synthetic persona sessions instead of logs")
	cmd.Flags().Int("sessions", 20, "sessions per persona with --simulated")
	cmd.Flags().Uint64("seed", 42, "random seed with --simulated")
	cmd.Flags().String("format", "markdown", "output format: markdown or html")
	cmd.Flags().StringP("output", "o", "", "write the report to this file")

	return cmd
}

func runAxes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)

	format, _ := cmd.Flags().GetString("format")
	if format != "markdown" && format != "html" {
		return fmt.Errorf("unknown format %q, must be markdown or html", format)
	}
	output, _ := cmd.Flags().GetString("output")

	var vectors []models.FeatureVector
	if simulated, _ := cmd.Flags().GetBool("simulated"); simulated {
		n, _ := cmd.Flags().GetInt("sessions")
		seed, _ := cmd.Flags().GetUint64("seed")
		vectors, err = simulatedVectors(cfg, n, seed)
	} else {
		vectors, err = loggedVectors(cmd, cfg, log)
	}
	if err != nil {
		return err
	}

	report := axes.NewValidator(cfg.Axes).Validate(vectors)
	log.LogDebug(fmt.Sprintf("axis validation over %d vectors (%d empty, %d without trust)",
		report.Vectors, report.Empty, report.TrustUndefined))

	var data []byte
	if format == "html" {
		if data, err = axes.RenderHTML(report); err != nil {
			return err
		}
	} else {
		data = []byte(axes.RenderMarkdown(report))
	}

	if output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := filelock.AtomicWrite(output, data, 0644); err != nil {
		return fmt.Errorf("write axes report: %w", err)
	}
	log.LogInfo(fmt.Sprintf("axes report written to %s", output))
	return nil
}

func loggedVectors(cmd *cobra.Command, cfg *config.Config, log logger.Logger) ([]models.FeatureVector, error) {
	root, err := logsRoot(cmd, cfg)
	if err != nil {
		return nil, err
	}
	project, _ := cmd.Flags().GetString("project")

	parsed, _, err := behavioral.NewParser(cfg.Features.ToolClasses, log).ParseAll(cmd.Context(), root, project)
	if err != nil {
		return nil, fmt.Errorf("parse session logs: %w", err)
	}
	sessions, _ := features.FromParsed(parsed)
	return sessionVectors(features.NewEngine(cfg.Features), sessions), nil
}

func simulatedVectors(cfg *config.Config, n int, seed uint64) ([]models.FeatureVector, error) {
	engine := features.NewEngine(cfg.Features)
	var vectors []models.FeatureVector
	for _, p := range simulation.Personas() {
		sim, err := simulation.New(p, simulation.WithSeed(seed), simulation.WithToolClasses(cfg.Features.ToolClasses))
		if err != nil {
			return nil, err
		}
		sessions, err := sim.Generate(n)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, sessionVectors(engine, sessions)...)
	}
	return vectors, nil
}

func sessionVectors(engine *features.Engine, sessions []features.Session) []models.FeatureVector {
	vectors := make([]models.FeatureVector, len(sessions))
	for i, s := range sessions {
		vectors[i] = engine.ComputeSession(s)
	}
	return vectors
}
