package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TheApexWu/suzerain/internal/classifier"
	"github.com/TheApexWu/suzerain/internal/display"
	"github.com/TheApexWu/suzerain/internal/features"
	"github.com/TheApexWu/suzerain/internal/filelock"
	"github.com/TheApexWu/suzerain/internal/models"
)

// NewAnalyzeCommand creates the 'suzerain analyze' command
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify your governance style from local session logs",
		Long: `Analyze parses every Claude Code session under the logs directory,
computes trust, sophistication and cross-project variance, and prints the
resulting archetype. The result is cached so 'suzerain share' and
'suzerain history' can use it.

Malformed or incomplete log records are skipped and counted; they never
abort the run.`,
		Args: cobra.NoArgs,
		RunE: runAnalyze,
	}

	cmd.Flags().String("logs-dir", "", "Claude Code projects directory (default from config)")
	cmd.Flags().String("project", "", "only analyse projects whose directory name contains this")
	cmd.Flags().Bool("json", false, "print the report as JSON")
	cmd.Flags().String("export", "", "also write the JSON report to this file")
	cmd.Flags().Bool("by-session", false, "classify each session separately as well")
	cmd.Flags().Bool("no-cache", false, "do not update the cached classification")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)
	out := cmd.OutOrStdout()

	root, err := logsRoot(cmd, cfg)
	if err != nil {
		return err
	}
	project, _ := cmd.Flags().GetString("project")
	asJSON, _ := cmd.Flags().GetBool("json")
	exportPath, _ := cmd.Flags().GetString("export")
	bySession, _ := cmd.Flags().GetBool("by-session")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	ctx := cmd.Context()
	a, err := runAnalysis(ctx, cfg, log, root, project)
	if err != nil {
		return err
	}
	report := a.report

	if !noCache {
		if _, err := saveReport(ctx, cfg, report); err != nil {
			return err
		}
	}

	data, err := report.JSON()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if exportPath != "" {
		if err := filelock.AtomicWrite(exportPath, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("export report: %w", err)
		}
		log.LogInfo(fmt.Sprintf("report written to %s", exportPath))
	}

	if asJSON {
		fmt.Fprintln(out, string(data))
	} else {
		display.Profile(out, report, display.ColorEnabled(out))
		if bySession {
			fmt.Fprintln(out)
			printSessionTable(out, a.sessions, features.NewEngine(cfg.Features), classifier.New(cfg.Thresholds))
		}
		if w, ok := display.QualityWarning(report.Summary); ok {
			errOut := cmd.ErrOrStderr()
			fmt.Fprintln(errOut)
			w.Display(errOut, display.ColorEnabled(errOut))
		}
	}

	if cfg.Share.Enabled && report.Classification.IsClassified() {
		if err := shareReport(ctx, cfg, log, report); err != nil {
			log.LogWarn(fmt.Sprintf("automatic share failed: %v", err))
		} else {
			log.LogInfo("profile shared")
		}
	}
	return nil
}

// printSessionTable classifies each session on its own
func printSessionTable(out io.Writer, sessions []features.Session, engine *features.Engine, clf *classifier.Classifier) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tCONTEXT\tEVENTS\tTRUST\tSOPH\tARCHETYPE")
	for _, s := range sessions {
		v := engine.ComputeSession(s)
		c := clf.Classify(v)

		trust := "n/a"
		if v.TrustDefined {
			trust = fmt.Sprintf("%.2f", v.TrustLevel)
		}
		archetype := string(c.Archetype)
		if !c.IsClassified() {
			archetype = models.StatusInsufficientData
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\t%s\n", shortID(s.ID), s.Context, v.Events, trust, v.Sophistication, archetype)
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
