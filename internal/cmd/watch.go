package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheApexWu/suzerain/internal/behavioral"
	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/logger"
	"github.com/TheApexWu/suzerain/internal/models"
)

// NewWatchCommand creates the 'suzerain watch' command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reclassify whenever a session log changes",
		Long: `Watch runs an analysis, then re-runs it each time Claude Code writes to
a session log, updating the cached classification. Changes of archetype
are reported. A run log is kept under $SUZERAIN_HOME/logs.

Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().String("logs-dir", "", "Claude Code projects directory (default from config)")
	cmd.Flags().String("project", "", "only analyse projects whose directory name contains this")
	cmd.Flags().Duration("debounce", behavioral.DefaultDebounceDelay, "quiet period before a changed log is re-read")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	root, err := logsRoot(cmd, cfg)
	if err != nil {
		return err
	}
	project, _ := cmd.Flags().GetString("project")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	home, err := config.GetHome()
	if err != nil {
		return err
	}
	fileLog, err := logger.NewFileLogger(filepath.Join(home, "logs"), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer fileLog.Close()
	log := logger.Tee{newLogger(cmd, cfg), fileLog}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := behavioral.NewFileWatcher(root, debounce)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	defer watcher.Close()

	w := &watchLoop{cfg: cfg, log: log, root: root, project: project}
	w.run(ctx, "startup")
	log.LogInfo(fmt.Sprintf("watching %s (run log %s)", root, fileLog.Path()))

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("watch stopped")
			return nil
		case change, ok := <-watcher.Changes():
			if !ok {
				return nil
			}
			if !matchesProject(change.Path, project) {
				continue
			}
			w.run(ctx, "session "+shortID(change.SessionID))
		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			log.LogWarn(fmt.Sprintf("watcher: %v", err))
		}
	}
}

// watchLoop remembers the last archetype so changes can be reported
type watchLoop struct {
	cfg     *config.Config
	log     logger.Logger
	root    string
	project string
	last    models.Archetype
}

func (w *watchLoop) run(ctx context.Context, trigger string) {
	start := time.Now()
	a, err := runAnalysis(ctx, w.cfg, w.log, w.root, w.project)
	if err != nil {
		w.log.LogWarn(fmt.Sprintf("analysis after %s failed: %v", trigger, err))
		return
	}
	if _, err := saveReport(ctx, w.cfg, a.report); err != nil {
		w.log.LogWarn(err.Error())
		return
	}

	c := a.report.Classification
	switch {
	case !c.IsClassified():
		w.log.LogInfo(fmt.Sprintf("%s: insufficient data (%s)", trigger, c.InsufficientReason))
	case w.last != "" && w.last != c.Archetype:
		w.log.LogInfo(fmt.Sprintf("%s: archetype changed %s -> %s", trigger, w.last, c.Archetype))
	default:
		w.log.LogInfo(fmt.Sprintf("%s: %s (trust %.2f, sophistication %.2f, variance %.2f) in %s",
			trigger, c.Archetype, c.AxisScores.Trust, c.AxisScores.Sophistication, c.AxisScores.Variance,
			time.Since(start).Round(time.Millisecond)))
	}
	if c.IsClassified() {
		w.last = c.Archetype
	}
}

// matchesProject applies the --project filter the way session discovery does
func matchesProject(path, filter string) bool {
	if filter == "" {
		return true
	}
	project := filepath.Base(filepath.Dir(path))
	return strings.Contains(strings.ToLower(project), strings.ToLower(filter))
}
