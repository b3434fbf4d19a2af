package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/TheApexWu/suzerain/internal/behavioral"
	"github.com/TheApexWu/suzerain/internal/classifier"
	"github.com/TheApexWu/suzerain/internal/config"
	"github.com/TheApexWu/suzerain/internal/features"
	"github.com/TheApexWu/suzerain/internal/filelock"
	"github.com/TheApexWu/suzerain/internal/logger"
	"github.com/TheApexWu/suzerain/internal/models"
	"github.com/TheApexWu/suzerain/internal/share"
	"github.com/TheApexWu/suzerain/internal/store"
)

// loadConfig resolves configuration from --config or $SUZERAIN_HOME and
// applies --log-level
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.LoadFromHome()
	} else {
		if path, err = config.ExpandPath(path); err != nil {
			return nil, err
		}
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger logs to the command's error stream so stdout stays parseable
func newLogger(cmd *cobra.Command, cfg *config.Config) *logger.ConsoleLogger {
	return logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
}

// logsRoot returns --logs-dir when given, else the configured directory
func logsRoot(cmd *cobra.Command, cfg *config.Config) (string, error) {
	dir, _ := cmd.Flags().GetString("logs-dir")
	if dir == "" {
		dir = cfg.LogsDir
	}
	return config.ExpandPath(dir)
}

// analysis is one pass of the pipeline over a logs directory
type analysis struct {
	report   *models.Report
	sessions []features.Session
}

// runAnalysis parses every session under root and classifies the user
func runAnalysis(ctx context.Context, cfg *config.Config, log logger.Logger, root, project string) (*analysis, error) {
	start := time.Now()

	parser := behavioral.NewParser(cfg.Features.ToolClasses, log)
	parsed, quality, err := parser.ParseAll(ctx, root, project)
	if err != nil {
		return nil, fmt.Errorf("parse session logs: %w", err)
	}
	sessions, empty := features.FromParsed(parsed)
	if empty > 0 {
		log.LogDebug(fmt.Sprintf("skipped %d empty sessions", empty))
	}

	vec := features.NewEngine(cfg.Features).Compute(sessions)
	cls := classifier.New(cfg.Thresholds).Classify(vec)

	contexts := make(map[string]bool)
	for _, s := range sessions {
		contexts[s.Context] = true
	}

	report := &models.Report{
		RunID:       uuid.NewString(),
		Version:     Version,
		GeneratedAt: time.Now().UTC(),
		Summary: models.ReportSummary{
			SessionsAnalyzed:     len(sessions),
			EmptySessionsSkipped: empty,
			TotalEvents:          vec.Events,
			DistinctContexts:     len(contexts),
			Warnings:             quality.ByName(),
		},
		Features:       vec,
		Classification: cls,
	}

	if timed, ok := log.(interface{ LogDuration(string, time.Duration) }); ok {
		timed.LogDuration("Analysis", time.Since(start))
	}
	return &analysis{report: report, sessions: sessions}, nil
}

// saveReport caches the report for the configured user. Runs for the same
// user are serialised across processes.
func saveReport(ctx context.Context, cfg *config.Config, report *models.Report) (bool, error) {
	locksDir, err := config.LocksDir()
	if err != nil {
		return false, err
	}
	locker, err := filelock.NewKeyedLocker(locksDir)
	if err != nil {
		return false, err
	}

	user := cfg.ResolveUserID()
	var changed bool
	err = locker.WithLock(ctx, user, func() error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		changed, err = st.Save(ctx, user, report)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("cache classification: %w", err)
	}
	return changed, nil
}

func openStore() (*store.Store, error) {
	dbPath, err := config.DBPath()
	if err != nil {
		return nil, err
	}
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open classification cache: %w", err)
	}
	return st, nil
}

func newSender(cfg *config.Config, log logger.Logger) (*share.Sender, error) {
	pending, err := config.PendingDir()
	if err != nil {
		return nil, err
	}
	return share.NewSender(share.SenderConfig{
		Endpoint:   cfg.Share.Endpoint,
		Token:      cfg.Share.Token,
		Version:    Version,
		PendingDir: pending,
		Timeout:    cfg.Share.TimeoutDuration(),
		Logger:     log,
	})
}

// shareReport sends the aggregate of report after retrying pending payloads
func shareReport(ctx context.Context, cfg *config.Config, log logger.Logger, report *models.Report) error {
	payload, err := share.FromReport(report, Version)
	if err != nil {
		return err
	}
	sender, err := newSender(cfg, log)
	if err != nil {
		return err
	}
	if n, err := sender.Flush(ctx); err != nil {
		log.LogDebug(fmt.Sprintf("pending shares not flushed: %v", err))
	} else if n > 0 {
		log.LogInfo(fmt.Sprintf("delivered %d pending shares", n))
	}
	return sender.Send(ctx, payload)
}
