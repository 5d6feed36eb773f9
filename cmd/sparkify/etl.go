package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franz/sparkify-etl/internal/config"
	"github.com/franz/sparkify-etl/internal/load"
	"github.com/franz/sparkify-etl/internal/report"
	"github.com/franz/sparkify-etl/internal/store"
	"github.com/franz/sparkify-etl/internal/transform"
	"github.com/franz/sparkify-etl/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// connectionFailure is printed to stdout when the database cannot be reached.
// The process still exits 0 in that case.
const connectionFailure = "Error: Could not make connection or could not get cursor"

// openStore connects to the configured database. A nil store with a nil
// error means the connection failure has already been reported.
func openStore(ctx context.Context, cmd *cobra.Command, cfg config.Config) (*store.Store, error) {
	util.InfoLog("Opening database: %s", cfg.Database.Redacted())

	s, err := store.Open(ctx, cfg.Database)
	if errors.Is(err, util.ErrConnection) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, connectionFailure)
		fmt.Fprintln(out, err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newEventLogger(cfg config.Config) *report.EventLogger {
	if cfg.EventLogDir == "" {
		return report.NullLogger()
	}

	logLevel := report.LevelInfo // Default
	if cfg.Quiet {
		logLevel = report.LevelWarning // Only warnings and errors
	} else if cfg.Verbose {
		logLevel = report.LevelDebug // Everything
	}

	logger, err := report.NewEventLogger(cfg.EventLogDir, logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	util.InfoLog("Event log: %s", logger.Path())
	return logger
}

func runETL(cmd *cobra.Command, v *viper.Viper) error {
	ctx := cmd.Context()

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	s, err := openStore(ctx, cmd, cfg)
	if s == nil {
		return err
	}
	defer s.Close()

	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	logger := newEventLogger(cfg)
	defer logger.Close()

	driver := load.New(&load.Config{
		Store:       s,
		Extensions:  []string{cfg.Extension},
		Logger:      logger,
		ProgressBar: util.ShowProgressBar(),
	})

	summary := &report.Summary{
		Database:     cfg.Database.Redacted(),
		EventLogPath: logger.Path(),
	}

	steps := []struct {
		root string
		fn   transform.FileFunc
	}{
		{cfg.SongData, transform.SongFile},
		{cfg.LogData, transform.LogFile},
	}
	for _, step := range steps {
		result, err := driver.Process(ctx, step.root, step.fn)
		if err != nil {
			return fmt.Errorf("loading %s: %w", step.root, err)
		}
		util.SuccessLog("Loaded %d files from %s in %v", result.FilesProcessed, step.root, result.Duration.Round(time.Millisecond))
		summary.Roots = append(summary.Roots, result.Totals())
	}

	if util.IsQuiet() {
		return nil
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	summary.GeneratedAt = time.Now()
	summary.TableRows = stats
	return summary.Render(cmd.ErrOrStderr())
}
