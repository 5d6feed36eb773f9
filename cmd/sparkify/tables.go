package main

import (
	"time"

	"github.com/franz/sparkify-etl/internal/config"
	"github.com/franz/sparkify-etl/internal/report"
	"github.com/franz/sparkify-etl/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCreateTablesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "create-tables",
		Short: "Drop and recreate the star schema",
		Long: `Drop the songplays, users, songs, artists and time tables if they exist,
then create them empty. All previously loaded data is lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if err := s.Reset(ctx); err != nil {
				return err
			}
			util.SuccessLog("Tables created in %s", cfg.Database.Redacted())
			return nil
		},
	}
}

func newStatsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts per table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			stats, err := s.Stats(ctx)
			if err != nil {
				return err
			}

			summary := &report.Summary{
				GeneratedAt: time.Now(),
				Database:    cfg.Database.Redacted(),
				TableRows:   stats,
			}
			return summary.Render(cmd.OutOrStdout())
		},
	}
}
