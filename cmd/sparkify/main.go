package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/franz/sparkify-etl/internal/config"
	"github.com/franz/sparkify-etl/internal/util"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time
var Version = "dev"

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sparkify",
		Short: "Load Sparkify song and listening-log data into a star schema",
		Long: `sparkify walks the song data and event log directories, and loads every
JSON file into the songplays fact table and the users, songs, artists and time
dimensions. Each file is committed in its own transaction; the first failing
file stops the run.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runETL(cmd, v)
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./configs/sparkify.yaml)")
	flags.String("driver", config.DriverPostgres, "database driver (postgres or sqlite)")
	flags.String("dsn", "", "database connection string, overrides the individual database settings")
	flags.String("db-path", "sparkify.db", "database file for the sqlite driver")
	flags.String("song-data", "data/song_data", "song data root directory")
	flags.String("log-data", "data/log_data", "event log root directory")
	flags.String("event-log-dir", "artifacts", "directory for the JSONL event log (empty disables it)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	v.BindPFlag("database.driver", flags.Lookup("driver"))
	v.BindPFlag("database.dsn", flags.Lookup("dsn"))
	v.BindPFlag("database.path", flags.Lookup("db-path"))
	v.BindPFlag("song_data", flags.Lookup("song-data"))
	v.BindPFlag("log_data", flags.Lookup("log-data"))
	v.BindPFlag("event_log_dir", flags.Lookup("event-log-dir"))
	v.BindPFlag("verbose", flags.Lookup("verbose"))
	v.BindPFlag("quiet", flags.Lookup("quiet"))

	rootCmd.AddCommand(newCreateTablesCmd(v), newStatsCmd(v))
	return rootCmd
}

func initConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	util.SetOutput(cmd.ErrOrStderr())
	util.SetProgressOutput(cmd.OutOrStdout())
	util.SetColors(util.IsTerminal(os.Stderr.Fd()))

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	config.SetDefaults(v)
	v.SetEnvPrefix("SPARKIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		// Use config file from the flag
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	} else {
		// Search for config in common locations
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.SetConfigName("sparkify")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	util.SetLogLevel(util.LevelInfo)
	util.SetVerbose(v.GetBool("verbose"))
	util.SetQuiet(v.GetBool("quiet"))

	if used := v.ConfigFileUsed(); used != "" {
		util.DebugLog("Using config file: %s", used)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		util.ErrorLog("%v", err)
		os.Exit(1)
	}
}
