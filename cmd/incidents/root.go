package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dallasopendata/incidents/internal/api"
	"github.com/dallasopendata/incidents/internal/config"
	"github.com/dallasopendata/incidents/internal/logging"
)

// defaultConfigPath is tried when --config is not given.
const defaultConfigPath = "config.yaml"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug logging regardless of the config file.
	debug bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           "incidents",
		Short:         "Dallas open data incidents toolkit",
		Long:          `Translate incident queries into SoQL, categorize offenses, snapshot active calls and serve it all over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		serveCommand(),
		compileCommand(),
		fetchCommand(),
		metadataCommand(),
		categorizeCommand(),
		offensesCommand(),
		snapshotCommand(),
		referencesCommand(),
		trackCommand(),
		generateConfigCommand(),
		versionCommand(),
	)
}

// initConfig loads the config file, falling back to defaults when no file is
// named and ./config.yaml does not exist, then configures logging.
func initConfig() error {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
		cfg.ApplyEnv()
	}

	if debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	log.Debug().Str("config", path).Str("dataset", cfg.Dataset.Preset).Msg("Configuration loaded")
	return nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "incidents version %s\n", api.Version)
		},
	}
}

func generateConfigCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "generate-config [path]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to stat %s: %w", path, err)
			}
			if err := config.GenerateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
