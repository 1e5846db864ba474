// Package cmd contains all CLI command definitions.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fitz/gameplan/internal/config"
	"github.com/fitz/gameplan/internal/docker"
	"github.com/spf13/cobra"
)

var (
	// appConfig and logger are set by the root command before any
	// subcommand that needs a backend runs.
	appConfig *config.Config
	logger    = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "gameplan",
	Short: "Game Plan - a day-by-day view of everything an athlete has scheduled",
	Long: `Game Plan merges recurring activities, activity logs, built-in tasks,
program sessions, meals and calendar events into one ordered list per day.

Days follow the user's locked orders when they exist and fall back to time
order otherwise. The plan is served to AI agents over MCP and can be
inspected and edited from the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip backend setup for these commands
		if isConfigCommand(cmd) {
			return nil
		}
		return setup(cmd)
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringP("dir", "d", ".", "Directory holding the .env configuration")
	rootCmd.PersistentFlags().StringP("user", "u", "", "User whose plan to work on")
	rootCmd.PersistentFlags().Bool("ensure-container", false, "Start the backend database in Docker if it is not running")
}

func isConfigCommand(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "completion", "help", "config":
		return true
	}
	return cmd.HasParent() && cmd.Parent().Name() == "config"
}

func configDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid directory: %w", err)
	}
	return absDir, nil
}

// setup loads configuration, installs the logger and optionally starts the
// backend container.
func setup(cmd *cobra.Command) error {
	dir, err := configDir(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'gameplan config list' to see the resolved values", err)
	}
	appConfig = cfg

	level, _ := cfg.Level()
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if ensure, _ := cmd.Flags().GetBool("ensure-container"); ensure {
		return ensureContainer(cfg)
	}
	return nil
}

// containerFor returns the container of the configured backend, or nil when
// the backend needs none.
func containerFor(cfg *config.Config) *docker.ContainerConfig {
	switch cfg.Backend {
	case config.BackendNeo4j:
		return docker.Neo4jContainer(cfg.Neo4jContainerName, cfg.Neo4jImage, cfg.Neo4jUsername, cfg.Neo4jPassword)
	case config.BackendPostgres:
		return docker.PostgresContainer(cfg.PostgresContainerName, cfg.PostgresImage, cfg.PostgresPassword)
	default:
		return nil
	}
}

// ensureContainer ensures that the backend's Docker container is running.
func ensureContainer(cfg *config.Config) error {
	containerCfg := containerFor(cfg)
	if containerCfg == nil {
		return nil
	}

	created, err := docker.EnsureContainer(containerCfg)
	if err != nil {
		return fmt.Errorf("failed to ensure %s container: %w", cfg.Backend, err)
	}

	if created {
		fmt.Fprintf(os.Stderr, "✓ Created %s container '%s'\n", cfg.Backend, containerCfg.Name)
		fmt.Fprintf(os.Stderr, "  Waiting for %s to be ready...\n", cfg.Backend)

		if err := docker.WaitForContainer(containerCfg, 60*time.Second); err != nil {
			fmt.Fprintf(os.Stderr, "  Warning: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "  ✓ %s is ready\n", cfg.Backend)
		}
	}

	return nil
}

// userFlag returns the --user flag, which commands acting on a plan require.
func userFlag(cmd *cobra.Command) (string, error) {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}
	return user, nil
}
