package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/pypi-deployer/internal/config"
	"github.com/oshokin/pypi-deployer/internal/logger"
	"github.com/oshokin/pypi-deployer/internal/service/deployer"
	"github.com/oshokin/pypi-deployer/internal/version"
)

var (
	// configPath stores the path to the deployment settings YAML file.
	configPath string
	// assumeYes answers both confirmation prompts affirmatively.
	assumeYes bool
	// logLevel sets the minimum level for structured log output.
	logLevel string

	// rootCmd represents the base command for releasing a Python package.
	rootCmd = &cobra.Command{
		Use:   "pypi-deployer [version]",
		Short: "Release a Python package to a registry",
		Long: `Release automation for a Python package: bumps the version in
pyproject.toml, builds distributable artifacts and uploads them to the
package registry.

The version edit is backed up before any mutation. If the build or the
upload fails, the manifest is restored to its previous content. Two
confirmation prompts gate the run: one before anything is touched and one
before the upload. Declining either is a graceful cancellation.

Example: pypi-deployer 1.0.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			// A failed run is not a usage error.
			cmd.SilenceUsage = true

			options := &deployer.Options{
				ConfigPath: configPath,
				Version:    args[0],
				AssumeYes:  assumeYes,
			}

			return deployer.Run(ctx, options)
		},
	}
)

// Execute runs the pypi-deployer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to all confirmation prompts")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "minimum log level (debug, info, warn, error)")
}
