package deployer

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/pypi-deployer/internal/config"
	"github.com/oshokin/pypi-deployer/internal/domain/release"
	"github.com/oshokin/pypi-deployer/internal/logger"
	"github.com/oshokin/pypi-deployer/internal/repository/manifest"
)

// Options contains inputs for the deployer entry point.
type Options struct {
	// ConfigPath is an optional path to deployment settings (defaults to pypi-deployer-settings.yaml).
	ConfigPath string
	// Version is the requested target version string.
	Version string
	// AssumeYes answers both confirmation prompts affirmatively (non-interactive mode).
	AssumeYes bool
	// Confirmer overrides the confirmation capability; nil selects stdin or auto-confirm.
	Confirmer Confirmer
	// Output overrides the operator-facing writer; nil selects stdout.
	Output io.Writer
}

// Run executes the release workflow: validate the requested version, bump the
// manifest, build artifacts and upload them, restoring the manifest from
// backup whenever a stage after the mutation fails.
// A declined confirmation is a graceful cancellation, not an error.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "pypi-deployer")

	target, err := release.Parse(opts.Version)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	d := newDeployer(cfg, opts)

	if err = d.Run(ctx, target); err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}

	return nil
}

// newDeployer assembles the collaborators for a single run.
func newDeployer(cfg *config.Config, opts *Options) *deployer {
	repo := manifest.NewFileRepository(cfg.ManifestPath)

	confirmer := opts.Confirmer
	if confirmer == nil {
		if opts.AssumeYes {
			confirmer = NewAutoConfirmer()
		} else {
			confirmer = NewLineConfirmer(nil)
		}
	}

	return &deployer{
		cfg:     cfg,
		repo:    repo,
		backup:  manifest.NewBackupManager(repo.Path()),
		confirm: confirmer,
		out:     newPrinter(opts.Output),
	}
}
