package deployer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/pypi-deployer/internal/config"
	"github.com/oshokin/pypi-deployer/internal/domain/release"
	"github.com/oshokin/pypi-deployer/internal/logger"
	"github.com/oshokin/pypi-deployer/internal/repository/manifest"
)

// deployer holds the mutable state and collaborators for a single release run.
// It is intentionally unexported—callers should use Run, which encapsulates
// validation and assembly.
type deployer struct {
	// cfg holds the deployment settings.
	cfg *config.Config
	// repo reads and rewrites the manifest.
	repo manifest.Repository
	// backup owns the backup lifecycle around the mutation.
	backup *manifest.BackupManager
	// confirm is the yes/no capability for the two gates.
	confirm Confirmer
	// out renders operator-facing styled output.
	out *printer
	// request is the immutable release request, filled after validation.
	request release.Request
}

var (
	// errVersionMismatch indicates the rewrite did not land the requested version.
	errVersionMismatch = errors.New("manifest verification failed: version mismatch after rewrite")
	// errNoArtifacts indicates the build produced an empty artifact set.
	errNoArtifacts = errors.New("no artifacts found after build")
)

// Run drives the release through its stages in strict order. Every failure
// after the backup is taken restores the manifest before returning.
func (d *deployer) Run(ctx context.Context, target release.Version) error {
	warnIfAlreadyRunning(ctx)

	if err := d.validate(ctx, target); err != nil {
		return err
	}

	if err := d.checkTools(ctx); err != nil {
		return err
	}

	ok, err := d.confirm.Confirm(ctx,
		fmt.Sprintf("\nDo you want to deploy version %s?", d.request.Target))
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}

	if !ok {
		d.out.warning("Deployment cancelled")
		return nil
	}

	if err = d.backup.Create(ctx); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}

	logger.InfoKV(ctx, "Backup created", "path", d.backup.Path())

	if err = d.updateVersion(ctx); err != nil {
		return d.rollback(ctx, err)
	}

	d.out.success(fmt.Sprintf("Version updated: %s → %s", d.request.Current, d.request.Target))

	d.cleanArtifacts(ctx)

	if err = d.build(ctx); err != nil {
		return d.rollback(ctx, err)
	}

	artifacts, err := d.collectArtifacts(ctx)
	if err != nil {
		return d.rollback(ctx, err)
	}

	d.out.listArtifacts(artifacts)

	published, err := d.confirmPublish(ctx)
	if err != nil {
		return d.rollback(ctx, err)
	}

	if !published {
		// The version bump is intentionally kept so the operator can publish
		// the artifacts manually later.
		if err = d.backup.Delete(ctx); err != nil {
			logger.WarnKV(ctx, "Could not remove backup", "error", err)
		}

		d.out.warning("Upload cancelled. Build artifacts remain in " + d.cfg.DistFolder + "/")
		d.out.info("You can upload manually later with: " + d.publishCommandLine())

		return nil
	}

	if err = d.publish(ctx, artifacts); err != nil {
		d.out.warning("Build artifacts remain in " + d.cfg.DistFolder + "/ for manual inspection")
		return d.rollback(ctx, err)
	}

	if err = d.backup.Delete(ctx); err != nil {
		logger.WarnKV(ctx, "Could not remove backup", "error", err)
	}

	d.out.success(fmt.Sprintf("Successfully deployed version %s", d.request.Target))
	d.out.printSummary(d.request)
	d.out.printNextSteps(d.request.Target)

	return nil
}

// validate checks the manifest exists, reads the current version and builds
// the immutable release request.
func (d *deployer) validate(ctx context.Context, target release.Version) error {
	info, err := d.repo.Read(ctx)
	if err != nil {
		return err
	}

	d.request = release.Request{
		PackageName: info.Name,
		Current:     info.Version,
		Target:      target,
	}

	d.out.info("Current version: " + d.request.Current.String())
	d.out.info("New version: " + d.request.Target.String())

	return nil
}

// updateVersion rewrites the version line and verifies the new value landed
// by re-reading the manifest.
func (d *deployer) updateVersion(ctx context.Context) error {
	logger.Info(ctx, "Updating version in "+d.cfg.ManifestPath)

	if err := d.repo.WriteVersion(ctx, d.request.Target); err != nil {
		return fmt.Errorf("update version: %w", err)
	}

	info, err := d.repo.Read(ctx)
	if err != nil {
		return fmt.Errorf("verify version: %w", err)
	}

	if !info.Version.Equal(d.request.Target) {
		return fmt.Errorf("%w: found %s, expected %s", errVersionMismatch, info.Version, d.request.Target)
	}

	return nil
}

// confirmPublish shows the pre-upload checklist and asks the second gate.
func (d *deployer) confirmPublish(ctx context.Context) (bool, error) {
	d.out.printPublishChecklist()

	ok, err := d.confirm.Confirm(ctx, "\nContinue with registry upload?")
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	return ok, nil
}

// rollback restores the manifest from backup and returns the original error.
// A failed restore is logged loudly: the manifest may be left at the new version.
func (d *deployer) rollback(ctx context.Context, cause error) error {
	logger.Info(ctx, "Restoring manifest from backup")

	if err := d.backup.Restore(ctx); err != nil {
		logger.ErrorKV(ctx, "Manifest restore failed, manifest may keep the new version",
			"error", err, "backup", d.backup.Path())
	} else {
		logger.Info(ctx, "Manifest restored")
	}

	return cause
}
