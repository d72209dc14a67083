package deployer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/pypi-deployer/internal/logger"
)

// deployerExecutableBase is the binary name scanned for in the process list.
const deployerExecutableBase = "pypi-deployer"

// errToolMissing indicates a configured build or publish tool is not invocable.
var errToolMissing = errors.New("required tool not found")

// checkTools verifies the build and publish tools are on PATH before any
// side effect happens. The remediation hint mirrors the conventional
// Python packaging toolchain.
func (d *deployer) checkTools(ctx context.Context) error {
	logger.Info(ctx, "Checking required tools")

	for _, command := range [][]string{d.cfg.BuildCommand, d.cfg.PublishCommand} {
		tool := command[0]
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%w: %s (install with: pip install build twine)", errToolMissing, tool)
		}
	}

	logger.Info(ctx, "All required tools are available")

	return nil
}

// cleanArtifacts removes previous build output. Best effort: a path that does
// not exist or cannot be removed is not fatal.
func (d *deployer) cleanArtifacts(ctx context.Context) {
	logger.Info(ctx, "Cleaning up build artifacts")

	for _, pattern := range d.cfg.CleanPaths {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			logger.WarnKV(ctx, "Bad clean pattern", "pattern", pattern, "error", err)
			continue
		}

		for _, match := range matches {
			if err = os.RemoveAll(match); err != nil {
				logger.WarnKV(ctx, "Could not remove build output", "path", match, "error", err)
			}
		}
	}
}

// build invokes the configured build tool, streaming its output to the operator.
func (d *deployer) build(ctx context.Context) error {
	logger.InfoKV(ctx, "Building package", "command", strings.Join(d.cfg.BuildCommand, " "))

	if err := runCommand(ctx, d.cfg.BuildCommand); err != nil {
		return fmt.Errorf("build package: %w", err)
	}

	logger.Info(ctx, "Build completed")

	return nil
}

// collectArtifacts lists the build output and fails when the set is empty.
func (d *deployer) collectArtifacts(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.cfg.DistFolder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", errNoArtifacts, d.cfg.DistFolder)
		}

		return nil, fmt.Errorf("read artifact folder: %w", err)
	}

	artifacts := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		artifacts = append(artifacts, filepath.Join(d.cfg.DistFolder, entry.Name()))
	}

	if len(artifacts) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", errNoArtifacts, d.cfg.DistFolder)
	}

	sort.Strings(artifacts)

	return artifacts, nil
}

// publish invokes the configured publish tool with the artifact paths appended.
func (d *deployer) publish(ctx context.Context, artifacts []string) error {
	command := make([]string, 0, len(d.cfg.PublishCommand)+len(artifacts))
	command = append(command, d.cfg.PublishCommand...)
	command = append(command, artifacts...)

	logger.InfoKV(ctx, "Uploading to registry", "command", strings.Join(d.cfg.PublishCommand, " "))

	if err := runCommand(ctx, command); err != nil {
		return fmt.Errorf("upload package: %w", err)
	}

	return nil
}

// publishCommandLine renders the manual upload hint shown on cancelled uploads.
func (d *deployer) publishCommandLine() string {
	return strings.Join(d.cfg.PublishCommand, " ") + " " + d.cfg.DistFolder + "/*"
}

// runCommand executes an argv slice synchronously, wiring subprocess output
// to the operator's terminal. There is no timeout: a started tool runs to
// completion unless the context is cancelled.
func runCommand(ctx context.Context, command []string) error {
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// warnIfAlreadyRunning scans the process list for another deployer instance.
// No locking is performed; concurrent runs against one manifest are the
// operator's responsibility, so this only warns.
func warnIfAlreadyRunning(ctx context.Context) {
	processList, err := ps.Processes()
	if err != nil {
		logger.DebugKV(ctx, "Could not list processes", "error", err)
		return
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != deployerExecutable() {
			continue
		}

		logger.WarnKV(ctx, "Another deployer process appears to be running",
			"pid", process.Pid())

		return
	}
}

// deployerExecutable returns the platform-specific binary name.
func deployerExecutable() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return deployerExecutableBase + ".exe"
	}

	return deployerExecutableBase
}
