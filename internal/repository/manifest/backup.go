package manifest

import (
	"bytes"
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"

	goupdate "github.com/doitdistributed/go-update"

	// Ensure SHA512 is available for backup checksum calculation.
	_ "crypto/sha512"
)

const (
	// BackupSuffix is appended to the manifest path to form the backup path.
	BackupSuffix = ".backup"

	// backupChecksumFunction is used to verify backup content on restore.
	backupChecksumFunction crypto.Hash = crypto.SHA512
)

var (
	// errBackupExists is returned when Create is called twice in one run.
	errBackupExists = errors.New("backup already created")
	// errBackupMissing is returned when Restore or Delete find no backup.
	errBackupMissing = errors.New("backup not found")
	// errHashUnavailable is returned when the checksum function is not linked in.
	errHashUnavailable = errors.New("hash function unavailable")
)

// BackupManager keeps an ephemeral copy of the manifest next to it on disk.
// A backup is created once per run and then either restored or deleted,
// never both. Restore verifies the backup checksum recorded at creation and
// applies the content atomically.
type BackupManager struct {
	// manifestPath is the file being protected.
	manifestPath string
	// backupPath is manifestPath + BackupSuffix.
	backupPath string
	// checksum is the hash of the backup content recorded at creation.
	checksum []byte
	// mode preserves the manifest permissions for restore.
	mode os.FileMode
	// created tracks whether a backup exists for this run.
	created bool
}

// NewBackupManager builds a manager for the manifest at the provided path.
func NewBackupManager(manifestPath string) *BackupManager {
	return &BackupManager{
		manifestPath: manifestPath,
		backupPath:   manifestPath + BackupSuffix,
	}
}

// Path returns the backup file location.
func (b *BackupManager) Path() string {
	return b.backupPath
}

// Created reports whether a backup exists for this run.
func (b *BackupManager) Created() bool {
	return b.created
}

// Create copies the manifest content to the backup file and records its
// checksum. Must be called before any mutation of the manifest.
func (b *BackupManager) Create(_ context.Context) error {
	if b.created {
		return errBackupExists
	}

	fileInfo, err := os.Stat(b.manifestPath)
	if err != nil {
		return fmt.Errorf("stat manifest: %w", err)
	}

	contents, err := os.ReadFile(b.manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	checksum, err := contentChecksum(contents)
	if err != nil {
		return err
	}

	b.mode = fileInfo.Mode().Perm()

	if err := os.WriteFile(b.backupPath, contents, b.mode); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	b.checksum = checksum
	b.created = true

	return nil
}

// Restore writes the backed-up content over the manifest and removes the
// backup file. The recorded checksum is validated before anything touches
// the manifest, so a corrupted backup never overwrites it.
func (b *BackupManager) Restore(_ context.Context) error {
	if !b.created {
		return errBackupMissing
	}

	contents, err := os.ReadFile(b.backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	options := goupdate.Options{
		TargetPath: b.manifestPath,
		TargetMode: b.mode,
		Checksum:   b.checksum,
		Hash:       backupChecksumFunction,
	}

	if err := goupdate.Apply(bytes.NewReader(contents), options); err != nil {
		return fmt.Errorf("restore manifest: %w", err)
	}

	// Apply may leave the previous content aside on some platforms.
	oldFileName := b.manifestPath + ".old"
	if _, err := os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	if err := os.Remove(b.backupPath); err != nil {
		return fmt.Errorf("remove backup: %w", err)
	}

	b.created = false

	return nil
}

// Delete discards the backup without touching the manifest.
func (b *BackupManager) Delete(_ context.Context) error {
	if !b.created {
		return errBackupMissing
	}

	if err := os.Remove(b.backupPath); err != nil {
		return fmt.Errorf("remove backup: %w", err)
	}

	b.created = false

	return nil
}

// contentChecksum hashes content with the backup checksum function.
func contentChecksum(contents []byte) ([]byte, error) {
	if !backupChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := backupChecksumFunction.New()
	if _, err := hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
