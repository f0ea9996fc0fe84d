// Package filelock writes generated documents so that concurrent benchdoc runs
// (for example parallel make jobs) never leave a half-written README behind.
package filelock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout is returned when a lock could not be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// retryDelay is how often a blocked LockWithTimeout retries.
const retryDelay = 20 * time.Millisecond

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Lock acquires an exclusive lock on the file, blocking until the lock is available.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// TryLock attempts to acquire an exclusive lock on the file without blocking.
// Returns true if the lock was acquired, false if the lock is held by another process.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// LockWithTimeout retries the lock until it is acquired or timeout elapses.
// A timeout of zero or less blocks like Lock.
func (fl *FileLock) LockWithTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fl.Lock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	acquired, err := fl.flock.TryLockContext(ctx, retryDelay)
	if acquired {
		return nil
	}
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s after %s: %w", fl.path, timeout, ErrLockTimeout)
	}
	return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// AtomicWrite writes data to a file atomically using a temp file and rename strategy.
// Readers never see partial writes, even if the write is interrupted.
//
// The process:
// 1. Create a temporary file in the same directory as the target
// 2. Write and sync content to the temporary file
// 3. Rename the temporary file to the target path
//
// An existing target keeps its permission bits; new files get 0644.
// If the operation fails at any point, the original file (if it exists) remains unchanged.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	// Same directory keeps the rename on one filesystem
	tempFile, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	// Renamed, nothing to clean up
	tempFile = nil
	return nil
}

// LockAndWrite acquires a lock, performs an atomic write, and releases the lock.
//
// The lock path is derived by appending ".lock" to the target path.
// Example: writing to "README.md" uses lock file "README.md.lock".
// The lock file is left in place; removing it would let a waiter and a new
// caller lock different inodes.
func LockAndWrite(path string, data []byte) error {
	_, err := WriteIfChanged(path, data, 0)
	return err
}

// WriteIfChanged is LockAndWrite that leaves the target untouched when it
// already holds data, so make does not see a fresh README.md on every run.
// It reports whether the file was written. lockTimeout bounds the wait for the
// lock; zero waits indefinitely.
func WriteIfChanged(path string, data []byte, lockTimeout time.Duration) (bool, error) {
	lockPath := path + ".lock"
	lock := NewFileLock(lockPath)

	if err := lock.LockWithTimeout(lockTimeout); err != nil {
		return false, err
	}
	defer lock.Unlock()

	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, data) {
		return false, nil
	}

	if err := AtomicWrite(path, data); err != nil {
		return false, err
	}
	return true, nil
}
