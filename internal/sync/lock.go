package sync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".mapsync.lock"

// RunLock is an advisory lock serializing sync runs within one checkout.
// Concurrent runs against the same sync root from different checkouts
// remain uncoordinated.
type RunLock struct {
	flock *flock.Flock
}

func NewRunLock(sourceDir string) *RunLock {
	return &RunLock{flock: flock.New(filepath.Join(sourceDir, lockFileName))}
}

func (l *RunLock) Acquire() error {
	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %q: %w", l.flock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("%w (lock file %s)", ErrLocked, l.flock.Path())
	}
	return nil
}

func (l *RunLock) Release() error {
	// if this process hasn't locked the checkout, don't delete the lock file
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("unlock %q: %w", l.flock.Path(), err)
	}
	return os.Remove(l.flock.Path())
}
