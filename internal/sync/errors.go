package sync

import "errors"

// Error classes map to distinct process exit codes. Callers must treat any
// non-zero exit as "no guaranteed synchronization occurred".
var (
	// ErrConfig marks bad run parameters (usage errors, malformed asset
	// paths). Fatal before any I/O.
	ErrConfig = errors.New("configuration error")

	// ErrSyncRoot marks a missing or invalid sync root.
	ErrSyncRoot = errors.New("sync root missing or invalid")

	// ErrPrecondition marks a failed tracking precondition (lfs disabled,
	// dirty working copy).
	ErrPrecondition = errors.New("precondition failed")

	// ErrLocked is returned when another run holds this checkout's lock.
	ErrLocked = errors.New("another sync run is active for this checkout")
)

const (
	ExitOK           = 0
	ExitUsage        = 2
	ExitSyncRoot     = 3
	ExitPrecondition = 4
	ExitRuntime      = 5
)

// ExitCode maps an error to the process exit code for its class.
// Anything unclassified is an unexpected runtime failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrSyncRoot):
		return ExitSyncRoot
	case errors.Is(err, ErrPrecondition), errors.Is(err, ErrLocked):
		return ExitPrecondition
	case errors.Is(err, ErrConfig):
		return ExitUsage
	default:
		return ExitRuntime
	}
}
