// Package runlock guards the videos directory against concurrent pipeline
// invocations. Completion markers are plain files with no transactional
// story, so two writers racing on the same tree would corrupt each other's
// idempotency reads; a tree-wide advisory lock keeps invocations serialized.
package runlock

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"armangle/internal/services"
)

const lockFileName = ".armangle.lock"

// Lock is an advisory file lock over one videos directory.
type Lock struct {
	path string
	fl   *flock.Flock
}

// New creates a lock for the videos directory. The lock file lives inside
// the directory itself so locks on different trees never collide.
func New(videosDir string) *Lock {
	path := filepath.Join(videosDir, lockFileName)
	return &Lock{path: path, fl: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking. A held lock is a configuration
// error: the operator started a second invocation against the same tree.
func (l *Lock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "runlock", "acquire lock", l.path, err)
	}
	if !ok {
		return services.Wrap(services.ErrConfiguration, "runlock", "acquire lock",
			"another invocation is already processing this videos directory", nil)
	}
	return nil
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
