package confstack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
)

type cacheLockState struct {
	fl    *flock.Flock
	count int
}

// PackageCacheLock keeps the application's package cache locked for as long
// as it is held. Release every lock returned by AcquirePackageCacheLock.
type PackageCacheLock struct {
	cfg *Config
}

// AcquirePackageCacheLock takes the advisory lock guarding the home
// directory's downloaded-data caches. The lock is reentrant within one
// Config: nested acquisitions share the underlying file lock and only the
// outermost Release drops it.
//
// When the home directory is read-only, or locking is simply not permitted
// there, the lock degrades: first to a shared lock, then to no lock at all.
// A read-only home cannot be mutated by any process, so mutual exclusion is
// moot.
func (c *Config) AcquirePackageCacheLock() (*PackageCacheLock, error) {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()

	if c.cacheLock != nil {
		c.cacheLock.count++
		return &PackageCacheLock{cfg: c}, nil
	}

	if err := os.MkdirAll(c.home, 0o755); err != nil && !errors.Is(err, os.ErrPermission) {
		return nil, fmt.Errorf("failed to create home directory `%s`: %w", c.home, err)
	}

	path := filepath.Join(c.home, ".package-cache")
	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		if !maybeReadOnly(err) {
			return nil, fmt.Errorf("failed to acquire package cache lock at `%s`: %w", path, err)
		}
		if rerr := fl.RLock(); rerr != nil {
			// Not even readable for locking; proceed without one.
			c.logger.Debug().Str("path", path).Msg("package cache lock unavailable, continuing unlocked")
			fl = nil
		}
	}

	c.cacheLock = &cacheLockState{fl: fl, count: 1}
	return &PackageCacheLock{cfg: c}, nil
}

// Release drops one acquisition of the package cache lock.
func (l *PackageCacheLock) Release() error {
	c := l.cfg
	c.lockMu.Lock()
	defer c.lockMu.Unlock()

	if c.cacheLock == nil {
		return errors.New("package cache lock released more times than acquired")
	}
	c.cacheLock.count--
	if c.cacheLock.count > 0 {
		return nil
	}
	state := c.cacheLock
	c.cacheLock = nil
	if state.fl == nil {
		return nil
	}
	return state.fl.Unlock()
}

func maybeReadOnly(err error) bool {
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EROFS || errno == syscall.EACCES
	}
	return false
}
