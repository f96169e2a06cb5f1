package store

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"github.com/makeasinger/studio/internal/config"
)

// ErrLocked means another process already serves this database
var ErrLocked = errors.New("database is in use by another studio process")

// InstanceLock keeps a second server from polling the same sqlite file. It is
// a no-op for postgres, where several instances may share one database.
type InstanceLock struct {
	lock *flock.Flock
}

// LockInstance takes the lock file next to the sqlite database
func LockInstance(cfg config.DatabaseConfig) (*InstanceLock, error) {
	if cfg.Driver != config.DriverSQLite {
		return &InstanceLock{}, nil
	}

	lock := flock.New(cfg.Path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &InstanceLock{lock: lock}, nil
}

// Path is the lock file, empty when no lock is held
func (l *InstanceLock) Path() string {
	if l.lock == nil {
		return ""
	}
	return l.lock.Path()
}

// Release drops the lock
func (l *InstanceLock) Release() error {
	if l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
