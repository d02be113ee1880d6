package pipeline

import (
	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrLocked is returned when another process holds the pipeline lock.
var ErrLocked = eris.New("pipeline: another run holds the lock")

// Lock is an exclusive, non-blocking process lock on a file.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the lock at path or fails immediately with ErrLocked.
func AcquireLock(path string) (*Lock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: lock %s", path)
	}
	if !ok {
		return nil, ErrLocked
	}
	zap.L().Debug("pipeline: lock acquired", zap.String("path", path))
	return &Lock{fl: fl}, nil
}

// Release unlocks. The lock file is left in place.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return eris.Wrap(l.fl.Unlock(), "pipeline: unlock")
}
