// Package runlock keeps two webpify runs from converting, and deleting
// originals in, the same tree at the same time.
package runlock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("another webpify run is already processing this directory")

type Lock struct {
	path string
	lock *flock.Flock
}

// Path returns the lock file used for root. Lock files live in dir (the OS
// temp directory when empty) so nothing is written into the tree itself.
func Path(dir, root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = os.TempDir()
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return filepath.Join(dir, "webpify-"+hex.EncodeToString(sum[:8])+".lock"), nil
}

// Acquire takes the lock for root without blocking.
func Acquire(dir, root string) (*Lock, error) {
	path, err := Path(dir, root)
	if err != nil {
		return nil, err
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

func (l *Lock) Path() string {
	return l.path
}

func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
