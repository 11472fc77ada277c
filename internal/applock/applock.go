// Package applock guards against two relays polling the same mailbox,
// which would double-post every listing.
package applock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Acquire takes an exclusive file lock under dataDir. The returned
// release func must be called on shutdown.
func Acquire(dataDir string) (release func(), err error) {
	path := filepath.Join(dataDir, "zillowbot.lock")
	l := flock.New(path)

	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another zillowbot instance holds %s", path)
	}
	return func() { _ = l.Unlock() }, nil
}
