//go:build !unix

package store

import (
	"fmt"
	"os"
)

// lockFile only creates the lock file; without flock(2) writers are
// serialized within the process only.
func lockFile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return func() { _ = f.Close() }, nil
}
