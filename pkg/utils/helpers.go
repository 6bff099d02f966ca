package utils

import (
	"fmt"
	"os"
)

// EnsureDir creates dir (and its parents) when it does not exist yet.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("error checking if %s exists: %w", dir, err)
		}

		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("error while creating %s: %w", dir, err)
		}
	}

	return nil
}
