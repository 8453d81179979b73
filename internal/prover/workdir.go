package prover

import (
	"fmt"
	"os"
	"sync"
)

// dirMu guards the process-wide working directory.
var dirMu sync.Mutex

// InDir runs fn with the process working directory set to dir. The previous
// directory is restored when fn returns, fails or panics.
func InDir(dir string, fn func() error) (err error) {
	dirMu.Lock()
	defer dirMu.Unlock()

	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("enter %s: %w", dir, err)
	}
	defer func() {
		if rerr := os.Chdir(prev); rerr != nil && err == nil {
			err = fmt.Errorf("restore working directory %s: %w", prev, rerr)
		}
	}()

	return fn()
}
