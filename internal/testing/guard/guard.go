// Package guard flips the runtime into test mode as a side effect of
// being imported, keeping binaries from starting servers inside tests.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ACADEMICA_TEST_MODE") == "" {
			_ = os.Setenv("ACADEMICA_TEST_MODE", "1")
		}
	})
}
