// Package guard switches the process into test mode when imported for side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ADMIN_TEST_MODE") == "" {
			_ = os.Setenv("ADMIN_TEST_MODE", "1")
		}
	})
}
