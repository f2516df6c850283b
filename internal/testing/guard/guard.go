// Package guard switches the process into test mode when imported, so entry
// points exercised from tests return before touching Postgres or Redis.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("PAINTWORKS_TEST_MODE") == "" {
			_ = os.Setenv("PAINTWORKS_TEST_MODE", "1")
		}
	})
}
