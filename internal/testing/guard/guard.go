// Package guard switches the process into test mode when imported, so
// entrypoints skip opening listeners and database pools.
package guard

import (
	"os"
	"sync"
)

// EnvVar is the variable app.InTestMode reads.
const EnvVar = "RESIDENCE_TEST_MODE"

var once sync.Once

func init() {
	Enable()
}

// Enable sets EnvVar to "1" unless the caller already chose a value.
func Enable() {
	once.Do(func() {
		if os.Getenv(EnvVar) == "" {
			_ = os.Setenv(EnvVar, "1")
		}
	})
}

// Enabled reports whether EnvVar is currently "1".
func Enabled() bool {
	return os.Getenv(EnvVar) == "1"
}
