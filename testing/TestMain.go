package testing

import (
	"os"
	stdtesting "testing"

	"github.com/residence-hub/residence/internal/testing/guard"
)

func init() {
	guard.Enable()
}

// TestMain can be reused by packages that need test mode set before flags parse.
func TestMain(m *stdtesting.M) {
	guard.Enable()
	os.Exit(m.Run())
}
