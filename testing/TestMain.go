package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("SCRIMSYNC_TEST_MODE", "1")
		if os.Getenv("DISCORD_BOT_TOKEN") == "" {
			_ = os.Setenv("DISCORD_BOT_TOKEN", "test-token")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
