package testutil

import (
	"os"
	"testing"
)

// SkipIntegrationEnv disables container-backed tests when set to any value.
const SkipIntegrationEnv = "BOOKSHELF_SKIP_INTEGRATION"

// RequireIntegration skips container-backed tests under -short, or when
// SkipIntegrationEnv is set for hosts without a Docker daemon.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv(SkipIntegrationEnv) != "" {
		t.Skipf("skipping integration test (%s is set)", SkipIntegrationEnv)
	}
}
