package testutil

import (
	"os"
	"testing"

	"github.com/fildor/atelier-api/config"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// SetTestEnvironment points configuration at an in-memory database for the
// duration of the test
func SetTestEnvironment(t *testing.T) {
	t.Helper()

	t.Setenv("GO_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("AUTH0_DOMAIN", "test.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.atelier.test")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_S3_BUCKET", "test-bucket")
	t.Setenv("KAFKA_BROKERS", "")
}

// LoadTestConfig sets the test environment and loads the configuration from it
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	SetTestEnvironment(t)
	RequireTestEnvironment(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}
	return cfg
}
