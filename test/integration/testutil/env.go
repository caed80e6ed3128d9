package testutil

import (
	"os"
	"testing"
	"time"
)

const DefaultHealthCheckTimeout = 30 * time.Second

type TestEnv struct {
	ServerURL string
}

// NewTestEnv skips the calling test unless TEST_SERVER_URL points at a running deskbook server.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		t.Skip("TEST_SERVER_URL not set, skipping integration test")
	}
	return &TestEnv{ServerURL: serverURL}
}

func (e *TestEnv) Setup(t *testing.T) *Client {
	t.Helper()

	client := NewClient(e.ServerURL)
	client.WaitForHealthy(t, DefaultHealthCheckTimeout)
	return client
}
