package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

func TestNewRootCommand(t *testing.T) {
	t.Parallel()

	root := NewRootCommand("dev", "none", "unknown")
	assert.Equal(t, "cma", root.Use)

	for _, name := range []string{"version", "config", "bulk-actions", "releases", "ai-actions", "environments"} {
		assert.NotNil(t, findSubcommand(root, name), "missing %s", name)
	}

	for _, flag := range []string{"config", "api", "token", "space", "environment", "output", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestNewBulkActionsCommand(t *testing.T) {
	t.Parallel()

	cmd := NewBulkActionsCommand()
	assert.Equal(t, "bulk-actions", cmd.Use)
	assert.Equal(t, []string{"bulk-action", "bulk"}, cmd.Aliases)
	assert.Len(t, cmd.Commands(), 5)

	publish := findSubcommand(cmd, "publish")
	require.NotNil(t, publish)

	for _, flag := range []string{"entry", "asset", "wait", "initial-delay", "retry-count", "retry-interval", "fail-on-error", "nats-url"} {
		assert.NotNil(t, publish.Flags().Lookup(flag), "Flag %s should exist", flag)
	}

	wait := findSubcommand(cmd, "wait")
	require.NotNil(t, wait)
	assert.Nil(t, wait.Flags().Lookup("wait"))
}

func TestNewReleasesCommand(t *testing.T) {
	t.Parallel()

	cmd := NewReleasesCommand()
	assert.Len(t, cmd.Commands(), 6)

	assert.NotNil(t, findSubcommand(cmd, "publish").Flags().Lookup("version"))
	assert.NotNil(t, findSubcommand(cmd, "unpublish").Flags().Lookup("version"))
	assert.Nil(t, findSubcommand(cmd, "validate").Flags().Lookup("version"))
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version", "--output", "json")
	require.NoError(t, err)

	var info VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, constants.SDKVersion, info.SDKVersion)
}

func TestCommandsRequireConfiguration(t *testing.T) {
	t.Setenv("CMA_TOKEN", "")
	t.Setenv("CMA_SPACE", "")

	_, err := executeCommand(t, "bulk-actions", "get", "bulk-1", "--token", "x")
	require.ErrorIs(t, err, constants.ErrNoSpaceConfigured)

	_, err = executeCommand(t, "bulk-actions", "get", "bulk-1", "--space", "s1")
	require.ErrorIs(t, err, constants.ErrNoAccessToken)

	_, err = executeCommand(t, "bulk-actions", "publish", "--space", "s1", "--token", "x")
	require.ErrorIs(t, err, constants.ErrNoEntitiesSpecified)
}

func TestBulkActionsPublishWait(t *testing.T) {
	var polls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodPost {
			assert.Equal(t, "/spaces/s1/environments/staging/bulk_actions/publish", r.URL.Path)

			var body cma.BulkActionRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Len(t, body.Entities.Items, 2)

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"sys":{"type":"BulkAction","id":"b1","status":"created"},"action":"publish"}`))

			return
		}

		status := "inProgress"
		if polls.Add(1) >= 2 {
			status = "succeeded"
		}

		_, _ = w.Write([]byte(`{"sys":{"type":"BulkAction","id":"b1","status":"` + status + `"},"action":"publish"}`))
	}))
	defer server.Close()

	out, err := executeCommand(t,
		"bulk-actions", "publish",
		"--api", server.URL,
		"--token", "secret",
		"--space", "s1",
		"--environment", "staging",
		"--entry", "e1@2",
		"--asset", "a1",
		"--wait",
		"--retry-interval", "1ms",
		"--output", "json",
	)
	require.NoError(t, err)
	assert.Equal(t, int32(2), polls.Load())

	var action cma.BulkAction
	require.NoError(t, json.Unmarshal([]byte(out), &action))
	assert.Equal(t, "succeeded", action.Sys.Status)
}

func TestEnvironmentsWaitFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spaces/s1/environments/feature", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sys":{"type":"Environment","id":"feature","status":{"sys":{"id":"failed"}}},"name":"feature"}`))
	}))
	defer server.Close()

	out, err := executeCommand(t,
		"environments", "wait", "feature",
		"--api", server.URL,
		"--token", "secret",
		"--space", "s1",
		"--retry-interval", "1ms",
	)
	require.ErrorIs(t, err, cma.ErrJobFailed)
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "feature")
}

func TestConfigSetAndSetToken(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "nested", "config.yml")

	_, err := runCommand(t, "", "--config", configFile, "config", "set", "space", "space-9")
	require.NoError(t, err)

	out, err := runCommand(t, "CFPAT-abc\n", "--config", configFile, "config", "set-token")
	require.NoError(t, err)
	assert.Contains(t, out, "Token stored")

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "space: space-9")
	assert.Contains(t, string(data), "token: CFPAT-abc")

	out, err = runCommand(t, "", "--config", configFile, "config", "show", "--output", "json")
	require.NoError(t, err)

	var shown Config
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "space-9", shown.Space)
	assert.Equal(t, Masked, shown.Token)
	assert.Equal(t, constants.DefaultAPIEndpoint, shown.API)

	_, err = runCommand(t, "", "--config", configFile, "config", "set", "colour", "blue")
	require.ErrorIs(t, err, constants.ErrUnknownConfigKey)

	_, err = runCommand(t, "", "--config", configFile, "config", "set-token")
	require.ErrorIs(t, err, constants.ErrNoAccessToken)
}
