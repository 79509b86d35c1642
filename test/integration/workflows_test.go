//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

// TestEnvironmentWorkflow clones master, waits until the copy is ready and
// removes it again.
func TestEnvironmentWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	require.NoError(t, runner.Configure())

	environmentID := GenerateTestName("it-env")

	defer runner.CleanupEnvironment(environmentID)

	var created cma.Environment

	runner.RunJSON(&created, "environments", "create", environmentID, "--source", "master")
	assert.Equal(t, environmentID, created.Sys.ID)

	var ready cma.Environment

	runner.RunJSON(&ready, "environments", "wait", environmentID,
		"--retry-count", "60", "--retry-interval", "5s")
	assert.True(t, ready.Ready())

	var listed cma.Collection[cma.Environment]

	runner.RunJSON(&listed, "environments", "list")

	ids := make([]string, 0, len(listed.Items))
	for _, env := range listed.Items {
		ids = append(ids, env.Sys.ID)
	}

	assert.Contains(t, ids, environmentID)
}

// TestBulkValidateWorkflow validates a single entry through a bulk action.
func TestBulkValidateWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	entryID := LoadEntryID()
	if entryID == "" {
		t.Skip("CMA_IT_ENTRY not set, skipping bulk action test")
	}

	runner := NewCommandRunner(config, t)
	require.NoError(t, runner.Configure())

	var action cma.BulkAction

	runner.RunJSON(&action, "bulk-actions", "validate", "--entry", entryID, "--wait")
	assert.Equal(t, cma.BulkActionStatusSucceeded, action.Sys.Status)
	assert.Equal(t, cma.BulkActionValidate, action.Action)
}
