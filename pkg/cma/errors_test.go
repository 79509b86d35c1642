package cma_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

func TestAPIError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *cma.APIError
		expected string
	}{
		{
			name: "with status",
			err: &cma.APIError{
				StatusCode: http.StatusNotFound,
				Sys:        cma.ErrorSys{Type: "Error", ID: cma.ErrorIDNotFound},
				Message:    "The resource could not be found.",
			},
			expected: "NotFound: The resource could not be found. (status: 404)",
		},
		{
			name:     "embedded in a resource",
			err:      &cma.APIError{Sys: cma.ErrorSys{ID: "BulkActionFailed"}, Message: "entry invalid"},
			expected: "BulkActionFailed: entry invalid",
		},
		{
			name:     "no id or message",
			err:      &cma.APIError{StatusCode: http.StatusBadGateway},
			expected: "UnknownError: Bad Gateway (status: 502)",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestNewAPIErrorFromResponse(t *testing.T) {
	t.Parallel()

	t.Run("api error body", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{"sys":{"type":"Error","id":"VersionMismatch"},"message":"Version mismatch","requestId":"req-1"}`)

		apiErr := cma.NewAPIErrorFromResponse(http.StatusConflict, body)
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		assert.Equal(t, "req-1", apiErr.RequestID)
		assert.True(t, cma.IsVersionMismatch(apiErr))
	})

	t.Run("plain text body", func(t *testing.T) {
		t.Parallel()

		apiErr := cma.NewAPIErrorFromResponse(http.StatusServiceUnavailable, []byte("upstream down"))
		assert.Equal(t, cma.ErrorIDServerError, apiErr.Sys.ID)
		assert.Equal(t, "upstream down", apiErr.Message)
	})

	statusIDs := map[int]string{
		http.StatusBadRequest:          cma.ErrorIDBadRequest,
		http.StatusUnauthorized:        cma.ErrorIDAccessTokenInvalid,
		http.StatusForbidden:           cma.ErrorIDAccessDenied,
		http.StatusNotFound:            cma.ErrorIDNotFound,
		http.StatusConflict:            cma.ErrorIDVersionMismatch,
		http.StatusUnprocessableEntity: cma.ErrorIDUnprocessable,
		http.StatusTooManyRequests:     cma.ErrorIDRateLimitExceeded,
		http.StatusInternalServerError: cma.ErrorIDServerError,
	}

	for status, id := range statusIDs {
		apiErr := cma.NewAPIErrorFromResponse(status, nil)
		assert.Equal(t, id, apiErr.Sys.ID, "status %d", status)
	}
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("getting bulk action: %w", cma.NewAPIErrorFromResponse(http.StatusNotFound, nil))
	assert.True(t, cma.IsNotFound(wrapped))
	assert.False(t, cma.IsUnauthorized(wrapped))

	assert.True(t, cma.IsUnauthorized(cma.NewAPIErrorFromResponse(http.StatusUnauthorized, nil)))
	assert.True(t, cma.IsRateLimited(cma.NewAPIErrorFromResponse(http.StatusTooManyRequests, nil)))
	assert.False(t, cma.IsNotFound(errors.New("plain")))

	var apiErr *cma.APIError
	require.ErrorAs(t, wrapped, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestStatusTables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		table    cma.StatusTable
		statuses map[string]cma.JobRole
	}{
		{
			name:  "bulk actions",
			table: cma.BulkActionStatuses,
			statuses: map[string]cma.JobRole{
				"created":    cma.JobRolePending,
				"inProgress": cma.JobRoleInProgress,
				"succeeded":  cma.JobRoleSucceeded,
				"failed":     cma.JobRoleFailed,
			},
		},
		{
			name:  "release actions",
			table: cma.ReleaseActionStatuses,
			statuses: map[string]cma.JobRole{
				"inProgress": cma.JobRoleInProgress,
				"succeeded":  cma.JobRoleSucceeded,
				"failed":     cma.JobRoleFailed,
			},
		},
		{
			name:  "AI invocations",
			table: cma.AIInvocationStatuses,
			statuses: map[string]cma.JobRole{
				"SCHEDULED":   cma.JobRolePending,
				"IN_PROGRESS": cma.JobRoleInProgress,
				"COMPLETED":   cma.JobRoleSucceeded,
				"FAILED":      cma.JobRoleFailed,
				"CANCELLED":   cma.JobRoleFailed,
			},
		},
		{
			name:  "environments",
			table: cma.EnvironmentStatuses,
			statuses: map[string]cma.JobRole{
				"queued": cma.JobRolePending,
				"ready":  cma.JobRoleSucceeded,
				"failed": cma.JobRoleFailed,
			},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for status, role := range tt.statuses {
				assert.Equal(t, role, tt.table.Classify(status), status)
			}

			assert.Equal(t, cma.JobRoleUnknown, tt.table.Classify("unexpected"))
		})
	}
}

func TestTrackedJobsAreNilSafe(t *testing.T) {
	t.Parallel()

	var (
		bulk       *cma.BulkAction
		release    *cma.ReleaseAction
		invocation *cma.AIActionInvocation
		env        *cma.Environment
	)

	assert.Empty(t, bulk.JobStatus())
	assert.Empty(t, release.JobStatus())
	assert.Empty(t, release.ReleaseID())
	assert.Empty(t, invocation.JobStatus())
	assert.Empty(t, env.JobStatus())
	assert.False(t, env.Ready())
}

func TestAPIError_IsSentinels(t *testing.T) {
	t.Parallel()

	forbidden := cma.NewAPIErrorFromResponse(http.StatusForbidden, nil)
	assert.ErrorIs(t, forbidden, cma.ErrForbidden)
	assert.NotErrorIs(t, forbidden, cma.ErrNotFound)

	invalid := cma.NewAPIErrorFromResponse(http.StatusUnprocessableEntity,
		[]byte(`{"sys":{"type":"Error","id":"ValidationFailed"},"message":"Validation error"}`))
	assert.ErrorIs(t, invalid, cma.ErrValidationFailed)
	assert.Equal(t, http.StatusUnprocessableEntity, invalid.StatusCode)
}
