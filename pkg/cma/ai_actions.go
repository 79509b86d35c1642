package cma

import (
	"context"
	"encoding/json"
)

// AI action invocation statuses.
const (
	AIInvocationStatusScheduled  = "SCHEDULED"
	AIInvocationStatusInProgress = "IN_PROGRESS"
	AIInvocationStatusCompleted  = "COMPLETED"
	AIInvocationStatusFailed     = "FAILED"
	AIInvocationStatusCancelled  = "CANCELLED"
)

// Output formats of an AI action invocation.
const (
	AIOutputFormatMarkdown  = "Markdown"
	AIOutputFormatRichText  = "RichText"
	AIOutputFormatPlainText = "PlainText"
)

// AIInvocationStatuses classifies invocation statuses. A cancelled
// invocation never produces a result and counts as failed.
var AIInvocationStatuses = StatusTable{
	AIInvocationStatusScheduled:  JobRolePending,
	AIInvocationStatusInProgress: JobRoleInProgress,
	AIInvocationStatusCompleted:  JobRoleSucceeded,
	AIInvocationStatusFailed:     JobRoleFailed,
	AIInvocationStatusCancelled:  JobRoleFailed,
}

// AIActionInvocation is one run of an AI action.
type AIActionInvocation struct {
	Sys    AIActionInvocationSys `json:"sys"              yaml:"sys"`
	Result *AIActionResult       `json:"result,omitempty" yaml:"result,omitempty"`
	Error  *APIError             `json:"error,omitempty"  yaml:"error,omitempty"`
}

// AIActionInvocationSys adds the status and action link to Sys.
type AIActionInvocationSys struct {
	Sys `yaml:",inline"`

	Status   string `json:"status"             yaml:"status"`
	AIAction *Link  `json:"aiAction,omitempty" yaml:"aiAction,omitempty"`
}

// AIActionResult holds the generated output.
type AIActionResult struct {
	Type     string          `json:"type"               yaml:"type"`
	Content  json.RawMessage `json:"content"            yaml:"-"`
	Metadata json.RawMessage `json:"metadata,omitempty" yaml:"-"`
}

// Text returns the content when it is a plain JSON string.
func (r *AIActionResult) Text() (string, bool) {
	if r == nil {
		return "", false
	}

	var text string

	err := json.Unmarshal(r.Content, &text)
	if err != nil {
		return "", false
	}

	return text, true
}

// JobStatus implements TrackedJob.
func (i *AIActionInvocation) JobStatus() string {
	if i == nil {
		return ""
	}

	return i.Sys.Status
}

// JobKind implements JobIdentifier.
func (i *AIActionInvocation) JobKind() string { return "AiActionInvocation" }

// JobID implements JobIdentifier.
func (i *AIActionInvocation) JobID() string {
	if i == nil {
		return ""
	}

	return i.Sys.ID
}

// AIActionVariable supplies one template variable of the action.
type AIActionVariable struct {
	ID    string      `json:"id"`
	Value interface{} `json:"value"`
}

// AIActionInvocationRequest is the body of an invoke request.
type AIActionInvocationRequest struct {
	OutputFormat string             `json:"outputFormat"`
	Variables    []AIActionVariable `json:"variables"`
}

// AIActionsClient defines operations for AI action invocations.
type AIActionsClient interface {
	Invoke(ctx context.Context, spaceID, environmentID, aiActionID string, request *AIActionInvocationRequest) (*AIActionInvocation, error)
	GetInvocation(ctx context.Context, spaceID, environmentID, aiActionID, invocationID string) (*AIActionInvocation, error)
	// WaitInvocation polls an invocation until it completes, fails or is cancelled.
	WaitInvocation(ctx context.Context, spaceID, environmentID, aiActionID, invocationID string, policy *PollingPolicy) (*AIActionInvocation, error)
	InvokeAndWait(ctx context.Context, spaceID, environmentID, aiActionID string, request *AIActionInvocationRequest, policy *PollingPolicy) (*AIActionInvocation, error)
}
