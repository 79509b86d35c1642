package cma

import (
	"context"
)

// Release action statuses.
const (
	ReleaseActionStatusInProgress = "inProgress"
	ReleaseActionStatusSucceeded  = "succeeded"
	ReleaseActionStatusFailed     = "failed"
)

// Release action kinds.
const (
	ReleaseActionPublish   = "publish"
	ReleaseActionUnpublish = "unpublish"
	ReleaseActionValidate  = "validate"
)

// ReleaseActionStatuses classifies release action statuses.
var ReleaseActionStatuses = StatusTable{
	ReleaseActionStatusInProgress: JobRoleInProgress,
	ReleaseActionStatusSucceeded:  JobRoleSucceeded,
	ReleaseActionStatusFailed:     JobRoleFailed,
}

// Release is a named set of entries and assets published together.
type Release struct {
	Sys      Sys              `json:"sys"      yaml:"sys"`
	Title    string           `json:"title"    yaml:"title"`
	Entities EntityCollection `json:"entities" yaml:"entities"`
}

// ReleaseAction is the background job started by publishing, unpublishing
// or validating a release.
type ReleaseAction struct {
	Sys    ReleaseActionSys `json:"sys"               yaml:"sys"`
	Action string           `json:"action"            yaml:"action"`
	Error  *APIError        `json:"error,omitempty"   yaml:"error,omitempty"`
	Result *ReleaseResult   `json:"result,omitempty"  yaml:"result,omitempty"`
}

// ReleaseActionSys adds the processing status and release link to Sys.
type ReleaseActionSys struct {
	Sys `yaml:",inline"`

	Status  string `json:"status"            yaml:"status"`
	Release *Link  `json:"release,omitempty" yaml:"release,omitempty"`
}

// ReleaseResult is set on successful validate actions.
type ReleaseResult struct {
	Errors []APIError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// JobStatus implements TrackedJob.
func (a *ReleaseAction) JobStatus() string {
	if a == nil {
		return ""
	}

	return a.Sys.Status
}

// JobKind implements JobIdentifier.
func (a *ReleaseAction) JobKind() string { return "ReleaseAction" }

// JobID implements JobIdentifier.
func (a *ReleaseAction) JobID() string {
	if a == nil {
		return ""
	}

	return a.Sys.ID
}

// ReleaseID returns the ID of the release the action belongs to.
func (a *ReleaseAction) ReleaseID() string {
	if a == nil || a.Sys.Release == nil {
		return ""
	}

	return a.Sys.Release.Sys.ID
}

// ReleaseCreateRequest is the body of a release create request.
type ReleaseCreateRequest struct {
	Title    string           `json:"title"`
	Entities EntityCollection `json:"entities"`
}

// ReleasesClient defines operations for releases and their actions.
type ReleasesClient interface {
	Get(ctx context.Context, spaceID, environmentID, releaseID string) (*Release, error)
	Create(ctx context.Context, spaceID, environmentID string, request *ReleaseCreateRequest) (*Release, error)
	Publish(ctx context.Context, spaceID, environmentID, releaseID string, version int) (*ReleaseAction, error)
	Unpublish(ctx context.Context, spaceID, environmentID, releaseID string, version int) (*ReleaseAction, error)
	Validate(ctx context.Context, spaceID, environmentID, releaseID string) (*ReleaseAction, error)
	GetAction(ctx context.Context, spaceID, environmentID, releaseID, actionID string) (*ReleaseAction, error)
	// WaitAction polls a release action until it succeeds or fails.
	WaitAction(ctx context.Context, spaceID, environmentID, releaseID, actionID string, policy *PollingPolicy) (*ReleaseAction, error)
	PublishAndWait(ctx context.Context, spaceID, environmentID, releaseID string, version int, policy *PollingPolicy) (*ReleaseAction, error)
	UnpublishAndWait(ctx context.Context, spaceID, environmentID, releaseID string, version int, policy *PollingPolicy) (*ReleaseAction, error)
	ValidateAndWait(ctx context.Context, spaceID, environmentID, releaseID string, policy *PollingPolicy) (*ReleaseAction, error)
}
