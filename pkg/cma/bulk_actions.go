package cma

import (
	"context"
)

// Bulk action statuses.
const (
	BulkActionStatusCreated    = "created"
	BulkActionStatusInProgress = "inProgress"
	BulkActionStatusSucceeded  = "succeeded"
	BulkActionStatusFailed     = "failed"
)

// Bulk action kinds.
const (
	BulkActionPublish   = "publish"
	BulkActionUnpublish = "unpublish"
	BulkActionValidate  = "validate"
)

// BulkActionStatuses classifies bulk action statuses.
var BulkActionStatuses = StatusTable{
	BulkActionStatusCreated:    JobRolePending,
	BulkActionStatusInProgress: JobRoleInProgress,
	BulkActionStatusSucceeded:  JobRoleSucceeded,
	BulkActionStatusFailed:     JobRoleFailed,
}

// BulkAction publishes, unpublishes or validates a set of entries and assets
// in the background.
type BulkAction struct {
	Sys     BulkActionSys     `json:"sys"             yaml:"sys"`
	Action  string            `json:"action"          yaml:"action"`
	Payload BulkActionPayload `json:"payload"         yaml:"payload"`
	Error   *APIError         `json:"error,omitempty" yaml:"error,omitempty"`
}

// BulkActionSys adds the processing status to Sys.
type BulkActionSys struct {
	Sys `yaml:",inline"`

	Status string `json:"status" yaml:"status"`
}

// BulkActionPayload lists the entities the action applies to.
type BulkActionPayload struct {
	Entities EntityCollection `json:"entities" yaml:"entities"`
}

// JobStatus implements TrackedJob.
func (a *BulkAction) JobStatus() string {
	if a == nil {
		return ""
	}

	return a.Sys.Status
}

// JobKind implements JobIdentifier.
func (a *BulkAction) JobKind() string { return "BulkAction" }

// JobID implements JobIdentifier.
func (a *BulkAction) JobID() string {
	if a == nil {
		return ""
	}

	return a.Sys.ID
}

// BulkActionRequest is the body of a publish, unpublish or validate request.
// Publish requires versioned links; unpublish and validate accept plain links.
type BulkActionRequest struct {
	Entities EntityCollection `json:"entities"`
}

// NewBulkActionRequest builds a request for the given entity links.
func NewBulkActionRequest(items ...EntityLink) *BulkActionRequest {
	return &BulkActionRequest{Entities: NewEntityCollection(items...)}
}

// BulkActionsClient defines operations for bulk actions.
type BulkActionsClient interface {
	Get(ctx context.Context, spaceID, environmentID, bulkActionID string) (*BulkAction, error)
	Publish(ctx context.Context, spaceID, environmentID string, request *BulkActionRequest) (*BulkAction, error)
	Unpublish(ctx context.Context, spaceID, environmentID string, request *BulkActionRequest) (*BulkAction, error)
	Validate(ctx context.Context, spaceID, environmentID string, request *BulkActionRequest) (*BulkAction, error)
	// Wait polls the bulk action until it succeeds or fails.
	Wait(ctx context.Context, spaceID, environmentID, bulkActionID string, policy *PollingPolicy) (*BulkAction, error)
}
