package cma

import (
	"context"
)

// Environment statuses, read from sys.status.sys.id.
const (
	EnvironmentStatusQueued = "queued"
	EnvironmentStatusReady  = "ready"
	EnvironmentStatusFailed = "failed"
)

// EnvironmentStatuses classifies environment readiness.
var EnvironmentStatuses = StatusTable{
	EnvironmentStatusQueued: JobRolePending,
	EnvironmentStatusReady:  JobRoleSucceeded,
	EnvironmentStatusFailed: JobRoleFailed,
}

// Environment is a copy of a space's content that can be changed in isolation.
type Environment struct {
	Sys  EnvironmentSys `json:"sys"  yaml:"sys"`
	Name string         `json:"name" yaml:"name"`
}

// EnvironmentSys adds the readiness status link to Sys.
type EnvironmentSys struct {
	Sys `yaml:",inline"`

	Status            *Link `json:"status,omitempty"            yaml:"status,omitempty"`
	SourceEnvironment *Link `json:"sourceEnvironment,omitempty" yaml:"sourceEnvironment,omitempty"`
}

// JobStatus implements TrackedJob.
func (e *Environment) JobStatus() string {
	if e == nil || e.Sys.Status == nil {
		return ""
	}

	return e.Sys.Status.Sys.ID
}

// JobKind implements JobIdentifier.
func (e *Environment) JobKind() string { return "Environment" }

// JobID implements JobIdentifier.
func (e *Environment) JobID() string {
	if e == nil {
		return ""
	}

	return e.Sys.ID
}

// Ready reports whether the environment finished processing.
func (e *Environment) Ready() bool {
	return e.JobStatus() == EnvironmentStatusReady
}

// EnvironmentCreateRequest is the body of an environment create request.
type EnvironmentCreateRequest struct {
	Name string `json:"name"`
}

// EnvironmentsClient defines operations for environments.
type EnvironmentsClient interface {
	Get(ctx context.Context, spaceID, environmentID string) (*Environment, error)
	List(ctx context.Context, spaceID string) (*Collection[Environment], error)
	// Create creates or clones an environment. An empty sourceEnvironmentID
	// clones the space's master environment.
	Create(ctx context.Context, spaceID, environmentID string, request *EnvironmentCreateRequest, sourceEnvironmentID string) (*Environment, error)
	Delete(ctx context.Context, spaceID, environmentID string) error
	// WaitUntilReady polls the environment until it is ready or failed.
	WaitUntilReady(ctx context.Context, spaceID, environmentID string, policy *PollingPolicy) (*Environment, error)
}
