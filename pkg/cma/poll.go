package cma

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/fivetwenty-io/cma/internal/constants"
)

// TrackedJob is a remotely processed unit of work whose completion is
// observed by polling. The poller only ever reads JobStatus.
type TrackedJob interface {
	JobStatus() string
}

// JobIdentifier is implemented by tracked jobs that can name themselves.
// Poll events and log fields include the kind and ID when available.
type JobIdentifier interface {
	JobKind() string
	JobID() string
}

// JobRole is the lifecycle role a resource-specific status label maps to.
type JobRole int

const (
	// JobRoleUnknown is an unrecognised status. It is treated as non-terminal.
	JobRoleUnknown JobRole = iota
	JobRolePending
	JobRoleInProgress
	JobRoleSucceeded
	JobRoleFailed
)

func (r JobRole) String() string {
	switch r {
	case JobRolePending:
		return "pending"
	case JobRoleInProgress:
		return "in_progress"
	case JobRoleSucceeded:
		return "succeeded"
	case JobRoleFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions follow this role.
func (r JobRole) Terminal() bool {
	return r == JobRoleSucceeded || r == JobRoleFailed
}

// StatusClassifier maps a status label to its role.
type StatusClassifier func(status string) JobRole

// StatusTable is a StatusClassifier backed by a lookup table. Labels missing
// from the table classify as JobRoleUnknown.
type StatusTable map[string]JobRole

// Classify implements StatusClassifier.
func (t StatusTable) Classify(status string) JobRole {
	return t[status]
}

// StatusFetcher performs one status round trip for a tracked job.
type StatusFetcher[T TrackedJob] func(ctx context.Context) (T, error)

// Static errors for err113 compliance.
var (
	ErrJobFailed            = errors.New("job failed")
	ErrPollingTimeout       = errors.New("polling timed out")
	ErrInvalidPollingPolicy = errors.New("invalid polling policy")
	ErrNilStatusFetcher     = errors.New("status fetcher is required")
	ErrNilStatusClassifier  = errors.New("status classifier is required")
)

// JobFailedError is returned when a job reaches the failed role and the
// policy asks for failures to be surfaced as errors.
type JobFailedError struct {
	Job      TrackedJob
	Attempts int
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("%s: %s finished with status %q after %d status checks",
		ErrJobFailed, describeJob(e.Job), e.Job.JobStatus(), e.Attempts)
}

// Is matches ErrJobFailed.
func (e *JobFailedError) Is(target error) bool {
	return target == ErrJobFailed
}

// PollingTimeoutError is returned when the retry budget runs out before the
// job reaches a terminal role. Job is the last observed snapshot.
type PollingTimeoutError struct {
	Job      TrackedJob
	Attempts int
}

func (e *PollingTimeoutError) Error() string {
	return fmt.Sprintf("%s: %s still %q after %d status checks",
		ErrPollingTimeout, describeJob(e.Job), e.Job.JobStatus(), e.Attempts)
}

// Is matches ErrPollingTimeout.
func (e *PollingTimeoutError) Is(target error) bool {
	return target == ErrPollingTimeout
}

func describeJob(job TrackedJob) string {
	if ident, ok := job.(JobIdentifier); ok {
		return fmt.Sprintf("%s %s", ident.JobKind(), ident.JobID())
	}

	return "job"
}

// PollingPolicy governs a single PollUntilTerminal call.
type PollingPolicy struct {
	// InitialDelay is waited once before the first status check.
	InitialDelay time.Duration
	// RetryCount is the number of status checks allowed after the first one.
	RetryCount int
	// RetryInterval is waited between two status checks.
	RetryInterval time.Duration
	// ThrowOnFailedExecution turns a failed job into a *JobFailedError.
	// When false the failed job is returned with a nil error.
	ThrowOnFailedExecution bool

	// Logger receives attempt and outcome logs. Nil discards them.
	Logger Logger
	// Observer receives state transitions. Nil disables events.
	Observer PollObserver
}

// DefaultPollingPolicy returns the policy used when none is given.
func DefaultPollingPolicy() *PollingPolicy {
	return &PollingPolicy{
		InitialDelay:  0,
		RetryCount:    constants.DefaultPollRetryCount,
		RetryInterval: constants.DefaultPollInterval,
	}
}

func (p *PollingPolicy) clone() *PollingPolicy {
	if p == nil {
		return DefaultPollingPolicy()
	}

	cp := *p

	return &cp
}

// WithInitialDelay returns a copy with the initial delay set.
func (p *PollingPolicy) WithInitialDelay(delay time.Duration) *PollingPolicy {
	cp := p.clone()
	cp.InitialDelay = delay

	return cp
}

// WithRetryCount returns a copy with the retry count set.
func (p *PollingPolicy) WithRetryCount(count int) *PollingPolicy {
	cp := p.clone()
	cp.RetryCount = count

	return cp
}

// WithRetryInterval returns a copy with the retry interval set.
func (p *PollingPolicy) WithRetryInterval(interval time.Duration) *PollingPolicy {
	cp := p.clone()
	cp.RetryInterval = interval

	return cp
}

// WithThrowOnFailedExecution returns a copy with failure surfacing set.
func (p *PollingPolicy) WithThrowOnFailedExecution(throw bool) *PollingPolicy {
	cp := p.clone()
	cp.ThrowOnFailedExecution = throw

	return cp
}

// WithLogger returns a copy with the logger set.
func (p *PollingPolicy) WithLogger(logger Logger) *PollingPolicy {
	cp := p.clone()
	cp.Logger = logger

	return cp
}

// WithObserver returns a copy with the observer set.
func (p *PollingPolicy) WithObserver(observer PollObserver) *PollingPolicy {
	cp := p.clone()
	cp.Observer = observer

	return cp
}

// Validate checks that counts and durations are not negative.
func (p *PollingPolicy) Validate() error {
	switch {
	case p.InitialDelay < 0:
		return fmt.Errorf("%w: negative initial delay %s", ErrInvalidPollingPolicy, p.InitialDelay)
	case p.RetryCount < 0:
		return fmt.Errorf("%w: negative retry count %d", ErrInvalidPollingPolicy, p.RetryCount)
	case p.RetryInterval < 0:
		return fmt.Errorf("%w: negative retry interval %s", ErrInvalidPollingPolicy, p.RetryInterval)
	}

	return nil
}

// MaxDuration is the upper bound of time spent waiting, excluding the
// latency of the status checks themselves.
func (p *PollingPolicy) MaxDuration() time.Duration {
	return p.InitialDelay + time.Duration(p.RetryCount)*p.RetryInterval
}

// Internal markers passed through the backoff loop.
var (
	errNotTerminal    = errors.New("job not terminal")
	errTerminalFailed = errors.New("job reached failed role")
)

// PollUntilTerminal repeatedly calls fetch until the job it returns reaches a
// terminal role, or the retry budget of policy is exhausted. A nil policy
// means DefaultPollingPolicy().
//
// On success the terminal job is returned. A failed job is returned as-is, or
// as a *JobFailedError when policy.ThrowOnFailedExecution is set. Running out
// of attempts yields a *PollingTimeoutError holding the last snapshot. Errors
// returned by fetch are returned unchanged and end the poll immediately.
//
// fetch is never called concurrently with itself, and at most
// policy.RetryCount+1 times.
func PollUntilTerminal[T TrackedJob](
	ctx context.Context,
	fetch StatusFetcher[T],
	classify StatusClassifier,
	policy *PollingPolicy,
) (T, error) {
	var zero T

	if fetch == nil {
		return zero, ErrNilStatusFetcher
	}

	if classify == nil {
		return zero, ErrNilStatusClassifier
	}

	if policy == nil {
		policy = DefaultPollingPolicy()
	}

	err := policy.Validate()
	if err != nil {
		return zero, err
	}

	run := newPollRun(policy)
	run.emit(ctx, PollStateWaitingInitial, 0, nil, nil)

	err = sleepContext(ctx, policy.InitialDelay)
	if err != nil {
		return zero, fmt.Errorf("waiting before first status check: %w", err)
	}

	var (
		last     T
		attempts int
		fetchErr error
	)

	operation := func() error {
		attempts++
		run.emit(ctx, PollStateChecking, attempts, nil, nil)

		job, err := fetch(ctx)
		if err != nil {
			fetchErr = err

			return backoff.Permanent(err)
		}

		last = job

		role := classify(job.JobStatus())
		run.logAttempt(attempts, job, role)

		switch role {
		case JobRoleSucceeded:
			return nil
		case JobRoleFailed:
			return backoff.Permanent(errTerminalFailed)
		default:
			return errNotTerminal
		}
	}

	notify := func(_ error, wait time.Duration) {
		run.emit(ctx, PollStateWaitingRetry, attempts, last, nil)
		run.logger.Debug("Job not terminal, waiting", map[string]interface{}{
			"poll_id": run.id,
			"attempt": attempts,
			"wait":    wait.String(),
		})
	}

	err = backoff.RetryNotify(operation, newPollBackOff(ctx, policy), notify)

	switch {
	case err == nil:
		run.emit(ctx, PollStateSucceeded, attempts, last, nil)

		return last, nil

	case fetchErr != nil:
		run.logger.Warn("Status check failed", map[string]interface{}{
			"poll_id": run.id,
			"attempt": attempts,
			"error":   fetchErr.Error(),
		})

		return zero, fetchErr

	case errors.Is(err, errTerminalFailed):
		if !policy.ThrowOnFailedExecution {
			run.emit(ctx, PollStateFailed, attempts, last, nil)

			return last, nil
		}

		failed := &JobFailedError{Job: last, Attempts: attempts}
		run.emit(ctx, PollStateFailed, attempts, last, failed)

		return zero, failed

	case errors.Is(err, errNotTerminal):
		timeout := &PollingTimeoutError{Job: last, Attempts: attempts}
		run.emit(ctx, PollStateTimedOut, attempts, last, timeout)

		return zero, timeout

	default:
		return zero, fmt.Errorf("polling cancelled after %d status checks: %w", attempts, err)
	}
}

// newPollBackOff builds a constant interval backoff that stops after
// RetryCount retries or when ctx is done.
func newPollBackOff(ctx context.Context, policy *PollingPolicy) backoff.BackOff {
	constant := backoff.NewConstantBackOff(policy.RetryInterval)
	bounded := backoff.WithMaxRetries(constant, uint64(policy.RetryCount))

	return backoff.WithContext(bounded, ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pollRun carries the per-call identity and sinks. It is never shared
// between calls.
type pollRun struct {
	id       string
	started  time.Time
	logger   Logger
	observer PollObserver
}

func newPollRun(policy *PollingPolicy) *pollRun {
	logger := policy.Logger
	if logger == nil {
		logger = NoopLogger{}
	}

	return &pollRun{
		id:       uuid.NewString(),
		started:  time.Now(),
		logger:   logger,
		observer: policy.Observer,
	}
}

func (r *pollRun) logAttempt(attempt int, job TrackedJob, role JobRole) {
	fields := map[string]interface{}{
		"poll_id": r.id,
		"attempt": attempt,
		"status":  job.JobStatus(),
		"role":    role.String(),
	}

	if ident, ok := job.(JobIdentifier); ok {
		fields["kind"] = ident.JobKind()
		fields["id"] = ident.JobID()
	}

	r.logger.Debug("Job status checked", fields)
}

func (r *pollRun) emit(ctx context.Context, state PollState, attempt int, job TrackedJob, err error) {
	if state.Terminal() {
		fields := map[string]interface{}{
			"poll_id":  r.id,
			"state":    string(state),
			"attempts": attempt,
			"elapsed":  time.Since(r.started).String(),
		}

		if err != nil {
			fields["error"] = err.Error()
		}

		if state == PollStateSucceeded {
			r.logger.Info("Job polling finished", fields)
		} else {
			r.logger.Warn("Job polling finished", fields)
		}
	}

	if r.observer == nil {
		return
	}

	event := PollEvent{
		PollID:  r.id,
		State:   state,
		Attempt: attempt,
		Time:    time.Now(),
		Err:     err,
	}

	if job != nil {
		event.Status = job.JobStatus()

		if ident, ok := job.(JobIdentifier); ok {
			event.JobKind = ident.JobKind()
			event.JobID = ident.JobID()
		}
	}

	r.observer.OnPollEvent(ctx, event)
}
