package cma_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/cma/pkg/cma"
)

var errFetchBoom = errors.New("boom")

type fakeJob struct {
	Status string
	Result string
}

func (j *fakeJob) JobStatus() string {
	if j == nil {
		return ""
	}

	return j.Status
}

func (j *fakeJob) JobKind() string { return "FakeJob" }
func (j *fakeJob) JobID() string   { return "job-1" }

var fakeStatuses = cma.StatusTable{
	"created":    cma.JobRolePending,
	"inProgress": cma.JobRoleInProgress,
	"succeeded":  cma.JobRoleSucceeded,
	"failed":     cma.JobRoleFailed,
}

// scriptedFetcher returns statuses in order and repeats the last one.
type scriptedFetcher struct {
	statuses []string
	failAt   int
	calls    atomic.Int32
}

func (f *scriptedFetcher) fetch(_ context.Context) (*fakeJob, error) {
	call := int(f.calls.Add(1))

	if f.failAt > 0 && call == f.failAt {
		return nil, errFetchBoom
	}

	index := min(call, len(f.statuses)) - 1

	return &fakeJob{Status: f.statuses[index], Result: "r"}, nil
}

func (f *scriptedFetcher) Calls() int {
	return int(f.calls.Load())
}

func repeat(status string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = status
	}

	return out
}

func fastPolicy(retries int) *cma.PollingPolicy {
	return cma.DefaultPollingPolicy().
		WithRetryCount(retries).
		WithRetryInterval(time.Millisecond)
}

func TestPollUntilTerminal_BoundedAttempts(t *testing.T) {
	t.Parallel()

	for _, retries := range []int{0, 1, 3, 7} {
		fetcher := &scriptedFetcher{statuses: []string{"inProgress"}}

		job, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, fastPolicy(retries))
		require.ErrorIs(t, err, cma.ErrPollingTimeout)
		assert.Nil(t, job)
		assert.Equal(t, retries+1, fetcher.Calls(), "retries=%d", retries)
	}
}

func TestPollUntilTerminal_ImmediateSuccess(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{statuses: []string{"succeeded"}}
	policy := cma.DefaultPollingPolicy().WithRetryInterval(time.Hour)

	start := time.Now()
	job, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, policy)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", job.Status)
	assert.Equal(t, 1, fetcher.Calls())
	assert.Less(t, time.Since(start), time.Second)
}

func TestPollUntilTerminal_InitialDelay(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{statuses: []string{"succeeded"}}
	policy := fastPolicy(1).WithInitialDelay(30 * time.Millisecond)

	start := time.Now()
	_, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, policy)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestPollUntilTerminal_Timeout(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{statuses: []string{"inProgress"}}
	policy := cma.DefaultPollingPolicy().WithRetryCount(3).WithRetryInterval(0)

	job, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, policy)
	require.Error(t, err)
	assert.Nil(t, job)
	assert.Equal(t, 4, fetcher.Calls())

	var timeoutErr *cma.PollingTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 4, timeoutErr.Attempts)
	assert.Equal(t, "inProgress", timeoutErr.Job.JobStatus())
	assert.NotErrorIs(t, err, cma.ErrJobFailed)
	assert.Contains(t, err.Error(), "timed out")
	assert.Contains(t, err.Error(), "FakeJob job-1")
}

func TestPollUntilTerminal_FailureGating(t *testing.T) {
	t.Parallel()

	t.Run("resolves failed job", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{statuses: []string{"failed"}}

		job, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, fastPolicy(5))
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, "failed", job.Status)
		assert.Equal(t, 1, fetcher.Calls())
	})

	t.Run("rejects with job attached", func(t *testing.T) {
		t.Parallel()

		fetcher := &scriptedFetcher{statuses: []string{"failed"}}
		policy := fastPolicy(5).WithThrowOnFailedExecution(true)

		job, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, policy)
		require.ErrorIs(t, err, cma.ErrJobFailed)
		assert.Nil(t, job)
		assert.NotErrorIs(t, err, cma.ErrPollingTimeout)

		var failedErr *cma.JobFailedError
		require.ErrorAs(t, err, &failedErr)
		assert.Equal(t, "failed", failedErr.Job.JobStatus())
		assert.Equal(t, 1, failedErr.Attempts)
		assert.Equal(t, 1, fetcher.Calls())
	})
}

func TestPollUntilTerminal_FetchErrorPassthrough(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{statuses: []string{"inProgress"}, failAt: 3}

	job, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, fastPolicy(10))
	require.Error(t, err)
	assert.Same(t, errFetchBoom, err)
	assert.Nil(t, job)
	assert.Equal(t, 3, fetcher.Calls())
}

func TestPollUntilTerminal_EventualSuccess(t *testing.T) {
	t.Parallel()

	statuses := append(repeat("created", 9), "succeeded")
	fetcher := &scriptedFetcher{statuses: statuses}
	policy := cma.DefaultPollingPolicy().WithRetryCount(10).WithRetryInterval(5 * time.Millisecond)

	start := time.Now()
	job, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, policy)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", job.Status)
	assert.Equal(t, "r", job.Result)
	assert.Equal(t, 10, fetcher.Calls())
	assert.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)
}

func TestPollUntilTerminal_UnknownStatusKeepsPolling(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{statuses: []string{"mystery", "", "succeeded"}}

	job, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, fastPolicy(5))
	require.NoError(t, err)
	assert.Equal(t, "succeeded", job.Status)
	assert.Equal(t, 3, fetcher.Calls())
}

func TestPollUntilTerminal_Arguments(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{statuses: []string{"succeeded"}}

	_, err := cma.PollUntilTerminal[*fakeJob](context.Background(), nil, fakeStatuses.Classify, nil)
	require.ErrorIs(t, err, cma.ErrNilStatusFetcher)

	_, err = cma.PollUntilTerminal(context.Background(), fetcher.fetch, nil, nil)
	require.ErrorIs(t, err, cma.ErrNilStatusClassifier)

	_, err = cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify,
		cma.DefaultPollingPolicy().WithRetryInterval(-time.Second))
	require.ErrorIs(t, err, cma.ErrInvalidPollingPolicy)
	assert.Equal(t, 0, fetcher.Calls())

	job, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, nil)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", job.Status)
}

func TestPollUntilTerminal_ContextCancelled(t *testing.T) {
	t.Parallel()

	t.Run("during initial delay", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fetcher := &scriptedFetcher{statuses: []string{"succeeded"}}

		_, err := cma.PollUntilTerminal(ctx, fetcher.fetch, fakeStatuses.Classify, fastPolicy(1).WithInitialDelay(time.Hour))
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, fetcher.Calls())
	})

	t.Run("between attempts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		fetcher := &scriptedFetcher{statuses: []string{"inProgress"}}
		policy := cma.DefaultPollingPolicy().WithRetryCount(100).WithRetryInterval(20 * time.Millisecond)

		job, err := cma.PollUntilTerminal(ctx, fetcher.fetch, fakeStatuses.Classify, policy)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, cma.ErrPollingTimeout)
		assert.Nil(t, job)
		assert.Less(t, fetcher.Calls(), 10)
	})
}

func TestPollUntilTerminal_Events(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []cma.PollEvent
	)

	observer := cma.PollObserverFunc(func(_ context.Context, event cma.PollEvent) {
		mu.Lock()
		defer mu.Unlock()

		events = append(events, event)
	})

	fetcher := &scriptedFetcher{statuses: []string{"created", "succeeded"}}
	policy := fastPolicy(3).WithObserver(observer)

	_, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, policy)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	states := make([]cma.PollState, 0, len(events))
	for _, event := range events {
		states = append(states, event.State)
	}

	assert.Equal(t, []cma.PollState{
		cma.PollStateWaitingInitial,
		cma.PollStateChecking,
		cma.PollStateWaitingRetry,
		cma.PollStateChecking,
		cma.PollStateSucceeded,
	}, states)

	last := events[len(events)-1]
	assert.Equal(t, 2, last.Attempt)
	assert.Equal(t, "FakeJob", last.JobKind)
	assert.Equal(t, "job-1", last.JobID)
	assert.Equal(t, "succeeded", last.Status)
	assert.NotEmpty(t, last.PollID)

	for _, event := range events {
		assert.Equal(t, last.PollID, event.PollID)
	}
}

func TestPollUntilTerminal_Independent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup

	results := make([]int, 8)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			fetcher := &scriptedFetcher{statuses: append(repeat("inProgress", i), "succeeded")}

			_, err := cma.PollUntilTerminal(context.Background(), fetcher.fetch, fakeStatuses.Classify, fastPolicy(10))
			assert.NoError(t, err)

			results[i] = fetcher.Calls()
		}(i)
	}

	wg.Wait()

	for i, calls := range results {
		assert.Equal(t, i+1, calls)
	}
}

func TestPollingPolicy(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		policy := cma.DefaultPollingPolicy()
		assert.Equal(t, 30, policy.RetryCount)
		assert.Equal(t, 2*time.Second, policy.RetryInterval)
		assert.Zero(t, policy.InitialDelay)
		assert.False(t, policy.ThrowOnFailedExecution)
		assert.Equal(t, 60*time.Second, policy.MaxDuration())
	})

	t.Run("builders copy", func(t *testing.T) {
		t.Parallel()

		base := cma.DefaultPollingPolicy()
		derived := base.WithRetryCount(3).WithInitialDelay(time.Second).WithThrowOnFailedExecution(true)

		assert.Equal(t, 30, base.RetryCount)
		assert.Zero(t, base.InitialDelay)
		assert.False(t, base.ThrowOnFailedExecution)
		assert.Equal(t, 3, derived.RetryCount)
		assert.Equal(t, time.Second+6*time.Second, derived.MaxDuration())
	})

	t.Run("nil receiver starts from defaults", func(t *testing.T) {
		t.Parallel()

		var policy *cma.PollingPolicy

		assert.Equal(t, 5, policy.WithRetryCount(5).RetryCount)
		assert.Equal(t, 2*time.Second, policy.WithRetryCount(5).RetryInterval)
	})

	t.Run("validate", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, cma.DefaultPollingPolicy().WithRetryCount(0).WithRetryInterval(0).Validate())
		require.ErrorIs(t, cma.DefaultPollingPolicy().WithRetryCount(-1).Validate(), cma.ErrInvalidPollingPolicy)
		require.ErrorIs(t, cma.DefaultPollingPolicy().WithInitialDelay(-1).Validate(), cma.ErrInvalidPollingPolicy)
		require.ErrorIs(t, cma.DefaultPollingPolicy().WithRetryInterval(-1).Validate(), cma.ErrInvalidPollingPolicy)
	})
}

func TestJobRole(t *testing.T) {
	t.Parallel()

	assert.False(t, cma.JobRoleUnknown.Terminal())
	assert.False(t, cma.JobRolePending.Terminal())
	assert.False(t, cma.JobRoleInProgress.Terminal())
	assert.True(t, cma.JobRoleSucceeded.Terminal())
	assert.True(t, cma.JobRoleFailed.Terminal())

	assert.Equal(t, cma.JobRoleUnknown, fakeStatuses.Classify("nope"))
}
