// Package cma provides types, interfaces, and helpers for working with the
// content management API.
//
// # Overview
//
// The cma package defines the domain types (BulkAction, Release,
// ReleaseAction, AIActionInvocation, Environment) and the interfaces for
// resource-oriented clients (BulkActionsClient, ReleasesClient, ...). A
// concrete implementation is provided by the cmaclient package, which wires
// configuration, transport and authentication.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/cma/pkg/cma"
//	  "github.com/fivetwenty-io/cma/pkg/cmaclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := cmaclient.New(ctx, &cma.Config{AccessToken: "CFPAT-..."})
//	  if err != nil { log.Fatal(err) }
//
//	  req := cma.NewBulkActionRequest(cma.NewEntryLink("entry-id").WithVersion(3))
//	  action, err := cli.BulkActions().Publish(ctx, "space-id", "master", req)
//	  if err != nil { log.Fatal(err) }
//	  _ = action
//	}
//
// # Asynchronous jobs
//
// Bulk actions, release actions, AI action invocations and environment
// creation are accepted by the API immediately and finish in the background.
// Each of these resources implements TrackedJob, and its client exposes a
// Wait method built on PollUntilTerminal:
//
//	policy := cma.DefaultPollingPolicy().
//	  WithRetryCount(60).
//	  WithRetryInterval(time.Second).
//	  WithThrowOnFailedExecution(true)
//
//	action, err = cli.BulkActions().Wait(ctx, "space-id", "master", action.Sys.ID, policy)
//	switch {
//	case errors.Is(err, cma.ErrJobFailed):
//	  // the action finished with status "failed"
//	case errors.Is(err, cma.ErrPollingTimeout):
//	  // still running after 60 retries
//	}
//
// A status is mapped to a JobRole by a StatusClassifier. Each resource
// publishes its table (BulkActionStatuses, ReleaseActionStatuses,
// AIInvocationStatuses, EnvironmentStatuses); unknown statuses are treated as
// still running.
//
// PollUntilTerminal can also be used directly with any fetch function:
//
//	job, err := cma.PollUntilTerminal(ctx, fetch, myStatuses.Classify, nil)
//
// # Events
//
// A PollingPolicy may carry a PollObserver. NATSObserver publishes the
// terminal event of every poll to NATS:
//
//	observer, err := cma.ConnectNATSObserver(&cma.NATSConfig{URL: nats.DefaultURL}, nil)
//	if err != nil { log.Fatal(err) }
//	defer observer.Close()
//
//	policy := cma.DefaultPollingPolicy().WithObserver(observer)
//
// # Errors
//
// API failures are returned as *APIError. Use errors.Is with ErrNotFound,
// ErrVersionMismatch and friends, or the IsNotFound style helpers.
package cma
