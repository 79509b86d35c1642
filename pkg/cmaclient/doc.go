// Package cmaclient provides the primary entry point for constructing a
// content management API client that implements the cma.Client interface.
//
// It layers configuration, HTTP transport with retries, and token handling on
// top of the resource interfaces and types defined in the cma package. Most
// applications should import cmaclient to build a client, then use the
// returned cma.Client to access resource-specific clients, for example
// BulkActions(), Releases(), AIActions() and Environments().
//
// Quick start
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
//
//	  // The public API with a personal access token.
//	  cli, err := cmaclient.NewWithToken(ctx, "CFPAT-...")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or a regional endpoint with a client-wide polling default.
//	  cli, err = cmaclient.New(ctx, &cma.Config{
//	    APIEndpoint:   "api.eu.contentful.com",
//	    AccessToken:   "CFPAT-...",
//	    PollingPolicy: cma.DefaultPollingPolicy().WithRetryCount(60),
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  env, err := cli.Environments().Create(ctx, "space-id", "staging", nil, "master")
//	  if err != nil { log.Fatal(err) }
//
//	  env, err = cli.Environments().WaitUntilReady(ctx, "space-id", env.Sys.ID, nil)
//	  if err != nil { log.Fatal(err) }
//	}
//
// # Helpers
//
// The package also provides the convenience constructors NewWithToken and
// NewWithEndpoint that wrap New with the appropriate configuration.
package cmaclient
