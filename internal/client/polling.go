package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// pollDefaults fills in what a caller's policy leaves open: the client-wide
// default policy when none is given, and the client logger when the policy
// has none.
type pollDefaults struct {
	policy *cma.PollingPolicy
	logger cma.Logger
}

func newPollDefaults(policy *cma.PollingPolicy, logger cma.Logger) *pollDefaults {
	if policy == nil {
		policy = cma.DefaultPollingPolicy()
	}

	return &pollDefaults{policy: policy, logger: logger}
}

func (d *pollDefaults) resolve(policy *cma.PollingPolicy) *cma.PollingPolicy {
	if d == nil {
		return policy
	}

	if policy == nil {
		policy = d.policy
	}

	if policy.Logger == nil && d.logger != nil {
		policy = policy.WithLogger(d.logger)
	}

	return policy
}

// getJSON fetches path and decodes the body into a new T.
func getJSON[T any](ctx context.Context, httpClient *http.Client, path, what string) (*T, error) {
	resp, err := httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", what, err)
	}

	return decode[T](resp, what)
}

func decode[T any](resp *http.Response, what string) (*T, error) {
	var out T

	err := json.Unmarshal(resp.Body, &out)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", what, err)
	}

	return &out, nil
}
