// Package cmaclient provides the main entry point for creating content management API clients
package cmaclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/cma/internal/client"
	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// New creates a new content management API client. An empty endpoint means
// the public API; endpoints without a scheme are assumed to be https.
func New(_ context.Context, config *cma.Config) (cma.Client, error) {
	if config == nil {
		return nil, cma.ErrConfigRequired
	}

	cfg := *config
	cfg.APIEndpoint = normalizeEndpoint(cfg.APIEndpoint)

	c, err := client.New(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithToken creates a new client for the public API with an access token.
func NewWithToken(ctx context.Context, token string) (cma.Client, error) {
	return New(ctx, &cma.Config{
		AccessToken: token,
	})
}

// NewWithEndpoint creates a new client with an API endpoint and access token.
func NewWithEndpoint(ctx context.Context, endpoint, token string) (cma.Client, error) {
	return New(ctx, &cma.Config{
		APIEndpoint: endpoint,
		AccessToken: token,
	})
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return constants.DefaultAPIEndpoint
	}

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}
