package client

import (
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/cma/internal/auth"
	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// Client implements the cma.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	baseURL      string
	logger       cma.Logger
	polling      *pollDefaults

	// Resource clients
	bulkActions  *BulkActionsClient
	releases     *ReleasesClient
	aiActions    *AIActionsClient
	environments *EnvironmentsClient
}

// New creates a new API client from config.
func New(config *cma.Config) (*Client, error) {
	if config == nil {
		return nil, cma.ErrConfigRequired
	}

	if config.AccessToken == "" {
		return nil, cma.ErrAccessTokenRequired
	}

	return NewWithTokenManager(config, auth.NewStaticTokenManager(config.AccessToken))
}

// NewWithTokenManager creates a new API client with a custom token manager.
func NewWithTokenManager(config *cma.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, cma.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, cma.ErrAPIEndpointRequired
	}

	err := validatePollingPolicy(config.PollingPolicy)
	if err != nil {
		return nil, err
	}

	httpClient := http.NewClient(config.APIEndpoint, tokenManager, createHTTPClientOptions(config)...)

	logger := config.Logger
	if logger == nil {
		logger = cma.NoopLogger{}
	}

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		baseURL:      config.APIEndpoint,
		logger:       logger,
		polling:      newPollDefaults(config.PollingPolicy, logger),
	}

	client.initializeResourceClients()

	return client, nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *cma.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.ExtendedRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

func validatePollingPolicy(policy *cma.PollingPolicy) error {
	if policy == nil {
		return nil
	}

	err := policy.Validate()
	if err != nil {
		return fmt.Errorf("default polling policy: %w", err)
	}

	return nil
}

func (c *Client) initializeResourceClients() {
	c.bulkActions = NewBulkActionsClient(c.httpClient, c.polling)
	c.releases = NewReleasesClient(c.httpClient, c.polling)
	c.aiActions = NewAIActionsClient(c.httpClient, c.polling)
	c.environments = NewEnvironmentsClient(c.httpClient, c.polling)
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// BulkActions implements cma.Client.BulkActions.
func (c *Client) BulkActions() cma.BulkActionsClient {
	return c.bulkActions
}

// Releases implements cma.Client.Releases.
func (c *Client) Releases() cma.ReleasesClient {
	return c.releases
}

// AIActions implements cma.Client.AIActions.
func (c *Client) AIActions() cma.AIActionsClient {
	return c.aiActions
}

// Environments implements cma.Client.Environments.
func (c *Client) Environments() cma.EnvironmentsClient {
	return c.environments
}

// environmentPath returns the base path of an environment.
func environmentPath(spaceID, environmentID string) (string, error) {
	if spaceID == "" {
		return "", cma.ErrSpaceIDRequired
	}

	if environmentID == "" {
		return "", cma.ErrEnvironmentIDRequired
	}

	return "/spaces/" + url.PathEscape(spaceID) + "/environments/" + url.PathEscape(environmentID), nil
}

// resourcePath joins escaped segments under an environment path.
func resourcePath(spaceID, environmentID string, segments ...string) (string, error) {
	path, err := environmentPath(spaceID, environmentID)
	if err != nil {
		return "", err
	}

	for _, segment := range segments {
		if segment == "" {
			return "", cma.ErrResourceIDRequired
		}

		path += "/" + url.PathEscape(segment)
	}

	return path, nil
}
