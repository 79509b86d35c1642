package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"strconv"

	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// ReleasesClient implements cma.ReleasesClient.
type ReleasesClient struct {
	httpClient *http.Client
	polling    *pollDefaults
}

// NewReleasesClient creates a new releases client.
func NewReleasesClient(httpClient *http.Client, polling *pollDefaults) *ReleasesClient {
	return &ReleasesClient{
		httpClient: httpClient,
		polling:    polling,
	}
}

// Get implements cma.ReleasesClient.Get.
func (c *ReleasesClient) Get(ctx context.Context, spaceID, environmentID, releaseID string) (*cma.Release, error) {
	path, err := resourcePath(spaceID, environmentID, "releases", releaseID)
	if err != nil {
		return nil, err
	}

	return getJSON[cma.Release](ctx, c.httpClient, path, "release")
}

// Create implements cma.ReleasesClient.Create.
func (c *ReleasesClient) Create(ctx context.Context, spaceID, environmentID string, request *cma.ReleaseCreateRequest) (*cma.Release, error) {
	if request == nil {
		return nil, cma.ErrNoEntities
	}

	path, err := resourcePath(spaceID, environmentID, "releases")
	if err != nil {
		return nil, err
	}

	body := *request
	if body.Entities.Sys.Type == "" {
		body.Entities = cma.NewEntityCollection(body.Entities.Items...)
	}

	resp, err := c.httpClient.Post(ctx, path, &body)
	if err != nil {
		return nil, fmt.Errorf("creating release: %w", err)
	}

	return decode[cma.Release](resp, "release")
}

// Publish implements cma.ReleasesClient.Publish.
func (c *ReleasesClient) Publish(ctx context.Context, spaceID, environmentID, releaseID string, version int) (*cma.ReleaseAction, error) {
	return c.versioned(ctx, nethttp.MethodPut, cma.ReleaseActionPublish, spaceID, environmentID, releaseID, version)
}

// Unpublish implements cma.ReleasesClient.Unpublish.
func (c *ReleasesClient) Unpublish(ctx context.Context, spaceID, environmentID, releaseID string, version int) (*cma.ReleaseAction, error) {
	return c.versioned(ctx, nethttp.MethodDelete, cma.ReleaseActionUnpublish, spaceID, environmentID, releaseID, version)
}

// versioned sends a publish-state change guarded by the release version.
func (c *ReleasesClient) versioned(ctx context.Context, method, action, spaceID, environmentID, releaseID string, version int) (*cma.ReleaseAction, error) {
	path, err := resourcePath(spaceID, environmentID, "releases", releaseID, "published")
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method:  method,
		Path:    path,
		Headers: map[string]string{constants.HeaderVersion: strconv.Itoa(version)},
	})
	if err != nil {
		return nil, fmt.Errorf("starting release %s: %w", action, err)
	}

	return decode[cma.ReleaseAction](resp, "release action")
}

// Validate implements cma.ReleasesClient.Validate.
func (c *ReleasesClient) Validate(ctx context.Context, spaceID, environmentID, releaseID string) (*cma.ReleaseAction, error) {
	path, err := resourcePath(spaceID, environmentID, "releases", releaseID, "validate")
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(ctx, path, map[string]string{"action": cma.ReleaseActionPublish})
	if err != nil {
		return nil, fmt.Errorf("starting release validate: %w", err)
	}

	return decode[cma.ReleaseAction](resp, "release action")
}

// GetAction implements cma.ReleasesClient.GetAction.
func (c *ReleasesClient) GetAction(ctx context.Context, spaceID, environmentID, releaseID, actionID string) (*cma.ReleaseAction, error) {
	path, err := resourcePath(spaceID, environmentID, "releases", releaseID, "actions", actionID)
	if err != nil {
		return nil, err
	}

	return getJSON[cma.ReleaseAction](ctx, c.httpClient, path, "release action")
}

// WaitAction implements cma.ReleasesClient.WaitAction.
func (c *ReleasesClient) WaitAction(ctx context.Context, spaceID, environmentID, releaseID, actionID string, policy *cma.PollingPolicy) (*cma.ReleaseAction, error) {
	fetch := func(ctx context.Context) (*cma.ReleaseAction, error) {
		return c.GetAction(ctx, spaceID, environmentID, releaseID, actionID)
	}

	return cma.PollUntilTerminal(ctx, fetch, cma.ReleaseActionStatuses.Classify, c.polling.resolve(policy))
}

// PublishAndWait implements cma.ReleasesClient.PublishAndWait.
func (c *ReleasesClient) PublishAndWait(ctx context.Context, spaceID, environmentID, releaseID string, version int, policy *cma.PollingPolicy) (*cma.ReleaseAction, error) {
	action, err := c.Publish(ctx, spaceID, environmentID, releaseID, version)
	if err != nil {
		return nil, err
	}

	return c.WaitAction(ctx, spaceID, environmentID, releaseID, action.Sys.ID, policy)
}

// UnpublishAndWait implements cma.ReleasesClient.UnpublishAndWait.
func (c *ReleasesClient) UnpublishAndWait(ctx context.Context, spaceID, environmentID, releaseID string, version int, policy *cma.PollingPolicy) (*cma.ReleaseAction, error) {
	action, err := c.Unpublish(ctx, spaceID, environmentID, releaseID, version)
	if err != nil {
		return nil, err
	}

	return c.WaitAction(ctx, spaceID, environmentID, releaseID, action.Sys.ID, policy)
}

// ValidateAndWait implements cma.ReleasesClient.ValidateAndWait.
func (c *ReleasesClient) ValidateAndWait(ctx context.Context, spaceID, environmentID, releaseID string, policy *cma.PollingPolicy) (*cma.ReleaseAction, error) {
	action, err := c.Validate(ctx, spaceID, environmentID, releaseID)
	if err != nil {
		return nil, err
	}

	return c.WaitAction(ctx, spaceID, environmentID, releaseID, action.Sys.ID, policy)
}
