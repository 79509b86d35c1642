package client

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"

	"github.com/fivetwenty-io/cma/internal/constants"
	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// EnvironmentsClient implements cma.EnvironmentsClient.
type EnvironmentsClient struct {
	httpClient *http.Client
	polling    *pollDefaults
}

// NewEnvironmentsClient creates a new environments client.
func NewEnvironmentsClient(httpClient *http.Client, polling *pollDefaults) *EnvironmentsClient {
	return &EnvironmentsClient{
		httpClient: httpClient,
		polling:    polling,
	}
}

// Get implements cma.EnvironmentsClient.Get.
func (c *EnvironmentsClient) Get(ctx context.Context, spaceID, environmentID string) (*cma.Environment, error) {
	path, err := environmentPath(spaceID, environmentID)
	if err != nil {
		return nil, err
	}

	return getJSON[cma.Environment](ctx, c.httpClient, path, "environment")
}

// List implements cma.EnvironmentsClient.List.
func (c *EnvironmentsClient) List(ctx context.Context, spaceID string) (*cma.Collection[cma.Environment], error) {
	if spaceID == "" {
		return nil, cma.ErrSpaceIDRequired
	}

	return getJSON[cma.Collection[cma.Environment]](ctx, c.httpClient, "/spaces/"+url.PathEscape(spaceID)+"/environments", "environments")
}

// Create implements cma.EnvironmentsClient.Create.
func (c *EnvironmentsClient) Create(ctx context.Context, spaceID, environmentID string, request *cma.EnvironmentCreateRequest, sourceEnvironmentID string) (*cma.Environment, error) {
	path, err := environmentPath(spaceID, environmentID)
	if err != nil {
		return nil, err
	}

	body := cma.EnvironmentCreateRequest{Name: environmentID}
	if request != nil && request.Name != "" {
		body.Name = request.Name
	}

	req := &http.Request{
		Method: nethttp.MethodPut,
		Path:   path,
		Body:   &body,
	}

	if sourceEnvironmentID != "" {
		req.Headers = map[string]string{constants.HeaderSourceEnvironment: sourceEnvironmentID}
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating environment: %w", err)
	}

	return decode[cma.Environment](resp, "environment")
}

// Delete implements cma.EnvironmentsClient.Delete.
func (c *EnvironmentsClient) Delete(ctx context.Context, spaceID, environmentID string) error {
	path, err := environmentPath(spaceID, environmentID)
	if err != nil {
		return err
	}

	_, err = c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting environment: %w", err)
	}

	return nil
}

// WaitUntilReady implements cma.EnvironmentsClient.WaitUntilReady.
func (c *EnvironmentsClient) WaitUntilReady(ctx context.Context, spaceID, environmentID string, policy *cma.PollingPolicy) (*cma.Environment, error) {
	fetch := func(ctx context.Context) (*cma.Environment, error) {
		return c.Get(ctx, spaceID, environmentID)
	}

	return cma.PollUntilTerminal(ctx, fetch, cma.EnvironmentStatuses.Classify, c.polling.resolve(policy))
}
