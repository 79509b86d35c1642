package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// BulkActionsClient implements cma.BulkActionsClient.
type BulkActionsClient struct {
	httpClient *http.Client
	polling    *pollDefaults
}

// NewBulkActionsClient creates a new bulk actions client.
func NewBulkActionsClient(httpClient *http.Client, polling *pollDefaults) *BulkActionsClient {
	return &BulkActionsClient{
		httpClient: httpClient,
		polling:    polling,
	}
}

// Get implements cma.BulkActionsClient.Get.
func (c *BulkActionsClient) Get(ctx context.Context, spaceID, environmentID, bulkActionID string) (*cma.BulkAction, error) {
	path, err := resourcePath(spaceID, environmentID, "bulk_actions", "actions", bulkActionID)
	if err != nil {
		return nil, err
	}

	return getJSON[cma.BulkAction](ctx, c.httpClient, path, "bulk action")
}

// Publish implements cma.BulkActionsClient.Publish.
func (c *BulkActionsClient) Publish(ctx context.Context, spaceID, environmentID string, request *cma.BulkActionRequest) (*cma.BulkAction, error) {
	return c.create(ctx, spaceID, environmentID, cma.BulkActionPublish, request)
}

// Unpublish implements cma.BulkActionsClient.Unpublish.
func (c *BulkActionsClient) Unpublish(ctx context.Context, spaceID, environmentID string, request *cma.BulkActionRequest) (*cma.BulkAction, error) {
	return c.create(ctx, spaceID, environmentID, cma.BulkActionUnpublish, request)
}

// Validate implements cma.BulkActionsClient.Validate.
func (c *BulkActionsClient) Validate(ctx context.Context, spaceID, environmentID string, request *cma.BulkActionRequest) (*cma.BulkAction, error) {
	return c.create(ctx, spaceID, environmentID, cma.BulkActionValidate, request)
}

func (c *BulkActionsClient) create(ctx context.Context, spaceID, environmentID, action string, request *cma.BulkActionRequest) (*cma.BulkAction, error) {
	if request == nil || len(request.Entities.Items) == 0 {
		return nil, cma.ErrNoEntities
	}

	path, err := resourcePath(spaceID, environmentID, "bulk_actions", action)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(ctx, path, request)
	if err != nil {
		return nil, fmt.Errorf("creating %s bulk action: %w", action, err)
	}

	return decode[cma.BulkAction](resp, "bulk action")
}

// Wait implements cma.BulkActionsClient.Wait.
func (c *BulkActionsClient) Wait(ctx context.Context, spaceID, environmentID, bulkActionID string, policy *cma.PollingPolicy) (*cma.BulkAction, error) {
	fetch := func(ctx context.Context) (*cma.BulkAction, error) {
		return c.Get(ctx, spaceID, environmentID, bulkActionID)
	}

	return cma.PollUntilTerminal(ctx, fetch, cma.BulkActionStatuses.Classify, c.polling.resolve(policy))
}
