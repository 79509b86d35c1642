package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/cma/internal/http"
	"github.com/fivetwenty-io/cma/pkg/cma"
)

// AIActionsClient implements cma.AIActionsClient.
type AIActionsClient struct {
	httpClient *http.Client
	polling    *pollDefaults
}

// NewAIActionsClient creates a new AI actions client.
func NewAIActionsClient(httpClient *http.Client, polling *pollDefaults) *AIActionsClient {
	return &AIActionsClient{
		httpClient: httpClient,
		polling:    polling,
	}
}

// Invoke implements cma.AIActionsClient.Invoke.
func (c *AIActionsClient) Invoke(ctx context.Context, spaceID, environmentID, aiActionID string, request *cma.AIActionInvocationRequest) (*cma.AIActionInvocation, error) {
	path, err := resourcePath(spaceID, environmentID, "ai", "actions", aiActionID, "invoke")
	if err != nil {
		return nil, err
	}

	if request == nil {
		request = &cma.AIActionInvocationRequest{}
	}

	body := *request
	if body.OutputFormat == "" {
		body.OutputFormat = cma.AIOutputFormatMarkdown
	}

	if body.Variables == nil {
		body.Variables = []cma.AIActionVariable{}
	}

	resp, err := c.httpClient.Post(ctx, path, &body)
	if err != nil {
		return nil, fmt.Errorf("invoking AI action: %w", err)
	}

	return decode[cma.AIActionInvocation](resp, "AI action invocation")
}

// GetInvocation implements cma.AIActionsClient.GetInvocation.
func (c *AIActionsClient) GetInvocation(ctx context.Context, spaceID, environmentID, aiActionID, invocationID string) (*cma.AIActionInvocation, error) {
	path, err := resourcePath(spaceID, environmentID, "ai", "actions", aiActionID, "invocations", invocationID)
	if err != nil {
		return nil, err
	}

	return getJSON[cma.AIActionInvocation](ctx, c.httpClient, path, "AI action invocation")
}

// WaitInvocation implements cma.AIActionsClient.WaitInvocation.
func (c *AIActionsClient) WaitInvocation(ctx context.Context, spaceID, environmentID, aiActionID, invocationID string, policy *cma.PollingPolicy) (*cma.AIActionInvocation, error) {
	fetch := func(ctx context.Context) (*cma.AIActionInvocation, error) {
		return c.GetInvocation(ctx, spaceID, environmentID, aiActionID, invocationID)
	}

	return cma.PollUntilTerminal(ctx, fetch, cma.AIInvocationStatuses.Classify, c.polling.resolve(policy))
}

// InvokeAndWait implements cma.AIActionsClient.InvokeAndWait.
func (c *AIActionsClient) InvokeAndWait(ctx context.Context, spaceID, environmentID, aiActionID string, request *cma.AIActionInvocationRequest, policy *cma.PollingPolicy) (*cma.AIActionInvocation, error) {
	invocation, err := c.Invoke(ctx, spaceID, environmentID, aiActionID, request)
	if err != nil {
		return nil, err
	}

	return c.WaitInvocation(ctx, spaceID, environmentID, aiActionID, invocation.Sys.ID, policy)
}
