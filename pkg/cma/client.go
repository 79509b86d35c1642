package cma

import (
	"time"
)

// Client provides access to the resource clients of one API endpoint.
type Client interface {
	BulkActions() BulkActionsClient
	Releases() ReleasesClient
	AIActions() AIActionsClient
	Environments() EnvironmentsClient
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoopLogger discards all log messages.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}

// Config represents client configuration for building a Client.
//
// # Timeouts and retries
//
// Per-request timeouts should be controlled via the context passed to client
// methods. Transport retries (429, 5xx and connection errors) are tuned via
// RetryMax/RetryWaitMin/RetryWaitMax. They are independent of async action
// polling, which is governed by PollingPolicy.
type Config struct {
	// APIEndpoint: base URL of the management API. cmaclient.New defaults it
	// to https://api.contentful.com and adds "https://" if no scheme is present.
	APIEndpoint string

	// AccessToken: personal access token or OAuth token sent as a Bearer token.
	AccessToken string

	// RetryMax: maximum number of transport retries. If 0, a default is used.
	RetryMax int
	// RetryWaitMin: minimum backoff between transport retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between transport retries.
	RetryWaitMax time.Duration

	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and the poller.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
	// HTTPTimeout: per-attempt HTTP timeout. If 0, 30s is used.
	HTTPTimeout time.Duration

	// PollingPolicy: default policy for the Wait helpers of the resource
	// clients. A nil value means DefaultPollingPolicy().
	PollingPolicy *PollingPolicy
}
