package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// API defaults.
const (
	// DefaultAPIEndpoint is the public content management API host.
	DefaultAPIEndpoint = "https://api.contentful.com"

	// DefaultEnvironment is the environment used when none is given.
	DefaultEnvironment = "master"

	// ContentTypeManagement is the media type for request and response bodies.
	ContentTypeManagement = "application/vnd.contentful.management.v1+json"

	// SDKName identifies this client in user agent headers.
	SDKName = "cma-go"

	// SDKVersion is the client library version.
	SDKVersion = "0.4.0"
)

// Request headers understood by the API.
const (
	HeaderVersion           = "X-Contentful-Version"
	HeaderSourceEnvironment = "X-Contentful-Source-Environment"
	HeaderUserAgent         = "X-Contentful-User-Agent"
	HeaderRequestID         = "X-Contentful-Request-Id"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits for the transport.
const (
	// DefaultRetryMax is the default maximum number of transport retries.
	DefaultRetryMax = 5

	// DefaultRetryWaitMin is the minimum wait between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second
)

// Async action polling.
const (
	// DefaultPollInterval is the wait between two status checks.
	DefaultPollInterval = 2 * time.Second

	// DefaultPollRetryCount is the number of status checks after the first one.
	DefaultPollRetryCount = 30
)

// NATS event publishing.
const (
	// DefaultEventSubjectPrefix prefixes every poll outcome subject.
	DefaultEventSubjectPrefix = "cma.jobs"

	// NATSReconnectWait is the wait between reconnect attempts.
	NATSReconnectWait = 2 * time.Second

	// NATSConnectTimeout bounds the initial connection.
	NATSConnectTimeout = 5 * time.Second
)

// HTTP status codes commonly used.
const (
	// HTTPStatusBadRequest represents a client error.
	HTTPStatusBadRequest = 400
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// TimeFormat is the display format for timestamps.
	TimeFormat = "2006-01-02 15:04:05"
)
