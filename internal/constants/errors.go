package constants

import "errors"

// Configuration errors.
var (
	ErrNoAccessToken     = errors.New("no access token configured, use 'cma config set-token' or --token")
	ErrNoSpaceConfigured = errors.New("no space configured, use --space or 'cma config set space <id>'")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
)

// Validation errors.
var (
	ErrInvalidVariable      = errors.New("invalid variable, expected ID=VALUE")
	ErrNoEntitiesSpecified  = errors.New("no entities specified, use --entry or --asset")
	ErrInvalidEntityVersion = errors.New("invalid entity reference, expected ID or ID@VERSION")
	ErrInvalidOutputFormat  = errors.New("invalid output format")
)
