package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("user token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Upstream service errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrUpstreamUnavailable = fmt.Errorf("upstream temporarily unavailable")

	// Taste engine errors
	ErrInvalidActivityData = fmt.Errorf("malformed listening activity payload")
	ErrProfileNotFound     = fmt.Errorf("taste profile not found")
	ErrEmptyProfile        = fmt.Errorf("taste profile is empty")
	ErrSchemaMismatch      = fmt.Errorf("embedding schema version mismatch")
	ErrUserNotFound        = fmt.Errorf("user not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
