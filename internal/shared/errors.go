package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Redirect capture errors
	ErrBind             = fmt.Errorf("failed to bind redirect listener")
	ErrMalformedRequest = fmt.Errorf("malformed request")
	ErrCaptureAborted   = fmt.Errorf("redirect capture ended without a callback")
	ErrInvalidState     = fmt.Errorf("invalid state parameter")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrRemoteFetch        = fmt.Errorf("remote playback fetch failed")
	ErrNoUsableDevice     = fmt.Errorf("no usable device")

	// Local state errors
	ErrCacheIO = fmt.Errorf("cached device id unavailable")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
