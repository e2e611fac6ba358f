package constants

// Remote API Error Codes
// These constants classify failures returned by the upstream field-service API.

// Credential-related errors
const (
	ErrCodeAuthExpired          = "AUTH_EXPIRED"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeRateLimited          = "RATE_LIMITED"
)

// Transport-related errors
const (
	ErrCodeNetworkError   = "NETWORK_ERROR"
	ErrCodeRequestTimeout = "REQUEST_TIMEOUT"
	ErrCodeServerError    = "SERVER_ERROR"
)

// Request/response errors
const (
	ErrCodeResourceNotFound  = "RESOURCE_NOT_FOUND"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
)

// Error Messages
// Human-readable messages corresponding to error codes

var ProviderErrorMessages = map[string]string{
	ErrCodeAuthExpired:          "The API token has expired and must be refreshed by the caller",
	ErrCodeAuthenticationFailed: "Authentication with the upstream API failed",
	ErrCodeRateLimited:          "Rate limit exceeded. Please try again later",

	ErrCodeNetworkError:   "Unable to reach the upstream API",
	ErrCodeRequestTimeout: "The upstream API did not respond within the request timeout",
	ErrCodeServerError:    "The upstream API returned a server error",

	ErrCodeResourceNotFound:  "The requested resource endpoint was not found",
	ErrCodeBadRequest:        "The upstream API rejected the request",
	ErrCodeMalformedResponse: "The upstream API returned a response that could not be parsed",
}

// GetErrorMessage returns the message for a code, or a generic fallback.
func GetErrorMessage(code string) string {
	if msg, ok := ProviderErrorMessages[code]; ok {
		return msg
	}
	return "An unknown error occurred while talking to the upstream API"
}
