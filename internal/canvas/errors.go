package canvas

import "fmt"

// ConfigurationError means the domain or token is missing. No request was sent.
type ConfigurationError struct{}

func (e *ConfigurationError) Error() string {
	return "Please configure your Canvas domain and access token first."
}

// AuthError is returned for HTTP 401.
type AuthError struct{}

func (e *AuthError) Error() string {
	return "Invalid access token. Please check your token and try again."
}

// ForbiddenError is returned for HTTP 403. Either the proxy refused to
// forward the request or the token lacks the scope.
type ForbiddenError struct{}

func (e *ForbiddenError) Error() string {
	return "Access forbidden. The CORS proxy may be blocking the request, or your token lacks permissions."
}

// RequestError covers every other failure: non-2xx statuses, transport
// errors and undecodable bodies. StatusCode is zero when no response arrived.
type RequestError struct {
	StatusCode int
	StatusText string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API request failed: %d %s", e.StatusCode, e.StatusText)
	}
	return fmt.Sprintf("API request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// outcome labels an error for metrics.
func outcome(err error) string {
	switch err.(type) {
	case nil:
		return "ok"
	case *ConfigurationError:
		return "unconfigured"
	case *AuthError:
		return "unauthorized"
	case *ForbiddenError:
		return "forbidden"
	default:
		return "error"
	}
}
