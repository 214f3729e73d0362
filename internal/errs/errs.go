// Package errs defines the error taxonomy shared by all services. The HTTP
// boundary maps each kind to a fixed status code and a minimal {message}
// body; services never pick status codes themselves.
package errs

import "net/http"

// Error is a typed failure carrying the HTTP status it maps to. ReportURL
// is only set on fulfillment failures when the factory supplied a
// diagnostic reference.
type Error struct {
	Status    int
	Message   string
	ReportURL string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation flags missing or malformed request fields.
func Validation(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Unauthenticated flags a missing, malformed, or revoked token. Never use
// it for bad login credentials; those are NotFound by contract.
func Unauthenticated(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// Forbidden flags a valid identity that lacks privilege for the action.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

// NotFound flags an unknown resource or credential, including bad logins.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Fulfillment flags a factory error or timeout. The order stays persisted.
func Fulfillment(message, reportURL string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, ReportURL: reportURL, Err: err}
}

// Internal flags an unexpected server-side failure.
func Internal(message string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, Err: err}
}
