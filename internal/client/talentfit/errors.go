package talentfit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies gateway failures for user-facing handling.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServer
	KindBadRequest
)

var (
	// ErrNetwork is returned when no response was received from the backend.
	ErrNetwork = errors.New("backend unreachable")
	// ErrUnauthorized is returned on 401; the stored token has been cleared.
	ErrUnauthorized = errors.New("session expired")
	// ErrForbidden is returned on 403.
	ErrForbidden = errors.New("access denied")
	// ErrNotFound is returned on 404.
	ErrNotFound = errors.New("resource not found")
	// ErrServer is returned on 5xx.
	ErrServer = errors.New("backend server error")
	// ErrBadRequest is returned on other 4xx responses.
	ErrBadRequest = errors.New("request rejected by backend")
)

const recordNotFoundPhrase = "record not found"

// APIError describes a failed backend call.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("talentfit: %s: %v", e.kindError(), e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("talentfit: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("talentfit: status %d", e.Status)
}

// Unwrap exposes both the kind sentinel and the underlying transport error.
func (e *APIError) Unwrap() []error {
	errs := []error{e.kindError()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *APIError) kindError() error {
	switch e.Kind {
	case KindNetwork:
		return ErrNetwork
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindServer:
		return ErrServer
	case KindBadRequest:
		return ErrBadRequest
	default:
		return errors.New("unexpected backend response")
	}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= http.StatusInternalServerError:
		return KindServer
	case status >= http.StatusBadRequest:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

// IsRecordNotFound reports whether the error means the requested record does not exist.
// The backend answers some lookups with a 500 whose message carries the phrase.
func IsRecordNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Status == http.StatusNotFound {
		return true
	}
	return apiErr.Status == http.StatusInternalServerError &&
		strings.Contains(strings.ToLower(apiErr.Message), recordNotFoundPhrase)
}

// UserMessage converts a gateway error into the notice shown to the user.
func UserMessage(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "An error occurred."
	}

	switch {
	case apiErr.Kind == KindNetwork:
		return "Network error. Please check your connection."
	case apiErr.Status == http.StatusUnauthorized:
		return "Session expired. Please login again."
	case apiErr.Status == http.StatusForbidden:
		return "Access denied."
	case apiErr.Status == http.StatusNotFound:
		return "Resource not found."
	case apiErr.Status == http.StatusInternalServerError:
		return "Server error. Please try again."
	case apiErr.Message != "":
		return apiErr.Message
	default:
		return "An error occurred."
	}
}
