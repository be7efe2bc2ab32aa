package graph

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error types for Microsoft Graph API responses.
var (
	// ErrAuth indicates a usable access token could not be obtained.
	// No further Graph operation can succeed, so callers abort the run.
	ErrAuth = errors.New("graph: authentication failed")

	// ErrUnauthorised indicates the access token is invalid or expired.
	ErrUnauthorised = errors.New("graph: unauthorised")

	// ErrForbidden indicates the caller lacks permission for the resource.
	ErrForbidden = errors.New("graph: forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("graph: not found")

	// ErrRateLimited indicates a single request was throttled.
	ErrRateLimited = errors.New("graph: rate limited")

	// ErrRateLimitExceeded indicates the throttle retry budget for a page
	// sequence was exhausted. Pages fetched before the failing page are
	// still returned alongside this error.
	ErrRateLimitExceeded = errors.New("graph: rate limit retry budget exhausted")

	// ErrMailboxNotMigrated indicates the mailbox is hosted on-premises and
	// not reachable through the REST API. Known-benign: callers skip the
	// resource and continue with the next one.
	ErrMailboxNotMigrated = errors.New("graph: mailbox not migrated to Exchange Online")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("graph: bad request")

	// ErrServerError indicates a server-side error from Microsoft Graph.
	ErrServerError = errors.New("graph: server error")
)

// WrapStatus converts an HTTP status code to an appropriate error.
func WrapStatus(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorised
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		if statusCode >= 500 {
			return ErrServerError
		}
		return nil
	}
}

// IsRateLimited checks if the status code indicates throttling.
func IsRateLimited(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}

// apiError is the JSON error envelope returned by Microsoft Graph.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Mailboxes still homed on an on-premises Exchange server answer REST calls
// with one of these codes.
var notMigratedCodes = map[string]bool{
	"MailboxNotEnabledForRESTAPI":      true,
	"MailboxNotSupportedForRESTAPI":    true,
	"ErrorMailboxNotEnabledForRESTAPI": true,
}

// ParseAPIError decodes the Graph error envelope from a response body.
// Returns ErrMailboxNotMigrated for the known not-yet-migrated codes and
// the status-mapped error otherwise. The error code and message, when
// present, are preserved for logging.
func ParseAPIError(statusCode int, body []byte) (code, message string, err error) {
	var envelope apiError
	if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil {
		code = envelope.Error.Code
		message = envelope.Error.Message
	}
	if notMigratedCodes[code] {
		return code, message, ErrMailboxNotMigrated
	}
	if statusErr := WrapStatus(statusCode); statusErr != nil {
		return code, message, statusErr
	}
	return code, message, ErrServerError
}
