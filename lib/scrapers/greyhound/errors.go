package greyhound

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

type CommKind string

const (
	CommTimeout CommKind = "timeout"
	CommNetwork CommKind = "network"
)

// CommunicationError covers failures below the HTTP layer: timeouts,
// DNS resolution, refused connections. The host treats these as
// transient and retries on its next scheduled poll, except when
// DuringLogin is set. A failure while authenticating leaves the
// session state unknown, so hosts route those through their
// re-authentication path instead of retrying blindly.
type CommunicationError struct {
	Kind        CommKind
	DuringLogin bool
	Err         error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("communication error (%s): %v", e.Kind, e.Err)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

type ApiErrorKind string

const (
	// non-2xx response from the portal
	KindHttpStatus ApiErrorKind = "http_status"
	// the login form had no anti-forgery token field
	KindTokenNotFound ApiErrorKind = "token_not_found"
	// the login round-trip produced no success marker
	KindInvalidCredentials ApiErrorKind = "invalid_credentials"
	// the calendar page had no embedded-data marker
	KindMarkerNotFound ApiErrorKind = "marker_not_found"
	// the marker was found but the JSON span terminator was not
	KindPayloadBoundaryNotFound ApiErrorKind = "payload_boundary_not_found"
	// the isolated span did not parse, or data.collection_days was missing
	KindInvalidCalendarFormat ApiErrorKind = "invalid_calendar_format"
	// the calendar page served the login form, the session has lapsed
	KindSessionExpired ApiErrorKind = "session_expired"
	// catch-all, nothing unclassified may escape this package
	KindUnexpected ApiErrorKind = "unexpected"
)

// ApiError is any failure the portal itself produced. The Kind
// distinguishes "site layout changed" from "site said no" so an
// operator can triage from the error alone.
type ApiError struct {
	Kind   ApiErrorKind
	Status int
	Err    error
}

func (e *ApiError) Error() string {
	switch e.Kind {
	case KindHttpStatus:
		return fmt.Sprintf("http error: %d", e.Status)
	case KindTokenNotFound:
		return "could not find anti-forgery token in login form"
	case KindInvalidCredentials:
		return "login failed: possibly invalid credentials or unexpected response"
	case KindMarkerNotFound:
		return "could not find embedded calendar data"
	case KindPayloadBoundaryNotFound:
		return "failed to extract json payload"
	case KindInvalidCalendarFormat:
		return fmt.Sprintf("invalid calendar data format: %v", e.Err)
	case KindSessionExpired:
		return "session expired: calendar request served the login form"
	}
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// IsApiKind reports whether err is an ApiError of the given kind.
func IsApiKind(err error, kind ApiErrorKind) bool {
	var apiErr *ApiError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// markLoginPhase tags a transport failure that happened inside the
// login round-trips. ApiErrors pass through untouched, their Kind
// already says which phase produced them.
func markLoginPhase(err error) error {
	var commErr *CommunicationError
	if errors.As(err, &commErr) {
		commErr.DuringLogin = true
	}
	return err
}

// classifyTransport wraps a resty request error into the taxonomy,
// a raw *url.Error never leaves this package.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &CommunicationError{Kind: CommTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &CommunicationError{Kind: CommTimeout, Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &CommunicationError{Kind: CommNetwork, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &CommunicationError{Kind: CommNetwork, Err: err}
	}
	return &ApiError{Kind: KindUnexpected, Err: err}
}
