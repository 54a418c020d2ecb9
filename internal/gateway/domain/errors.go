package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredential: no refresh credential is available.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrRefreshFailed: the identity provider refused or failed the refresh.
	ErrRefreshFailed = errors.New("refresh access token failed")
	// ErrUpstreamUnauthorized: the identity provider rejected the access token.
	ErrUpstreamUnauthorized = errors.New("upstream rejected access token")
	// ErrUpstreamUnavailable: the identity provider could not be reached or errored.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrForbidden: the caller's claims do not satisfy the requirement.
	ErrForbidden = errors.New("forbidden")
	// ErrUpstream: the protected resource API failed.
	ErrUpstream = errors.New("upstream request failed")
	// ErrInvalidRequest: required request input is missing.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthenticated: there is no usable session.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// UpstreamError carries the diagnostics of a failed resource API call.
// Status is 0 when no response was received.
type UpstreamError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	}
	return fmt.Sprintf("upstream request failed: status %d", e.Status)
}

// Unwrap lets errors.Is match both ErrUpstream and the transport cause.
func (e *UpstreamError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUpstream, e.Err}
	}
	return []error{ErrUpstream}
}
