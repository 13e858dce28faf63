package services

import (
	"errors"
	"fmt"
)

var (
	ErrProviderCreateFailed = errors.New("provider refused to create video")
	ErrTokenExpired         = errors.New("upload token expired")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUploadTransport      = errors.New("upload transport error")
	ErrChannelProvision     = errors.New("channel provisioning failed")
	ErrProcessingFailed     = errors.New("video processing failed")

	// absorbed by the provisioner, never surfaced to end users
	ErrRateLimited   = errors.New("provider rate limited")
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	ErrProjectNotFound    = errors.New("project not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownProvider    = errors.New("unknown video provider")
	ErrMissingCredentials = errors.New("provider credentials not configured")
)

// ProviderError carries the raw provider diagnostics of a failed call.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Provider, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

type ChannelProvisionError struct {
	Project  string
	Role     string
	Attempts int
	Err      error
}

func (e *ChannelProvisionError) Error() string {
	return fmt.Sprintf("provisioning channel for %s/%s failed after %d attempt(s): %v", e.Project, e.Role, e.Attempts, e.Err)
}

func (e *ChannelProvisionError) Unwrap() []error {
	return []error{ErrChannelProvision, e.Err}
}
