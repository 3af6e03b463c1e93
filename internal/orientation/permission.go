package orientation

import (
	"context"
	"errors"
)

var (
	// ErrUnsupported reports that the platform cannot sense orientation.
	ErrUnsupported = errors.New("orientation sensing is not supported")
	// ErrPermissionDenied reports that the user refused orientation access.
	ErrPermissionDenied = errors.New("orientation permission denied")
)

// PermissionState is the outcome of a permission request.
type PermissionState int

const (
	PermissionGranted PermissionState = iota
	PermissionDenied
	PermissionUnsupported
)

func (p PermissionState) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unsupported"
	}
}

// ParsePermissionState maps a platform answer to a state. Anything other
// than "granted" or "unsupported" counts as denied.
func ParsePermissionState(v string) PermissionState {
	switch v {
	case "granted":
		return PermissionGranted
	case "unsupported":
		return PermissionUnsupported
	default:
		return PermissionDenied
	}
}

// Permission decides whether sensing may start on this platform.
type Permission interface {
	// Request blocks until the platform answers or ctx ends.
	Request(ctx context.Context) (PermissionState, error)
	// Async reports whether Request has to run off the caller's goroutine.
	Async() bool
}

// AlwaysGranted is used by platforms that sense without asking.
type AlwaysGranted struct{}

func (AlwaysGranted) Request(context.Context) (PermissionState, error) {
	return PermissionGranted, nil
}

func (AlwaysGranted) Async() bool { return false }

// RequiresAsyncGrant waits for the user to answer a prompt.
type RequiresAsyncGrant struct {
	Prompt func(ctx context.Context) (PermissionState, error)
}

func (p RequiresAsyncGrant) Request(ctx context.Context) (PermissionState, error) {
	if p.Prompt == nil {
		return PermissionUnsupported, nil
	}
	return p.Prompt(ctx)
}

func (RequiresAsyncGrant) Async() bool { return true }

// Unsupported is used when the platform has no orientation sensor.
type Unsupported struct{}

func (Unsupported) Request(context.Context) (PermissionState, error) {
	return PermissionUnsupported, nil
}

func (Unsupported) Async() bool { return false }
