package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
)

// Common backend errors. The UI derives its failure category from these with
// errors.Is, never by matching message strings.
var (
	// ErrConnectionUnavailable indicates the backend host is unreachable.
	ErrConnectionUnavailable = errors.New("backend unreachable")

	// ErrTimeout indicates a bounded call exceeded its budget.
	ErrTimeout = errors.New("request timed out")

	// ErrRemoteRejected indicates the backend returned a structured error.
	ErrRemoteRejected = errors.New("backend rejected request")

	// ErrBinaryUnsupported indicates an attempt to open a non-text file.
	ErrBinaryUnsupported = errors.New("binary files are not supported")
)

// RemoteError wraps ErrRemoteRejected with the server's status and detail.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error %d", e.Status)
}

func (e *RemoteError) Unwrap() error {
	return ErrRemoteRejected
}

// Category identifies the kind of failure for rendering purposes.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryConnection
	CategoryTimeout
	CategoryRemote
	CategoryBinary
)

// Categorize maps an error onto the failure taxonomy.
func Categorize(err error) Category {
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrTimeout):
		return CategoryTimeout
	case errors.Is(err, ErrConnectionUnavailable):
		return CategoryConnection
	case errors.Is(err, ErrBinaryUnsupported):
		return CategoryBinary
	case errors.Is(err, ErrRemoteRejected):
		return CategoryRemote
	}
	return CategoryUnknown
}

// Hint returns a short user-facing suggestion for a failure category.
func (c Category) Hint() string {
	switch c {
	case CategoryConnection:
		return "start the backend or check its address"
	case CategoryTimeout:
		return "the request timed out, try again"
	case CategoryRemote:
		return "the backend refused the request"
	case CategoryBinary:
		return "only text files can be opened"
	}
	return ""
}

// classify wraps a transport-level error with the matching sentinel.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if uerr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		var nerr *net.OpError
		if errors.As(err, &nerr) {
			return fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
		}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
}
