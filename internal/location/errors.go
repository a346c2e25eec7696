package location

import "fmt"

// ErrorCode mirrors the platform position error codes.
type ErrorCode int

const (
	PermissionDenied    ErrorCode = 1
	PositionUnavailable ErrorCode = 2
	Timeout             ErrorCode = 3
)

func (c ErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission denied"
	case PositionUnavailable:
		return "position unavailable"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// LocationError is a platform failure while acquiring a position.
type LocationError struct {
	Code ErrorCode
	Err  error
}

func (e *LocationError) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *LocationError) Unwrap() error { return e.Err }

// Fatal reports whether acquisition should stay stopped after this error.
func (e *LocationError) Fatal() bool {
	return e.Code == PermissionDenied
}

// CapabilityError means the platform cannot provide positions at all.
type CapabilityError struct {
	Feature string
	Err     error
}

func (e *CapabilityError) Error() string {
	if e.Err == nil {
		return e.Feature + " not supported"
	}
	return fmt.Sprintf("%s not supported: %v", e.Feature, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }
