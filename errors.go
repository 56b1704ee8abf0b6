package ffbcore

import (
	"errors"
	"fmt"
)

// Error is the structured error Core returns from every exported
// operation: an operation name, a closed-taxonomy Code for programmatic
// matching, and an optional wrapped cause. DeviceID and Code carry enough
// context for a caller to branch on failure kind without string-matching
// Msg.
type Error struct {
	Op       string    // Operation that failed, e.g. "Compile", "RequestHighTorque"
	DeviceID string    // Device identifier, empty if not applicable
	Code     ErrorCode // High-level error category
	Msg      string    // Human-readable message
	Inner    error     // Wrapped error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.DeviceID != "" {
		parts = append(parts, fmt.Sprintf("device=%s", e.DeviceID))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("ffbcore: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("ffbcore: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode is the closed set of high-level categories Core operations
// fail with. It deliberately does not overlap safety.FaultKind: a Code
// describes why a *call* was rejected (bad config, no compiled pipeline,
// port gone), while a FaultKind describes why the *device* is latched
// unsafe. A rejected call may still carry the triggering FaultKind in Msg.
type ErrorCode string

const (
	ErrCodeConfigInvalid        ErrorCode = "config invalid"
	ErrCodeCompileFailed        ErrorCode = "pipeline compile failed"
	ErrCodePortUnavailable      ErrorCode = "device port unavailable"
	ErrCodeRecorderUnavailable  ErrorCode = "recorder unavailable"
	ErrCodeReplayFormatInvalid  ErrorCode = "replay recording invalid"
	ErrCodeSafetyRejected       ErrorCode = "safety transition rejected"
	ErrCodeNotRunning           ErrorCode = "core not running"
	ErrCodeAlreadyRunning       ErrorCode = "core already running"
)

// NewError constructs a structured Error with no device context.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewDeviceError constructs a structured Error scoped to one device.
func NewDeviceError(op, deviceID string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, DeviceID: deviceID, Code: code, Msg: msg}
}

// WrapError wraps inner with op context, reusing inner's Code and
// DeviceID when inner is already a structured Error so wrapping never
// loses the original classification.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if fe, ok := inner.(*Error); ok {
		return &Error{Op: op, DeviceID: fe.DeviceID, Code: fe.Code, Msg: fe.Msg, Inner: fe.Inner}
	}
	return &Error{Op: op, Code: ErrCodeConfigInvalid, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is (or wraps) a structured Error with code.
func IsCode(err error, code ErrorCode) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}
