package ffbcore

import (
	"errors"
	"testing"
)

func TestStructuredError(t *testing.T) {
	err := NewError("Compile", ErrCodeConfigInvalid, "bumpstop angle out of range")

	if err.Op != "Compile" {
		t.Errorf("expected Op=Compile, got %s", err.Op)
	}
	if err.Code != ErrCodeConfigInvalid {
		t.Errorf("expected Code=ErrCodeConfigInvalid, got %s", err.Code)
	}

	expected := "ffbcore: bumpstop angle out of range (op=Compile)"
	if err.Error() != expected {
		t.Errorf("expected error message %q, got %q", expected, err.Error())
	}
}

func TestDeviceError(t *testing.T) {
	err := NewDeviceError("RequestHighTorque", "wheel-0", ErrCodeSafetyRejected, "not in SafeTorque")

	if err.DeviceID != "wheel-0" {
		t.Errorf("expected DeviceID=wheel-0, got %s", err.DeviceID)
	}

	expected := "ffbcore: not in SafeTorque (op=RequestHighTorque)"
	if err.Error() != expected {
		t.Errorf("expected error message %q, got %q", expected, err.Error())
	}
}

func TestWrapErrorPreservesStructuredFields(t *testing.T) {
	inner := NewDeviceError("Compile", "wheel-0", ErrCodeCompileFailed, "notch Q out of range")
	wrapped := WrapError("Core.Compile", inner)

	if wrapped.Op != "Core.Compile" {
		t.Errorf("expected Op=Core.Compile, got %s", wrapped.Op)
	}
	if wrapped.Code != ErrCodeCompileFailed {
		t.Errorf("expected Code=ErrCodeCompileFailed, got %s", wrapped.Code)
	}
	if wrapped.DeviceID != "wheel-0" {
		t.Errorf("expected DeviceID=wheel-0, got %s", wrapped.DeviceID)
	}
}

func TestWrapErrorWrapsPlainError(t *testing.T) {
	plain := errors.New("disk full")
	wrapped := WrapError("Blackbox.Finalize", plain)

	if wrapped.Code != ErrCodeConfigInvalid {
		t.Errorf("expected fallback code ErrCodeConfigInvalid, got %s", wrapped.Code)
	}
	if !errors.Is(wrapped, plain) {
		t.Error("expected wrapped error to satisfy errors.Is for the inner cause")
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError("op", nil) != nil {
		t.Error("expected WrapError(nil) to return nil")
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("RequestHighTorque", ErrCodeSafetyRejected, "challenge outstanding")

	if !IsCode(err, ErrCodeSafetyRejected) {
		t.Error("IsCode should return true for matching code")
	}
	if IsCode(err, ErrCodeCompileFailed) {
		t.Error("IsCode should return false for non-matching code")
	}
	if IsCode(nil, ErrCodeSafetyRejected) {
		t.Error("IsCode should return false for nil error")
	}
}

func TestErrorIsMatchesByCodeOnly(t *testing.T) {
	a := NewDeviceError("Compile", "wheel-0", ErrCodeCompileFailed, "msg a")
	b := NewDeviceError("Compile", "wheel-1", ErrCodeCompileFailed, "msg b")

	if !errors.Is(a, b) {
		t.Error("expected two structured errors with the same Code to satisfy errors.Is")
	}
}
