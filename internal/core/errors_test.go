package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	e := &Error{Code: "TEST", Message: "something broke"}
	if e.Error() != "[TEST] something broke" {
		t.Errorf("unexpected message: %s", e.Error())
	}

	wrapped := WrapError(e, fmt.Errorf("underlying"))
	if wrapped.Error() != "[TEST] something broke: underlying" {
		t.Errorf("unexpected wrapped message: %s", wrapped.Error())
	}
}

func TestError_Is(t *testing.T) {
	wrapped := WrapError(ErrSheetUnavailable, fmt.Errorf("dial tcp: timeout"))

	if !errors.Is(wrapped, ErrSheetUnavailable) {
		t.Error("wrapped error should match its base by code")
	}
	if errors.Is(wrapped, ErrRangeNotFound) {
		t.Error("wrapped error should not match a different code")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	wrapped := WrapError(ErrConfigInvalid, cause)

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestWrapError_PreservesCode(t *testing.T) {
	wrapped := WrapError(ErrInvalidCredentials, fmt.Errorf("no such row"))
	if wrapped.Code != ErrInvalidCredentials.Code {
		t.Errorf("expected code %s, got %s", ErrInvalidCredentials.Code, wrapped.Code)
	}
}
