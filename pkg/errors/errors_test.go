package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIronLogError_Error(t *testing.T) {
	t.Run("Without cause", func(t *testing.T) {
		err := New(CodeValidationError, "bad payload")
		if err.Error() != "[VALIDATION_ERROR] bad payload" {
			t.Errorf("Expected formatted message, got %s", err.Error())
		}
	})

	t.Run("With cause", func(t *testing.T) {
		err := Wrap(fmt.Errorf("deadline exceeded"), CodeStorageError, "read sets")
		if err.Error() != "[STORAGE_ERROR] read sets: deadline exceeded" {
			t.Errorf("Expected formatted message, got %s", err.Error())
		}
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"Plain error", fmt.Errorf("boom"), false},
		{"Retryable", WrapRetryable(fmt.Errorf("x"), CodeStorageError, "read"), true},
		{"Not retryable", New(CodeValidationError, "bad"), false},
		{"Wrapped retryable", fmt.Errorf("recompute bench: %w", ErrStorageError.WithCause(fmt.Errorf("x"))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(nil) != "" {
		t.Errorf("Expected empty code for nil")
	}
	if GetCode(fmt.Errorf("boom")) != CodeInternalError {
		t.Errorf("Expected INTERNAL_ERROR for plain error")
	}
	wrapped := fmt.Errorf("outer: %w", ErrInvalidPolicy)
	if GetCode(wrapped) != CodeInvalidPolicy {
		t.Errorf("Expected INVALID_POLICY, got %s", GetCode(wrapped))
	}
}

func TestSentinelMatching(t *testing.T) {
	err := ErrStorageError.WithCause(fmt.Errorf("unavailable")).WithMetadata("exercise_id", "bench")
	if !stderrors.Is(err, ErrStorageError) {
		t.Error("Expected errors.Is to match sentinel by code")
	}
	if stderrors.Is(err, ErrPubSubError) {
		t.Error("Expected errors.Is not to match a different code")
	}
	if err.Metadata["exercise_id"] != "bench" {
		t.Errorf("Expected metadata exercise_id=bench, got %v", err.Metadata)
	}
	if ErrStorageError.Metadata != nil {
		t.Error("Expected sentinel metadata to stay untouched")
	}
}
