package errors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppError(ErrorTypeQuota, "write rejected", nil),
			want: "quota: write rejected",
		},
		{
			name: "with cause",
			err:  NewAppError(ErrorTypeBackend, "backend probe failed", errors.New("disk gone")),
			want: "backend: backend probe failed (caused by: disk gone)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewQuotaExceededError(t *testing.T) {
	err := NewQuotaExceededError("invoices", 2048)

	if !IsQuotaExceeded(err) {
		t.Error("IsQuotaExceeded() = false, want true")
	}
	if !err.IsRecoverable() {
		t.Error("quota errors must be recoverable")
	}
	if err.Context["key"] != "invoices" {
		t.Errorf("context key = %v, want invoices", err.Context["key"])
	}
}

func TestIsQuotaExceeded_Wrapped(t *testing.T) {
	inner := NewQuotaExceededError("customers", 128)
	wrapped := fmt.Errorf("saving collection: %w", inner)

	if !IsQuotaExceeded(wrapped) {
		t.Error("IsQuotaExceeded() should see through wrapping")
	}
	if IsQuotaExceeded(errors.New("unrelated")) {
		t.Error("IsQuotaExceeded() = true for unrelated error")
	}
}

func TestClassifyError(t *testing.T) {
	classifier := NewErrorClassifier()

	tests := []struct {
		name            string
		err             error
		wantType        ErrorType
		wantRecoverable bool
	}{
		{
			name:            "nil error",
			err:             nil,
			wantType:        "",
			wantRecoverable: false,
		},
		{
			name:            "existing AppError passes through",
			err:             NewRecoverableError(ErrorTypeQuota, "full", nil),
			wantType:        ErrorTypeQuota,
			wantRecoverable: true,
		},
		{
			name:            "context cancellation",
			err:             context.Canceled,
			wantType:        ErrorTypeInterruption,
			wantRecoverable: false,
		},
		{
			name:            "deadline exceeded",
			err:             context.DeadlineExceeded,
			wantType:        ErrorTypeTimeout,
			wantRecoverable: true,
		},
		{
			name:            "device full",
			err:             &os.PathError{Op: "write", Path: "/data/kv", Err: syscall.ENOSPC},
			wantType:        ErrorTypeQuota,
			wantRecoverable: true,
		},
		{
			name:            "unknown error",
			err:             errors.New("mystery"),
			wantType:        ErrorTypeUnknown,
			wantRecoverable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.ClassifyError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("ClassifyError(nil) = %v, want nil", got)
				}
				return
			}
			if got.Type != tt.wantType {
				t.Errorf("ClassifyError() type = %v, want %v", got.Type, tt.wantType)
			}
			if got.IsRecoverable() != tt.wantRecoverable {
				t.Errorf("ClassifyError() recoverable = %v, want %v", got.IsRecoverable(), tt.wantRecoverable)
			}
		})
	}
}

func TestRetryHandler_NonRecoverableFailsFast(t *testing.T) {
	handler := NewDefaultRetryHandler()

	attempts := 0
	err := handler.Retry(context.Background(), func() error {
		attempts++
		return NewAppError(ErrorTypeValidation, "bad shape", nil)
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (non-recoverable errors must not retry)", attempts)
	}
}

func TestRetryHandler_RecoverableRetries(t *testing.T) {
	handler := NewRetryHandler(RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   0,
		MaxDelay:    0,
		Multiplier:  1.0,
	})

	attempts := 0
	err := handler.Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return NewRecoverableError(ErrorTypeTimeout, "flaky", nil)
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWrapError_PreservesRecoverable(t *testing.T) {
	inner := NewRecoverableError(ErrorTypeQuota, "full", nil)
	wrapped := WrapError(inner, ErrorTypeQuota, "saving invoices")

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("WrapError() did not return an AppError")
	}
	if appErr.Type != ErrorTypeQuota {
		t.Errorf("type = %v, want %v", appErr.Type, ErrorTypeQuota)
	}
	if !appErr.Recoverable {
		t.Error("wrapping must preserve recoverability")
	}
	if WrapError(nil, ErrorTypeUnknown, "noop") != nil {
		t.Error("WrapError(nil) should be nil")
	}
}

func TestWrapError_AppliesGivenType(t *testing.T) {
	wrapped := WrapError(errors.New("disk fell over"), ErrorTypeBackend, "writing invoices")

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("WrapError() did not return an AppError")
	}
	if appErr.Type != ErrorTypeBackend {
		t.Errorf("type = %v, want %v", appErr.Type, ErrorTypeBackend)
	}
	if appErr.Message != "writing invoices" {
		t.Errorf("message = %q, want %q", appErr.Message, "writing invoices")
	}
	if appErr.Cause == nil {
		t.Error("wrapped error must keep its cause")
	}
}

func TestGetErrorType(t *testing.T) {
	if got := GetErrorType(NewAppError(ErrorTypeMigration, "step failed", nil)); got != ErrorTypeMigration {
		t.Errorf("GetErrorType() = %v, want %v", got, ErrorTypeMigration)
	}
	if got := GetErrorType(errors.New("plain")); got != ErrorTypeUnknown {
		t.Errorf("GetErrorType() = %v, want %v", got, ErrorTypeUnknown)
	}
}
