package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestIsType_Wrapped(t *testing.T) {
	err := fmt.Errorf("create note: %w", NewNetworkError("server unreachable", nil))

	if !IsType(err, ErrorTypeNetwork) {
		t.Fatalf("expected wrapped network error to be detected")
	}
	if GetStatusCode(err) != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, GetStatusCode(err))
	}
}

func TestFromStatus(t *testing.T) {
	cases := map[int]ErrorType{
		http.StatusBadRequest:   ErrorTypeValidation,
		http.StatusUnauthorized: ErrorTypeUnauthorized,
		http.StatusNotFound:     ErrorTypeNotFound,
		http.StatusConflict:     ErrorTypeConflict,
		http.StatusBadGateway:   ErrorTypeNetwork,
		http.StatusTeapot:       ErrorTypeInternal,
	}
	for status, want := range cases {
		got := FromStatus(status, "x")
		if got.Type != want {
			t.Fatalf("status %d: expected type %s, got %s", status, want, got.Type)
		}
		if got.StatusCode != status {
			t.Fatalf("status %d: expected status code preserved, got %d", status, got.StatusCode)
		}
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewNotFoundError("note not found"))
	appErr, ok := AsAppError(wrapped)
	if !ok {
		t.Fatalf("expected AppError in chain")
	}
	if appErr.Message != "note not found" {
		t.Fatalf("expected message 'note not found', got %q", appErr.Message)
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Fatalf("expected no AppError for plain error")
	}
}
