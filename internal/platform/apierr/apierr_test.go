package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", aggregates.ValidationError("op", "bad"), http.StatusBadRequest, "validation"},
		{"invalid state", aggregates.InvalidStateError("op", "no"), http.StatusConflict, "invalid_state"},
		{"invalid transition", aggregates.InvalidTransitionError("op", "no"), http.StatusConflict, "invalid_transition"},
		{"duplicate", aggregates.DuplicateError("op", "twice"), http.StatusConflict, "duplicate"},
		{"not found", fmt.Errorf("load: %w", aggregates.NotFoundError("op", "gone")), http.StatusNotFound, "not_found"},
		{"retryable", aggregates.NewError(aggregates.CodeRetryable, "op", "busy", nil), http.StatusServiceUnavailable, "retryable"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal"},
		{"passthrough", New(http.StatusUnauthorized, "unauthorized", errors.New("no token")), http.StatusUnauthorized, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			if got.Status != tt.status || got.Code != tt.code {
				t.Fatalf("FromError = %d/%s, want %d/%s", got.Status, got.Code, tt.status, tt.code)
			}
		})
	}
	if FromError(nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
}
