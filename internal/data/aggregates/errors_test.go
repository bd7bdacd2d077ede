package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/taskboard-backend/internal/domain/aggregates"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{"conflict", ConflictError("stale"), domainagg.CodeConflict},
		{"retryable", RetryableError("lock"), domainagg.CodeRetryable},
		{"not found", gorm.ErrRecordNotFound, domainagg.CodeNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), domainagg.CodeNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, domainagg.CodeDuplicate},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domainagg.CodeDuplicate},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, domainagg.CodeRetryable},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, domainagg.CodeRetryable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: users.email"), domainagg.CodeDuplicate},
		{"sqlite locked", errors.New("database is locked"), domainagg.CodeRetryable},
		{"deadline", context.DeadlineExceeded, domainagg.CodeRetryable},
		{"unknown", errors.New("boom"), domainagg.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError("op", tt.err)
			if !domainagg.IsCode(got, tt.want) {
				t.Fatalf("want=%s got=%q (%v)", tt.want, domainagg.CodeOf(got), got)
			}
		})
	}
}

func TestMapErrorPassesDomainErrorsThrough(t *testing.T) {
	in := domainagg.InvalidTransitionError("task.ChangeStatus", "cannot move from %s to %s", "todo", "done")
	if out := MapError("other", in); out != in {
		t.Fatalf("expected passthrough, got %v", out)
	}
	if MapError("op", nil) != nil {
		t.Fatalf("nil in, nil out")
	}
}
