package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	// MaxAttempts bounds retries of retryable failures; values < 1 mean one attempt.
	MaxAttempts int
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.MaxAttempts < 1 {
		d.MaxAttempts = 1
	}
	return d
}

// Writer runs aggregate writes inside a transaction with error mapping and hooks.
type Writer struct {
	deps BaseDeps
}

func NewWriter(deps BaseDeps) *Writer {
	return &Writer{deps: deps.withDefaults()}
}

// Write runs fn in a transaction under the operation name op.
func (w *Writer) Write(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	return executeWrite(ctx, w.deps, op, fn)
}

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	var mapped error
	for attempt := 1; attempt <= deps.MaxAttempts; attempt++ {
		mapped = MapError(op, deps.Runner.InTx(ctx, fn))
		if !domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			break
		}
		deps.Hooks.IncRetry(op)
		if ctx.Err() != nil {
			break
		}
		if deps.Log != nil && attempt < deps.MaxAttempts {
			deps.Log.Warn("aggregate write retry", "op", op, "attempt", attempt, "error", mapped)
		}
	}
	if domainagg.IsCode(mapped, domainagg.CodeConflict) {
		deps.Hooks.IncConflict(op)
	}
	deps.Hooks.ObserveOperation(op, aggregateErrorStatus(mapped), time.Since(start))
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeOf(MapError("aggregate.status", err))
	}
	if code == "" {
		return "failure"
	}
	return string(code)
}
