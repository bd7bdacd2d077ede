package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/taskboard-backend/internal/cache"
	dataagg "github.com/yungbote/taskboard-backend/internal/data/aggregates"
	"github.com/yungbote/taskboard-backend/internal/data/repos"
	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/analytics"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/events"
	"github.com/yungbote/taskboard-backend/internal/observability"
	"github.com/yungbote/taskboard-backend/internal/platform/ctxutil"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

// Deps carries the collaborators shared by the application services.
type Deps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Repos       repos.Repos
	Cache       *cache.Loader
	Events      events.Publisher
	Metrics     *observability.Metrics
	Permissions analytics.Permissions
	Clock       aggregates.Clock
	// MaxWriteAttempts bounds retries of retryable write failures.
	MaxWriteAttempts int
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Cache == nil {
		d.Cache = cache.NewLoader(cache.Noop{}, d.Log, d.Metrics)
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Permissions == nil {
		d.Permissions = analytics.DefaultPermissions{}
	}
	if d.MaxWriteAttempts < 1 {
		d.MaxWriteAttempts = 3
	}
	return d
}

func (d Deps) writer() *dataagg.Writer {
	return dataagg.NewWriter(dataagg.BaseDeps{
		DB:          d.DB,
		Log:         d.Log,
		Hooks:       dataagg.NewObservabilityHooks(d.Metrics),
		MaxAttempts: d.MaxWriteAttempts,
	})
}

// Page is one page of a listing.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

func newPage[T any](items []T, total int64, p query.Page) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, PerPage: p.PerPage, Pages: p.Pages(total)}
}

// outbox buffers events raised inside a transaction until it commits.
type outbox struct {
	events []events.Event
}

func (o *outbox) reset() { o.events = o.events[:0] }

func (o *outbox) add(ctx context.Context, eventType, aggregateID string, data map[string]any) {
	o.events = append(o.events, events.New(ctx, eventType, aggregateID, data))
}

func (o *outbox) flush(ctx context.Context, pub events.Publisher) {
	for _, ev := range o.events {
		pub.Publish(ctx, ev)
	}
	o.events = nil
}

// actor is the authenticated caller; zero for anonymous requests.
func actor(ctx context.Context) vo.UserID {
	return vo.UserIDFromUUID(ctxutil.ActorID(ctx))
}

func isSuperuser(ctx context.Context) bool {
	rd := ctxutil.GetRequestData(ctx)
	return rd != nil && rd.IsSuperuser
}

func forbidden(op, message string) error {
	return aggregates.NewError(aggregates.CodeForbidden, op, message, nil)
}

func parseOptionalUserID(raw string) (vo.UserID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return vo.UserID{}, nil
	}
	return vo.ParseUserID(raw)
}

func projectCacheKey(id vo.ProjectID) string { return "project:" + id.String() }

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
