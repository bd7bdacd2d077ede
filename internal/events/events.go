// Package events publishes domain change notifications. Delivery is best effort:
// a failed publish is logged and never fails the write that produced it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/taskboard-backend/internal/observability"
	"github.com/yungbote/taskboard-backend/internal/platform/ctxutil"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

const (
	TaskCreated          = "task.created"
	TaskUpdated          = "task.updated"
	TaskStatusChanged    = "task.status_changed"
	TaskDeleted          = "task.deleted"
	ProjectCreated       = "project.created"
	ProjectUpdated       = "project.updated"
	ProjectDeleted       = "project.deleted"
	ProjectMemberAdded   = "project.member_added"
	ProjectMemberRemoved = "project.member_removed"
	ProjectOwnerChanged  = "project.owner_changed"
	UserCreated          = "user.created"
	UserUpdated          = "user.updated"
	UserDeleted          = "user.deleted"
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Aggregate  string         `json:"aggregate_id"`
	ActorID    string         `json:"actor_id,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// New stamps an event with an id, the actor and trace id carried by ctx.
func New(ctx context.Context, eventType, aggregateID string, data map[string]any) Event {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Aggregate:  aggregateID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
		ev.ActorID = rd.UserID.String()
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		ev.TraceID = td.TraceID
	}
	return ev
}

type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewRedisPublisher(client redis.UniversalClient, channel string, log *logger.Logger, metrics *observability.Metrics) *RedisPublisher {
	if channel == "" {
		channel = "taskboard.events"
	}
	return &RedisPublisher{client: client, channel: channel, log: log.With("component", "RedisPublisher"), metrics: metrics}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	err := p.publish(ctx, ev)
	p.metrics.IncEventPublished(ev.Type, err)
	if err != nil {
		p.log.Warn("event publish failed", "type", ev.Type, "aggregate_id", ev.Aggregate, "error", err)
	}
}

func (p *RedisPublisher) publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Subscribe streams decoded events from channel until ctx is done. It returns
// once redis has confirmed the subscription.
func Subscribe(ctx context.Context, client redis.UniversalClient, channel string) (<-chan Event, func() error, error) {
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, sub.Close, nil
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory; useful for local runs and tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
