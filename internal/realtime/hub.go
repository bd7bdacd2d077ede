// Package realtime fans domain events out to server-sent-event subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/taskboard-backend/internal/events"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

const outboundBuffer = 16

func ProjectChannel(id string) string { return "project:" + id }
func UserChannel(id string) string    { return "user:" + id }

// ChannelsFor routes an event to the project and user streams it concerns.
func ChannelsFor(ev events.Event) []string {
	var out []string
	switch {
	case strings.HasPrefix(ev.Type, "project."):
		out = append(out, ProjectChannel(ev.Aggregate))
	case strings.HasPrefix(ev.Type, "task."):
		if pid, ok := ev.Data["project_id"].(string); ok && pid != "" {
			out = append(out, ProjectChannel(pid))
		}
	case strings.HasPrefix(ev.Type, "user."):
		out = append(out, UserChannel(ev.Aggregate))
	}
	if uid, ok := ev.Data["user_id"].(string); ok && uid != "" {
		out = append(out, UserChannel(uid))
	}
	return out
}

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan events.Event
	done     chan struct{}
	once     sync.Once
}

type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
	heartbeat     time.Duration
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "RealtimeHub"),
		subscriptions: make(map[string]map[*Client]bool),
		heartbeat:     15 * time.Second,
	}
}

func (h *Hub) NewClient(userID uuid.UUID) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan events.Event, outboundBuffer),
		done:     make(chan struct{}),
	}
}

func (h *Hub) Subscribe(c *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Channels[channel] = true
	clients, ok := h.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]bool)
		h.subscriptions[channel] = clients
	}
	clients[c] = true
	h.log.Debug("realtime client subscribed", "client_id", c.ID, "channel", channel)
}

func (h *Hub) Unsubscribe(c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(c, channel)
}

func (h *Hub) unsubscribeLocked(c *Client, channel string) {
	delete(c.Channels, channel)
	if subs, ok := h.subscriptions[channel]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.subscriptions, channel)
		}
	}
}

// Subscribers reports how many clients listen on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[channel])
}

// Broadcast never blocks; a client with a full buffer misses the event.
func (h *Hub) Broadcast(channel string, ev events.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subscriptions[channel] {
		select {
		case c.Outbound <- ev:
		default:
			h.log.Warn("dropping realtime event; outbound buffer full", "client_id", c.ID, "type", ev.Type)
		}
	}
}

// Publish makes the hub an events.Publisher for single-instance deployments.
func (h *Hub) Publish(_ context.Context, ev events.Event) {
	for _, ch := range ChannelsFor(ev) {
		h.Broadcast(ch, ev)
	}
}

// Close detaches c and closes its outbound channel. Safe to call twice.
func (h *Hub) Close(c *Client) {
	c.once.Do(func() {
		close(c.done)
		h.mu.Lock()
		for ch := range c.Channels {
			h.unsubscribeLocked(c, ch)
		}
		h.mu.Unlock()
		close(c.Outbound)
	})
}

// Serve streams c's events as text/event-stream until the request ends or c is closed.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, c *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("realtime client gone", "client_id", c.ID, "error", ctx.Err())
			return
		case <-c.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-c.Outbound:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.log.Warn("failed to encode realtime event", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, payload)
			flusher.Flush()
		}
	}
}
