// Package bus relays events published by any instance into the local realtime hub.
package bus

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/taskboard-backend/internal/events"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
	"github.com/yungbote/taskboard-backend/internal/realtime"
)

// StartForwarder subscribes to channel and hands every decoded event to hub
// until ctx is cancelled.
func StartForwarder(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient, channel string, hub *realtime.Hub) error {
	if rdb == nil || hub == nil {
		return fmt.Errorf("redis client and hub required")
	}
	if channel == "" {
		channel = "taskboard.events"
	}
	log = log.With("component", "RealtimeForwarder", "channel", channel)

	stream, closeSub, err := events.Subscribe(ctx, rdb, channel)
	if err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	go func() {
		defer func() {
			if err := closeSub(); err != nil {
				log.Debug("redis subscription close", "error", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-stream:
				if !ok {
					log.Warn("redis subscription ended")
					return
				}
				hub.Publish(ctx, ev)
			}
		}
	}()
	log.Info("realtime forwarder started")
	return nil
}
