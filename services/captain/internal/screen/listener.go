package screen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/captain/pkg"
	"github.com/appetiteclub/captain/pkg/event"
	"github.com/appetiteclub/captain/pkg/lib/core"
	"github.com/appetiteclub/captain/services/captain/internal/ordering"
)

// TableEventListener marks open screens stale when their table is reserved,
// freed or switched from another device.
type TableEventListener struct {
	subscriber event.Subscriber
	registry   *Registry
	logger     core.Logger
}

func NewTableEventListener(subscriber event.Subscriber, registry *Registry, logger core.Logger) *TableEventListener {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &TableEventListener{
		subscriber: subscriber,
		registry:   registry,
		logger:     logger,
	}
}

func (l *TableEventListener) Start(ctx context.Context) error {
	if l.subscriber == nil {
		l.logger.Info("NATS subscriber not configured, skipping table event subscription")
		return nil
	}

	if err := l.subscriber.Subscribe(ctx, pkg.TableTopic, l.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pkg.TableTopic, err)
	}

	l.logger.Info("table event listener started", "topic", pkg.TableTopic)
	return nil
}

func (l *TableEventListener) Stop(ctx context.Context) error {
	return nil
}

func (l *TableEventListener) handleEvent(ctx context.Context, msg []byte) error {
	var evt pkg.TableEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		l.logger.Error("failed to unmarshal table event", "error", err)
		return nil
	}

	switch evt.EventType {
	case pkg.EventTableReserved, pkg.EventTableUnreserved, pkg.EventTableSwitched:
	default:
		l.logger.Debug("ignoring unknown event type", "event_type", evt.EventType)
		return nil
	}

	marked := 0
	l.registry.Each(func(id string, w *ordering.Workflow) {
		if w.State() == ordering.StateClosed {
			return
		}
		if evt.Affects(w.TableID()) {
			w.MarkStale()
			marked++
		}
	})

	if marked > 0 {
		l.logger.Debug("marked order sessions stale", "event_type", evt.EventType, "table_id", evt.TableID, "count", marked)
	}
	return nil
}
