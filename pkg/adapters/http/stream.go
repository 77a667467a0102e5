package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/session"
)

// allFlows is the subscription key receiving every flow's events.
const allFlows = "*"

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// StreamManager fans flow events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{} // flow id -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for events of flowID, or of every flow
// when flowID is empty. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(flowID string) (<-chan Event, func()) {
	if flowID == "" {
		flowID = allFlows
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 10)
	if _, ok := sm.subscribers[flowID]; !ok {
		sm.subscribers[flowID] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[flowID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[flowID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, flowID)
				}
			}
			close(ch)
		})
	}
}

// Broadcast delivers ev to the subscribers of flowID and of every flow.
// Slow subscribers drop events rather than block the store.
func (sm *StreamManager) Broadcast(flowID string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{flowID, allFlows} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- ev:
			default:
				sm.logger.Warn("SSE: Client buffer full, dropping event", "flow_id", flowID, "event", ev.Name)
			}
		}
	}
}

// Hooks returns store hooks that publish schema deltas and lifecycle
// events.
func (sm *StreamManager) Hooks() session.Hooks {
	return session.Hooks{
		OnCreate: func(_ context.Context, e session.Entry) {
			sm.publish(e.ID, "created", e)
		},
		OnUpdate: func(_ context.Context, e session.UpdateEvent) {
			if e.Delta == nil {
				return
			}
			sm.publish(e.FlowID, "delta", e.Delta)
		},
		OnComplete: func(_ context.Context, e session.CompleteEvent) {
			sm.publish(e.FlowID, "completed", e.Completion)
		},
		OnRemove: func(_ context.Context, e session.Entry) {
			sm.publish(e.ID, "cancelled", e)
		},
	}
}

func (sm *StreamManager) publish(flowID, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: Event encode failed", "event", name, "err", err)
		return
	}
	sm.Broadcast(flowID, Event{Name: name, Data: string(data)})
}
