package messagebus

import (
	"github.com/burenotti/go_health_funnel/internal/domain"
	"log/slog"
	"sync"
)

type EventHandler func(event domain.Event) error

// MessageBus fans events out to handlers in goroutines. Handlers must be
// registered before the first publish.
type MessageBus struct {
	logger   *slog.Logger
	handlers map[string][]EventHandler
	wg       sync.WaitGroup
}

func New(logger *slog.Logger) *MessageBus {
	return &MessageBus{
		logger:   logger,
		handlers: make(map[string][]EventHandler),
		wg:       sync.WaitGroup{},
	}
}

func (b *MessageBus) Register(eventType string, handler EventHandler) {
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *MessageBus) RegisterAll(handler EventHandler, eventTypes ...string) {
	for _, t := range eventTypes {
		b.Register(t, handler)
	}
}

func (b *MessageBus) PublishEvents(events ...domain.Event) error {
	for _, event := range events {
		b.logger.Debug("publishing event", "type", event.Type(), "at", event.PublishedAt())
		event := event
		for _, handler := range b.handlers[event.Type()] {
			handler := handler
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				if err := handler(event); err != nil {
					b.logger.Error("failed to handle event", "type", event.Type(), "err", err)
				}
			}()
		}
	}
	return nil
}

// Close waits for in-flight handlers.
func (b *MessageBus) Close() {
	b.wg.Wait()
}
