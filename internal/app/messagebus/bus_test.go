package messagebus

import (
	"errors"
	"github.com/burenotti/go_health_funnel/internal/domain"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type testEvent struct {
	domain.EventBase
	typ string
}

func (e testEvent) Type() string {
	return e.typ
}

func TestMessageBus_FanOut(t *testing.T) {
	bus := New(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var a, b atomic.Int32
	bus.RegisterAll(func(domain.Event) error {
		a.Add(1)
		return nil
	}, "created", "updated")
	bus.Register("updated", func(domain.Event) error {
		b.Add(1)
		return errors.New("handler errors are logged, not returned")
	})

	err := bus.PublishEvents(
		testEvent{EventBase: domain.EventBase{At: time.Now()}, typ: "created"},
		testEvent{EventBase: domain.EventBase{At: time.Now()}, typ: "updated"},
		testEvent{EventBase: domain.EventBase{At: time.Now()}, typ: "ignored"},
	)
	if err != nil {
		t.Fatalf("PublishEvents: %v", err)
	}
	bus.Close()

	if a.Load() != 2 || b.Load() != 1 {
		t.Errorf("handled a=%d b=%d, want 2 and 1", a.Load(), b.Load())
	}
}
