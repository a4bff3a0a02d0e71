package unitofwork

import (
	"context"
	"errors"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	"github.com/burenotti/go_health_funnel/internal/domain"
	"io"
	"log/slog"
	"testing"
	"time"
)

type event struct {
	domain.EventBase
}

func (event) Type() string {
	return "test.event"
}

type atomicContext struct {
	ctx    context.Context
	db     storage.DBContext
	closed bool
	events []domain.Event
}

func (a *atomicContext) Context() context.Context { return a.ctx }

func (a *atomicContext) Commit() error { return a.db.Commit() }

func (a *atomicContext) Close() error {
	a.closed = true
	return nil
}

func (a *atomicContext) CollectEvents() []domain.Event { return a.events }

type bus struct {
	published []domain.Event
}

func (b *bus) PublishEvents(events ...domain.Event) error {
	b.published = append(b.published, events...)
	return nil
}

func newUoW(b *bus, last **atomicContext) *UnitOfWork[*atomicContext] {
	return New[*atomicContext](
		storage.Nop{},
		func(ctx context.Context, db storage.DBContext) (*atomicContext, error) {
			*last = &atomicContext{ctx: ctx, db: db}
			return *last, nil
		},
		b,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestAtomic_PublishesOnSuccess(t *testing.T) {
	b := &bus{}
	var last *atomicContext
	uow := newUoW(b, &last)

	err := uow.Atomic(context.Background(), func(a *atomicContext) error {
		a.events = append(a.events, event{domain.EventBase{At: time.Now()}})
		return a.Commit()
	})
	if err != nil {
		t.Fatalf("Atomic: %v", err)
	}
	if len(b.published) != 1 || !last.closed {
		t.Errorf("published=%d closed=%v", len(b.published), last.closed)
	}
}

func TestAtomic_RollbackSkipsEvents(t *testing.T) {
	b := &bus{}
	var last *atomicContext
	uow := newUoW(b, &last)
	boom := errors.New("boom")

	err := uow.Atomic(context.Background(), func(a *atomicContext) error {
		a.events = append(a.events, event{domain.EventBase{At: time.Now()}})
		return boom
	})
	if !errors.Is(err, boom) || !errors.Is(err, ErrRollback) {
		t.Errorf("expected boom wrapped in ErrRollback, got %v", err)
	}
	if len(b.published) != 0 || !last.closed {
		t.Errorf("published=%d closed=%v", len(b.published), last.closed)
	}
}
