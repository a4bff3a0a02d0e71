package funnelapp

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	"github.com/burenotti/go_health_funnel/internal/domain"
	"github.com/burenotti/go_health_funnel/internal/domain/funnel"
	"time"
)

type SessionStorage interface {
	Add(ctx context.Context, s *funnel.Session) error
	GetByID(ctx context.Context, sessionID string) (*funnel.Session, error)
	Persist(ctx context.Context, s *funnel.Session) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CollectEvents() []domain.Event
	Close() error
}

// StorageFactory binds a session storage to the transaction of one unit of work.
type StorageFactory func(db storage.DBContext) SessionStorage

type AtomicContext struct {
	ctx            context.Context
	db             storage.DBContext
	SessionStorage SessionStorage
}

func (a *AtomicContext) Context() context.Context {
	return a.ctx
}

func (a *AtomicContext) Commit() error {
	return a.db.Commit()
}

func (a *AtomicContext) Close() (err error) {
	if closeErr := a.SessionStorage.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}

	if err != nil {
		err = errors.Join(fmt.Errorf("failed to close storage"), err)
	}

	return err
}

func (a *AtomicContext) CollectEvents() []domain.Event {
	return a.SessionStorage.CollectEvents()
}

func NewAtomicContext(newStorage StorageFactory) func(context.Context, storage.DBContext) (*AtomicContext, error) {
	return func(ctx context.Context, dbContext storage.DBContext) (*AtomicContext, error) {
		return &AtomicContext{
			ctx:            ctx,
			db:             dbContext,
			SessionStorage: newStorage(dbContext),
		}, nil
	}
}
