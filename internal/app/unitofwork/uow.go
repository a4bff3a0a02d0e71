package unitofwork

import (
	"context"
	"errors"
	"fmt"
	"github.com/burenotti/go_health_funnel/internal/adapter/storage"
	"github.com/burenotti/go_health_funnel/internal/domain"
	"log/slog"
)

var (
	ErrRollback = errors.New("rollback")
)

type AtomicContext interface {
	Context() context.Context
	Commit() error
	Close() error
	CollectEvents() []domain.Event
}

type MessageBus interface {
	PublishEvents(events ...domain.Event) error
}

type UnitOfWork[T AtomicContext] struct {
	db         storage.Beginner
	newContext func(context.Context, storage.DBContext) (T, error)
	msgBus     MessageBus
	logger     *slog.Logger
}

func New[T AtomicContext](
	db storage.Beginner,
	newCtx func(context.Context, storage.DBContext) (T, error),
	msgBus MessageBus,
	logger *slog.Logger,
) *UnitOfWork[T] {
	return &UnitOfWork[T]{
		db:         db,
		newContext: newCtx,
		msgBus:     msgBus,
		logger:     logger,
	}
}

// Atomic runs do inside one transaction. do is expected to call Commit; any
// error it returns rolls the transaction back. Events collected from the
// atomic context are published only after do succeeds.
func (uow *UnitOfWork[T]) Atomic(
	ctx context.Context,
	do func(T) error,
) (err error) {
	tx, err := uow.db.Begin(ctx)
	if err != nil {
		return stateRollbackError(err)
	}

	txCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	atomicCtx, err := uow.newContext(txCtx, tx)
	if err != nil {
		return stateRollbackError(err)
	}
	defer func() {
		if err := atomicCtx.Close(); err != nil {
			uow.logger.Error("failed to close atomic context", "error", err)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			if err := tx.Rollback(); err != nil {
				uow.logger.Error("failed to rollback transaction", "error", err)
			}
			panic(r)
		}
	}()

	if err := do(atomicCtx); err != nil {
		if err := tx.Rollback(); err != nil {
			uow.logger.Error("failed to rollback transaction", "error", err)
		}
		return stateRollbackError(err)
	}

	if uow.msgBus == nil {
		return nil
	}
	if err := uow.msgBus.PublishEvents(atomicCtx.CollectEvents()...); err != nil {
		uow.logger.Error("failed to publish events", "error", err)
		return err
	}

	return nil
}

func stateRollbackError(err error) error {
	return errors.Join(fmt.Errorf("state rollback: %w", err), ErrRollback)
}
