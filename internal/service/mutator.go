package service

import (
	"context"
	"errors"
	"time"

	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/orderlock"
	"github.com/pasarlink/marketplace-backend/internal/repository"
	"gorm.io/gorm"
)

// orderMutator serializes read-modify-write sequences per order: the keyed
// lock guards against racing requests in this process, the version check in
// Save guards against other writers, and conflicts retry with bounded
// backoff before surfacing a transient failure. Each attempt runs inside one
// database transaction, so a lost version race also rolls back whatever the
// closure wrote to plan, entry or proof rows.
type orderMutator struct {
	repo  repository.OrderRepository
	locks *orderlock.Registry
}

const mutateAttempts = 3

func (m *orderMutator) mutate(ctx context.Context, orderID uint64, fn func(r repository.OrderRepository, o *model.Order) error) (*model.Order, error) {
	m.locks.Lock(orderID)
	defer m.locks.Unlock(orderID)

	backoff := 25 * time.Millisecond
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		var out *model.Order
		err := m.repo.WithTx(ctx, func(r repository.OrderRepository) error {
			o, err := r.FindByID(ctx, orderID)
			if err != nil {
				return err
			}
			if err := fn(r, o); err != nil {
				return err
			}
			if err := r.Save(ctx, o); err != nil {
				return err
			}
			out = o
			return nil
		})
		if err == nil {
			return out, nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errOrderNotFound()
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, newError(CodeTransientFailure, "", "order is busy, try again")
}

// view loads a read-only snapshot without taking the order lock.
func (m *orderMutator) view(ctx context.Context, orderID uint64) (*model.Order, error) {
	o, err := m.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errOrderNotFound()
		}
		return nil, err
	}
	return o, nil
}
