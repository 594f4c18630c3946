package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pasarlink/marketplace-backend/internal/cache"
	"github.com/pasarlink/marketplace-backend/internal/installment"
	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/orderlock"
	"github.com/pasarlink/marketplace-backend/internal/repository"
	"go.uber.org/zap"
)

// errSweepNoop aborts a mutate call without persisting when a sweep finds
// nothing to change on an order.
var errSweepNoop = errors.New("sweep: no change")

// PenaltyEngine periodically marks past-due schedule entries overdue and
// recomputes penalties. Each order is handled independently under its own
// lock; a failure on one order never aborts the rest of the sweep, and
// because penalties are recomputed from (now, dueDate) rather than
// accumulated, a crashed or repeated sweep can never double-charge.
type PenaltyEngine struct {
	mut      *orderMutator
	policy   installment.PenaltyPolicy
	interval time.Duration
	notify   NotificationService
	audit    AuditService
	cache    *cache.OrderCache
	log      *zap.Logger
}

func NewPenaltyEngine(
	orderRepo repository.OrderRepository,
	locks *orderlock.Registry,
	policy installment.PenaltyPolicy,
	interval time.Duration,
	notify NotificationService,
	audit AuditService,
	orderCache *cache.OrderCache,
	log *zap.Logger,
) *PenaltyEngine {
	if policy == nil {
		policy = installment.FixedDailyPercentPolicy{DailyPercent: 0.5}
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PenaltyEngine{
		mut:      &orderMutator{repo: orderRepo, locks: locks},
		policy:   policy,
		interval: interval,
		notify:   notify,
		audit:    audit,
		cache:    orderCache,
		log:      log,
	}
}

// Run blocks until ctx is done, sweeping once immediately and then on every
// interval tick.
func (e *PenaltyEngine) Run(ctx context.Context) {
	e.Sweep(ctx, time.Now())
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Sweep(ctx, time.Now())
		}
	}
}

// Sweep visits every active installment order once. now is a parameter so
// accrual stays deterministic and testable.
func (e *PenaltyEngine) Sweep(ctx context.Context, now time.Time) {
	ids, err := e.mut.repo.ListActiveInstallmentIDs(ctx)
	if err != nil {
		e.log.Error("penalty sweep: list orders", zap.Error(err))
		return
	}
	for _, id := range ids {
		if err := e.sweepOrder(ctx, id, now); err != nil {
			e.log.Error("penalty sweep: order failed", zap.Uint64("order_id", id), zap.Error(err))
		}
	}
}

func (e *PenaltyEngine) sweepOrder(ctx context.Context, orderID uint64, now time.Time) error {
	var newlyOverdue []int
	o, err := e.mut.mutate(ctx, orderID, func(r repository.OrderRepository, o *model.Order) error {
		newlyOverdue = newlyOverdue[:0]
		plan := o.InstallmentPlan
		if o.Terminal() || plan == nil {
			return errSweepNoop
		}

		changed := false
		var totalPenalty int64
		for i := range plan.Entries {
			en := &plan.Entries[i]
			entryChanged := false
			if en.Status == model.EntryStatusPending && en.DueDate.Before(now) {
				en.Status = model.EntryStatusOverdue
				newlyOverdue = append(newlyOverdue, en.Seq)
				entryChanged = true
			}
			if en.Status == model.EntryStatusOverdue {
				p := e.policy.Penalty(en.Amount, now.Sub(en.DueDate))
				if p != en.PenaltyAccrued {
					en.PenaltyAccrued = p
					entryChanged = true
				}
			}
			totalPenalty += en.PenaltyAccrued
			if entryChanged {
				if err := r.SaveEntry(ctx, en); err != nil {
					return err
				}
				changed = true
			}
		}
		if totalPenalty != plan.TotalPenaltyAccrued {
			plan.TotalPenaltyAccrued = totalPenalty
			changed = true
		}

		prev := o.Status
		refreshOverdueState(o)
		if o.Status != prev {
			changed = true
		}
		if !changed {
			return errSweepNoop
		}
		return r.SavePlan(ctx, plan)
	})
	if errors.Is(err, errSweepNoop) {
		return nil
	}
	if err != nil {
		return err
	}

	e.cache.Invalidate(ctx, o.ID)
	if len(newlyOverdue) > 0 {
		e.audit.Record(ctx, o.ID, SystemActor(), "entries_overdue", fmt.Sprintf("count=%d", len(newlyOverdue)))
		e.notify.Notify(ctx, o.CustomerUID, "installment_overdue", "Installment overdue",
			fmt.Sprintf("Order %s has %d overdue installment(s); penalties are accruing", o.OrderNumber, len(newlyOverdue)), &o.ID)
	}
	return nil
}
