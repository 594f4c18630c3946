package repository

import (
	"context"
	"errors"

	"github.com/pasarlink/marketplace-backend/internal/model"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an optimistic write loses the race for
// an order row. Callers reload and retry under the order lock.
var ErrVersionConflict = errors.New("order version conflict")

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uint64) (*model.Order, error)
	Save(ctx context.Context, o *model.Order) error
	SavePlan(ctx context.Context, p *model.InstallmentPlan) error
	SaveEntry(ctx context.Context, e *model.ScheduleEntry) error
	CreateProof(ctx context.Context, p *model.InstallmentProof) error
	SaveProof(ctx context.Context, p *model.InstallmentProof) error
	ListByBuyer(ctx context.Context, customerUID string) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Order, error)
	ListActiveInstallmentIDs(ctx context.Context) ([]uint64, error)
	WithTx(ctx context.Context, fn func(OrderRepository) error) error
	SetDB(db *gorm.DB)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order with its items, plan and entries. The entries'
// denormalized order_id is only known after the order row exists, so it is
// backfilled in the same transaction.
func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		plan := o.InstallmentPlan
		if plan == nil {
			return nil
		}
		if err := tx.Model(&model.ScheduleEntry{}).
			Where("plan_id = ?", plan.ID).
			Update("order_id", o.ID).Error; err != nil {
			return err
		}
		for i := range plan.Entries {
			plan.Entries[i].OrderID = o.ID
		}
		return nil
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("InstallmentPlan").
		Preload("InstallmentPlan.Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Preload("InstallmentPlan.Entries.Proofs", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Save persists the order row with an optimistic version check. The version
// on the passed order is bumped on success.
func (r *orderRepository) Save(ctx context.Context, o *model.Order) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	prev := o.Version
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND version = ?", o.ID, prev).
		Updates(map[string]interface{}{
			"status":                o.Status,
			"paid_amount":           o.PaidAmount,
			"remaining_amount":      o.RemainingAmount,
			"cancel_window_skipped": o.CancelWindowSkipped,
			"cancellation_reason":   o.CancellationReason,
			"cancelled_at":          o.CancelledAt,
			"delivery_address":      o.DeliveryAddress,
			"delivery_city":         o.DeliveryCity,
			"sale_status":           o.SaleStatus,
			"version":               prev + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	o.Version = prev + 1
	return nil
}

func (r *orderRepository) SavePlan(ctx context.Context, p *model.InstallmentPlan) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.InstallmentPlan{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"amount_paid":           p.AmountPaid,
			"remaining_amount":      p.RemainingAmount,
			"sale_confirmed_at":     p.SaleConfirmedAt,
			"next_due_date":         p.NextDueDate,
			"total_penalty_accrued": p.TotalPenaltyAccrued,
		}).Error
}

func (r *orderRepository) SaveEntry(ctx context.Context, e *model.ScheduleEntry) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.ScheduleEntry{}).
		Where("id = ?", e.ID).
		Updates(map[string]interface{}{
			"status":          e.Status,
			"penalty_accrued": e.PenaltyAccrued,
			"paid_at":         e.PaidAt,
		}).Error
}

func (r *orderRepository) CreateProof(ctx context.Context, p *model.InstallmentProof) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *orderRepository) SaveProof(ctx context.Context, p *model.InstallmentProof) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *orderRepository) ListByBuyer(ctx context.Context, customerUID string) ([]model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_uid = ?", customerUID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerUID string) ([]model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN (?)", r.db.Model(&model.OrderItem{}).
			Select("DISTINCT order_id").
			Where("seller_uid = ?", sellerUID)).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListActiveInstallmentIDs returns ids of orders the penalty sweep must
// visit: installment orders whose plan is still being paid down.
func (r *orderRepository) ListActiveInstallmentIDs(ctx context.Context) ([]uint64, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var ids []uint64
	if err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("status IN ?", []model.OrderStatus{
			model.OrderStatusInstallmentActive,
			model.OrderStatusOverdueInstallment,
		}).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// WithTx runs fn against a repository bound to one database transaction. Any
// error from fn rolls back everything written through that repository.
func (r *orderRepository) WithTx(ctx context.Context, fn func(OrderRepository) error) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&orderRepository{db: tx})
	})
}

func (r *orderRepository) SetDB(db *gorm.DB) {
	r.db = db
}
