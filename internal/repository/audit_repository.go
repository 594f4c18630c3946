package repository

import (
	"context"

	"github.com/pasarlink/marketplace-backend/internal/model"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	ListByOrder(ctx context.Context, orderID uint64, limit int) ([]model.AuditLog, error)
	SetDB(db *gorm.DB)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) ListByOrder(ctx context.Context, orderID uint64, limit int) ([]model.AuditLog, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []model.AuditLog
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *auditRepository) SetDB(db *gorm.DB) {
	r.db = db
}
