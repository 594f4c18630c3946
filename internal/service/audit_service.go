package service

import (
	"context"

	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/repository"
)

type AuditService interface {
	Record(ctx context.Context, orderID uint64, actor Actor, action, detail string)
	ListByOrder(ctx context.Context, orderID uint64, limit int) ([]model.AuditLog, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// Record is best-effort, like notifications: the audit trail must not veto
// the operation it describes.
func (s *auditService) Record(ctx context.Context, orderID uint64, actor Actor, action, detail string) {
	if orderID == 0 || action == "" {
		return
	}
	_ = s.repo.Create(ctx, &model.AuditLog{
		OrderID:   orderID,
		ActorUID:  actor.UID,
		ActorRole: string(actor.Role),
		Action:    action,
		Detail:    detail,
	})
}

func (s *auditService) ListByOrder(ctx context.Context, orderID uint64, limit int) ([]model.AuditLog, error) {
	return s.repo.ListByOrder(ctx, orderID, limit)
}
