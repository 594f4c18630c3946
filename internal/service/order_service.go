package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pasarlink/marketplace-backend/internal/cache"
	"github.com/pasarlink/marketplace-backend/internal/installment"
	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/orderlock"
	"github.com/pasarlink/marketplace-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutItem struct {
	ItemID   uint64
	Quantity int
}

type GuarantorInput struct {
	FullName string
	Phone    string
	Relation string
	Address  string
}

type InstallmentInput struct {
	Count       int
	CadenceDays int
	Guarantor   *GuarantorInput
}

type CheckoutInput struct {
	Items           []CheckoutItem
	PaymentType     model.PaymentType
	DeliveryAddress string
	DeliveryCity    string
	Installment     *InstallmentInput
}

type OrderService interface {
	Checkout(ctx context.Context, buyerUID string, in CheckoutInput) (*model.Order, error)
	GetDetail(ctx context.Context, orderID uint64, actor Actor) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Order, error)
	RequestTransition(ctx context.Context, orderID uint64, actor Actor, target model.OrderStatus, reason string) (*model.Order, error)
	SkipCancellationWindow(ctx context.Context, orderID uint64, actor Actor) (*model.Order, error)
	Cancel(ctx context.Context, orderID uint64, actor Actor, reason string) (*model.Order, error)
	UpdateAddress(ctx context.Context, orderID uint64, actor Actor, address, city string) (*model.Order, error)
}

type orderService struct {
	mut      *orderMutator
	itemRepo repository.ItemRepository
	guard    CancellationWindowGuard
	scorer   installment.RiskScorer
	notify   NotificationService
	audit    AuditService
	cache    *cache.OrderCache
	log      *zap.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	itemRepo repository.ItemRepository,
	locks *orderlock.Registry,
	guard CancellationWindowGuard,
	scorer installment.RiskScorer,
	notify NotificationService,
	audit AuditService,
	orderCache *cache.OrderCache,
	log *zap.Logger,
) OrderService {
	if scorer == nil {
		scorer = installment.HeuristicScorer{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &orderService{
		mut:      &orderMutator{repo: orderRepo, locks: locks},
		itemRepo: itemRepo,
		guard:    guard,
		scorer:   scorer,
		notify:   notify,
		audit:    audit,
		cache:    orderCache,
		log:      log,
	}
}

func (s *orderService) Checkout(ctx context.Context, buyerUID string, in CheckoutInput) (*model.Order, error) {
	if buyerUID == "" {
		return nil, errUnauthorized("missing buyer")
	}
	if len(in.Items) == 0 {
		return nil, newError(CodeBadRequest, "items", "order needs at least one item")
	}
	if in.PaymentType != model.PaymentTypeFull && in.PaymentType != model.PaymentTypeInstallment {
		return nil, newError(CodeBadRequest, "paymentType", "payment type must be full or installment")
	}
	if in.PaymentType == model.PaymentTypeInstallment && in.Installment == nil {
		return nil, newError(CodeBadRequest, "installment", "installment parameters are required")
	}

	now := time.Now()
	var (
		lines []model.OrderItem
		total int64
	)
	for _, ci := range in.Items {
		if ci.Quantity <= 0 {
			return nil, newError(CodeBadRequest, "items", "quantity must be positive")
		}
		item, err := s.itemRepo.FindByID(ctx, ci.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newError(CodeBadRequest, "items", fmt.Sprintf("item %d not found", ci.ItemID))
			}
			return nil, err
		}
		if item.SellerUID == buyerUID {
			return nil, newError(CodeBadRequest, "items", "cannot buy your own item")
		}
		lines = append(lines, model.OrderItem{
			ItemID:    item.ID,
			SellerUID: item.SellerUID,
			Title:     item.Title,
			UnitPrice: item.Price,
			Quantity:  ci.Quantity,
		})
		total += item.Price * int64(ci.Quantity)
	}

	status := model.OrderStatusPending
	if in.PaymentType == model.PaymentTypeInstallment {
		status = model.OrderStatusPendingInstallment
	}

	o := &model.Order{
		OrderNumber:     uuid.NewString(),
		CustomerUID:     buyerUID,
		Status:          status,
		PaymentType:     in.PaymentType,
		TotalAmount:     total,
		RemainingAmount: total,
		CancelDeadline:  s.guard.Deadline(now),
		DeliveryAddress: in.DeliveryAddress,
		DeliveryCity:    in.DeliveryCity,
		Items:           lines,
	}

	if in.PaymentType == model.PaymentTypeInstallment {
		plan, err := s.buildPlan(total, in.Installment, now)
		if err != nil {
			return nil, err
		}
		o.InstallmentPlan = plan
	}

	if err := s.mut.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	actor := Actor{UID: buyerUID, Role: RoleBuyer}
	s.audit.Record(ctx, o.ID, actor, "order_created", fmt.Sprintf("total=%d payment=%s", total, in.PaymentType))
	for _, uid := range o.SellerUIDs() {
		s.notify.Notify(ctx, uid, "order_created", "New order", fmt.Sprintf("Order %s was placed for your item", o.OrderNumber), &o.ID)
	}
	return o, nil
}

func (s *orderService) buildPlan(total int64, in *InstallmentInput, now time.Time) (*model.InstallmentPlan, error) {
	// First tranche comes due one cadence after checkout, so a fresh plan
	// can never start out overdue.
	start := now.AddDate(0, 0, in.CadenceDays)
	entries, err := installment.BuildSchedule(total, in.Count, in.CadenceDays, start)
	if err != nil {
		return nil, newError(CodeBadRequest, "installment", err.Error())
	}
	level, score := s.scorer.Score(installment.RiskInput{
		TotalAmount:  total,
		Count:        in.Count,
		CadenceDays:  in.CadenceDays,
		HasGuarantor: in.Guarantor != nil,
	})
	first := entries[0].DueDate
	plan := &model.InstallmentPlan{
		TotalAmount:      total,
		RemainingAmount:  total,
		NextDueDate:      &first,
		RiskLevel:        level,
		EligibilityScore: score,
		Entries:          entries,
	}
	if g := in.Guarantor; g != nil {
		plan.GuarantorRequired = true
		plan.GuarantorName = g.FullName
		plan.GuarantorPhone = g.Phone
		plan.GuarantorRelation = g.Relation
		plan.GuarantorAddress = g.Address
	}
	return plan, nil
}

func (s *orderService) GetDetail(ctx context.Context, orderID uint64, actor Actor) (*model.Order, error) {
	o, err := s.mut.view(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case RoleBuyer:
		if o.CustomerUID != actor.UID {
			return nil, errUnauthorized("not your order")
		}
	case RoleSeller:
		if !o.HasSeller(actor.UID) {
			return nil, errUnauthorized("not your sale")
		}
	case RoleAdmin, RoleSystem:
	default:
		return nil, errUnauthorized("unknown role")
	}
	return o, nil
}

func (s *orderService) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Order, error) {
	return s.mut.repo.ListByBuyer(ctx, buyerUID)
}

func (s *orderService) ListBySeller(ctx context.Context, sellerUID string) ([]model.Order, error) {
	return s.mut.repo.ListBySeller(ctx, sellerUID)
}

func (s *orderService) RequestTransition(ctx context.Context, orderID uint64, actor Actor, target model.OrderStatus, reason string) (*model.Order, error) {
	var saleMove bool
	o, err := s.mut.mutate(ctx, orderID, func(_ repository.OrderRepository, o *model.Order) error {
		if o.Terminal() {
			return errOrderTerminal()
		}
		now := time.Now()

		// A completed installment order keeps moving on the fulfillment
		// sub-machine; status requests target it from here on.
		if o.IsInstallment() && o.Status == model.OrderStatusCompleted {
			saleMove = true
			return s.applySaleTransition(o, actor, target)
		}

		if target == model.OrderStatusCancelled {
			return s.applyCancel(o, actor, reason, now)
		}

		if engineOnlyTargets[target] && actor.Role != RoleAdmin {
			return newError(CodeInvalidTransition, "status", "status is driven by the payment engine")
		}

		switch actor.Role {
		case RoleBuyer:
			return errUnauthorized("buyers may only cancel")
		case RoleSeller:
			if !o.HasSeller(actor.UID) {
				return errUnauthorized("not your sale")
			}
			if s.guard.IsActive(o, now) {
				return newError(CodeCancellationWindowActive, "status", "buyer cancellation window is still open")
			}
		case RoleAdmin:
		default:
			return errUnauthorized("unknown role")
		}

		if !transitionAllowed(o, target) {
			return newError(CodeInvalidTransition, "status", fmt.Sprintf("cannot move from %s to %s", o.Status, target))
		}
		o.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, o.ID)
	if saleMove {
		s.audit.Record(ctx, o.ID, actor, "sale_status_change", string(o.SaleStatus))
		s.notifyCounterpart(ctx, o, actor, "sale_status_change", "Fulfillment update", fmt.Sprintf("Order %s fulfillment is now %s", o.OrderNumber, o.SaleStatus))
	} else {
		s.audit.Record(ctx, o.ID, actor, "status_change", string(o.Status))
		s.notifyCounterpart(ctx, o, actor, "status_change", "Order update", fmt.Sprintf("Order %s is now %s", o.OrderNumber, o.Status))
	}
	return o, nil
}

func (s *orderService) applySaleTransition(o *model.Order, actor Actor, target model.OrderStatus) error {
	var to model.SaleStatus
	switch target {
	case model.OrderStatusDelivering:
		to = model.SaleStatusDelivering
	case model.OrderStatusDelivered:
		to = model.SaleStatusDelivered
	case model.OrderStatusCancelled:
		to = model.SaleStatusCancelled
	default:
		return newError(CodeInvalidTransition, "status", "completed orders only move through fulfillment states")
	}
	switch actor.Role {
	case RoleSeller:
		if !o.HasSeller(actor.UID) {
			return errUnauthorized("not your sale")
		}
	case RoleAdmin:
	default:
		return errUnauthorized("only the seller advances fulfillment")
	}
	if !saleTransitionAllowed(o.SaleStatus, to) {
		return newError(CodeInvalidTransition, "status", fmt.Sprintf("cannot move fulfillment from %s to %s", o.SaleStatus, to))
	}
	o.SaleStatus = to
	return nil
}

func (s *orderService) applyCancel(o *model.Order, actor Actor, reason string, now time.Time) error {
	if len(strings.TrimSpace(reason)) < 5 {
		return newError(CodeReasonTooShort, "reason", "cancellation reason must be at least 5 characters")
	}
	switch actor.Role {
	case RoleBuyer:
		if o.CustomerUID != actor.UID {
			return newError(CodeNotBuyerOwned, "", "not your order")
		}
		if !pendingFamily(o.Status) {
			return errUnauthorized("buyers may only cancel before the order is confirmed")
		}
	case RoleSeller:
		if !o.HasSeller(actor.UID) {
			return errUnauthorized("not your sale")
		}
	case RoleAdmin:
	default:
		return errUnauthorized("unknown role")
	}
	if !transitionAllowed(o, model.OrderStatusCancelled) {
		return newError(CodeInvalidTransition, "status", fmt.Sprintf("cannot cancel from %s", o.Status))
	}
	o.Status = model.OrderStatusCancelled
	o.CancellationReason = strings.TrimSpace(reason)
	o.CancelledAt = &now
	return nil
}

func (s *orderService) SkipCancellationWindow(ctx context.Context, orderID uint64, actor Actor) (*model.Order, error) {
	o, err := s.mut.mutate(ctx, orderID, func(_ repository.OrderRepository, o *model.Order) error {
		if o.Terminal() {
			return errOrderTerminal()
		}
		if actor.Role != RoleBuyer || o.CustomerUID != actor.UID {
			return newError(CodeNotBuyerOwned, "", "only the buyer can release the order early")
		}
		// Skipping twice is a no-op, not an error.
		o.CancelWindowSkipped = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, o.ID)
	s.audit.Record(ctx, o.ID, actor, "cancellation_window_skipped", "")
	return o, nil
}

func (s *orderService) Cancel(ctx context.Context, orderID uint64, actor Actor, reason string) (*model.Order, error) {
	return s.RequestTransition(ctx, orderID, actor, model.OrderStatusCancelled, reason)
}

func (s *orderService) UpdateAddress(ctx context.Context, orderID uint64, actor Actor, address, city string) (*model.Order, error) {
	if strings.TrimSpace(address) == "" {
		return nil, newError(CodeBadRequest, "address", "address must not be empty")
	}
	o, err := s.mut.mutate(ctx, orderID, func(_ repository.OrderRepository, o *model.Order) error {
		if o.Terminal() {
			return errOrderTerminal()
		}
		if actor.Role != RoleBuyer || o.CustomerUID != actor.UID {
			return newError(CodeNotBuyerOwned, "", "only the buyer can edit the delivery address")
		}
		if !o.AddressEditable() {
			return newError(CodeInvalidTransition, "status", fmt.Sprintf("address is locked once the order is %s", o.Status))
		}
		o.DeliveryAddress = strings.TrimSpace(address)
		o.DeliveryCity = strings.TrimSpace(city)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, o.ID)
	s.audit.Record(ctx, o.ID, actor, "address_updated", o.DeliveryCity)
	return o, nil
}

// notifyCounterpart tells the other side of the trade about a change the
// actor made. System changes go to the buyer.
func (s *orderService) notifyCounterpart(ctx context.Context, o *model.Order, actor Actor, typ, title, body string) {
	if actor.Role == RoleBuyer {
		for _, uid := range o.SellerUIDs() {
			s.notify.Notify(ctx, uid, typ, title, body, &o.ID)
		}
		return
	}
	s.notify.Notify(ctx, o.CustomerUID, typ, title, body, &o.ID)
}
