package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pasarlink/marketplace-backend/internal/cache"
	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/orderlock"
	"github.com/pasarlink/marketplace-backend/internal/repository"
	"go.uber.org/zap"
)

var transactionCodeRe = regexp.MustCompile(`^[0-9]{10}$`)

type InstallmentService interface {
	SubmitProof(ctx context.Context, orderID uint64, actor Actor, index int, payerName, transactionCode string, amount int64) (*model.Order, error)
	ValidateProof(ctx context.Context, orderID uint64, actor Actor, index int, approve bool) (*model.Order, error)
	ConfirmSale(ctx context.Context, orderID uint64, actor Actor, approve bool) (*model.Order, error)
	WaiveEntry(ctx context.Context, orderID uint64, actor Actor, index int) (*model.Order, error)
}

type installmentService struct {
	mut    *orderMutator
	notify NotificationService
	audit  AuditService
	cache  *cache.OrderCache
	log    *zap.Logger
}

func NewInstallmentService(
	orderRepo repository.OrderRepository,
	locks *orderlock.Registry,
	notify NotificationService,
	audit AuditService,
	orderCache *cache.OrderCache,
	log *zap.Logger,
) InstallmentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &installmentService{
		mut:    &orderMutator{repo: orderRepo, locks: locks},
		notify: notify,
		audit:  audit,
		cache:  orderCache,
		log:    log,
	}
}

func (s *installmentService) SubmitProof(ctx context.Context, orderID uint64, actor Actor, index int, payerName, transactionCode string, amount int64) (*model.Order, error) {
	o, err := s.mut.mutate(ctx, orderID, func(r repository.OrderRepository, o *model.Order) error {
		if o.Terminal() {
			return errOrderTerminal()
		}
		if actor.Role != RoleBuyer {
			return errUnauthorized("only the buyer submits payment proofs")
		}
		if o.CustomerUID != actor.UID {
			return newError(CodeNotBuyerOwned, "", "not your order")
		}
		plan := o.InstallmentPlan
		if plan == nil {
			return newError(CodeBadRequest, "paymentType", "order has no installment plan")
		}
		if plan.SaleConfirmedAt == nil {
			return newError(CodeSaleNotConfirmed, "", "seller has not confirmed the sale yet")
		}
		entry, derr := entryAt(plan, index)
		if derr != nil {
			return derr
		}
		switch entry.Status {
		case model.EntryStatusPending, model.EntryStatusOverdue:
		case model.EntryStatusProofUploaded:
			// Resubmission while a proof awaits validation overwrites it
			// below.
		default:
			return newError(CodeInvalidScheduleIndex, "index", fmt.Sprintf("installment %d is %s and takes no proof", index, entry.Status))
		}
		if !transactionCodeRe.MatchString(transactionCode) {
			return newError(CodeInvalidTransactionCode, "transactionCode", "transaction code must be exactly 10 digits")
		}
		if amount <= 0 {
			return newError(CodeInvalidAmount, "amount", "amount must be positive")
		}
		payerName = strings.TrimSpace(payerName)
		if payerName == "" {
			return newError(CodeBadRequest, "payerName", "payer name must not be empty")
		}

		now := time.Now()
		// One outstanding proof per entry: resubmitting overwrites the
		// pending submission instead of appending a new one.
		if cur := entry.CurrentProof(); cur != nil && cur.Status == model.ProofStatusSubmitted {
			cur.SenderName = payerName
			cur.TransactionCode = transactionCode
			cur.Amount = amount
			cur.SubmittedAt = now
			if err := r.SaveProof(ctx, cur); err != nil {
				return err
			}
		} else {
			proof := &model.InstallmentProof{
				EntryID:         entry.ID,
				PlanID:          plan.ID,
				OrderID:         o.ID,
				SenderName:      payerName,
				TransactionCode: transactionCode,
				Amount:          amount,
				Status:          model.ProofStatusSubmitted,
				SubmittedAt:     now,
			}
			if err := r.CreateProof(ctx, proof); err != nil {
				return err
			}
			entry.Proofs = append(entry.Proofs, *proof)
		}
		entry.Status = model.EntryStatusProofUploaded
		return r.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, o.ID)
	s.audit.Record(ctx, o.ID, actor, "proof_submitted", fmt.Sprintf("index=%d amount=%d", index, amount))
	for _, uid := range o.SellerUIDs() {
		s.notify.Notify(ctx, uid, "proof_submitted", "Payment proof uploaded", fmt.Sprintf("Installment %d of order %s awaits your validation", index+1, o.OrderNumber), &o.ID)
	}
	return o, nil
}

func (s *installmentService) ValidateProof(ctx context.Context, orderID uint64, actor Actor, index int, approve bool) (*model.Order, error) {
	var completed bool
	o, err := s.mut.mutate(ctx, orderID, func(r repository.OrderRepository, o *model.Order) error {
		completed = false
		if o.Terminal() {
			return errOrderTerminal()
		}
		if err := requireSellerOrAdmin(o, actor); err != nil {
			return err
		}
		plan := o.InstallmentPlan
		if plan == nil {
			return newError(CodeBadRequest, "paymentType", "order has no installment plan")
		}
		entry, derr := entryAt(plan, index)
		if derr != nil {
			return derr
		}
		if entry.Status != model.EntryStatusProofUploaded {
			return newError(CodeInvalidScheduleIndex, "index", fmt.Sprintf("installment %d has no proof awaiting validation", index))
		}
		proof := entry.CurrentProof()
		if proof == nil || proof.Status != model.ProofStatusSubmitted {
			return newError(CodeInvalidScheduleIndex, "index", "no outstanding proof on this installment")
		}

		now := time.Now()
		if !approve {
			// The rejected proof stays on record; the entry goes back to
			// pending so the buyer can resubmit.
			proof.Status = model.ProofStatusRejected
			proof.DecidedAt = &now
			entry.Status = model.EntryStatusPending
			if err := r.SaveProof(ctx, proof); err != nil {
				return err
			}
			return r.SaveEntry(ctx, entry)
		}

		proof.Status = model.ProofStatusApproved
		proof.DecidedAt = &now
		entry.Status = model.EntryStatusPaid
		entry.PaidAt = &now

		plan.AmountPaid += entry.Amount
		plan.RemainingAmount = plan.TotalAmount - plan.AmountPaid
		if plan.RemainingAmount < 0 {
			plan.RemainingAmount = 0
		}
		plan.NextDueDate = plan.NextOpenDueDate()

		o.PaidAmount += entry.Amount
		o.RemainingAmount = o.TotalAmount - o.PaidAmount
		if o.RemainingAmount < 0 {
			o.RemainingAmount = 0
		}

		refreshOverdueState(o)
		if plan.FullyPaid() && o.Status != model.OrderStatusCompleted {
			if !transitionAllowed(o, model.OrderStatusCompleted) {
				return newError(CodeInvalidTransition, "status", fmt.Sprintf("cannot complete from %s", o.Status))
			}
			o.Status = model.OrderStatusCompleted
			o.SaleStatus = model.SaleStatusConfirmed
			completed = true
		}

		if err := r.SaveProof(ctx, proof); err != nil {
			return err
		}
		if err := r.SaveEntry(ctx, entry); err != nil {
			return err
		}
		return r.SavePlan(ctx, plan)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, o.ID)
	verdict := "rejected"
	if approve {
		verdict = "approved"
	}
	s.audit.Record(ctx, o.ID, actor, "proof_"+verdict, fmt.Sprintf("index=%d", index))
	s.notify.Notify(ctx, o.CustomerUID, "proof_"+verdict, "Installment "+verdict, fmt.Sprintf("Installment %d of order %s was %s", index+1, o.OrderNumber, verdict), &o.ID)
	if completed {
		s.audit.Record(ctx, o.ID, SystemActor(), "plan_completed", "")
		s.notify.Notify(ctx, o.CustomerUID, "plan_completed", "Installment plan settled", fmt.Sprintf("Order %s is fully paid; the seller will arrange delivery", o.OrderNumber), &o.ID)
	}
	return o, nil
}

func (s *installmentService) ConfirmSale(ctx context.Context, orderID uint64, actor Actor, approve bool) (*model.Order, error) {
	var rejected bool
	o, err := s.mut.mutate(ctx, orderID, func(r repository.OrderRepository, o *model.Order) error {
		rejected = false
		if o.Terminal() {
			return errOrderTerminal()
		}
		if err := requireSellerOrAdmin(o, actor); err != nil {
			return err
		}
		plan := o.InstallmentPlan
		if plan == nil {
			return newError(CodeBadRequest, "paymentType", "order has no installment plan")
		}
		if plan.SaleConfirmedAt != nil {
			return newError(CodeAlreadyConfirmed, "", "sale was already confirmed")
		}
		if o.Status != model.OrderStatusPendingInstallment {
			return newError(CodeInvalidTransition, "status", fmt.Sprintf("sale confirmation is only valid from pending_installment, not %s", o.Status))
		}

		now := time.Now()
		if !approve {
			rejected = true
			o.Status = model.OrderStatusCancelled
			o.CancellationReason = "installment sale rejected by seller"
			o.CancelledAt = &now
			return nil
		}
		plan.SaleConfirmedAt = &now
		o.Status = model.OrderStatusInstallmentActive
		return r.SavePlan(ctx, plan)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, o.ID)
	if rejected {
		s.audit.Record(ctx, o.ID, actor, "sale_rejected", "")
		s.notify.Notify(ctx, o.CustomerUID, "sale_rejected", "Order cancelled", fmt.Sprintf("The seller declined the installment sale for order %s", o.OrderNumber), &o.ID)
	} else {
		s.audit.Record(ctx, o.ID, actor, "sale_confirmed", "")
		s.notify.Notify(ctx, o.CustomerUID, "sale_confirmed", "Sale confirmed", fmt.Sprintf("You can now submit installment payments for order %s", o.OrderNumber), &o.ID)
	}
	return o, nil
}

func (s *installmentService) WaiveEntry(ctx context.Context, orderID uint64, actor Actor, index int) (*model.Order, error) {
	var completed bool
	o, err := s.mut.mutate(ctx, orderID, func(r repository.OrderRepository, o *model.Order) error {
		completed = false
		if o.Terminal() {
			return errOrderTerminal()
		}
		if actor.Role != RoleAdmin {
			return errUnauthorized("only admins can waive installments")
		}
		plan := o.InstallmentPlan
		if plan == nil {
			return newError(CodeBadRequest, "paymentType", "order has no installment plan")
		}
		entry, derr := entryAt(plan, index)
		if derr != nil {
			return derr
		}
		if entry.Status != model.EntryStatusPending && entry.Status != model.EntryStatusOverdue {
			return newError(CodeInvalidScheduleIndex, "index", fmt.Sprintf("installment %d is %s and cannot be waived", index, entry.Status))
		}

		entry.Status = model.EntryStatusWaived
		plan.NextDueDate = plan.NextOpenDueDate()

		refreshOverdueState(o)
		if plan.FullyPaid() && o.Status != model.OrderStatusCompleted {
			if !transitionAllowed(o, model.OrderStatusCompleted) {
				return newError(CodeInvalidTransition, "status", fmt.Sprintf("cannot complete from %s", o.Status))
			}
			o.Status = model.OrderStatusCompleted
			o.SaleStatus = model.SaleStatusConfirmed
			completed = true
		}

		if err := r.SaveEntry(ctx, entry); err != nil {
			return err
		}
		return r.SavePlan(ctx, plan)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, o.ID)
	s.audit.Record(ctx, o.ID, actor, "entry_waived", fmt.Sprintf("index=%d", index))
	s.notify.Notify(ctx, o.CustomerUID, "entry_waived", "Installment waived", fmt.Sprintf("Installment %d of order %s was waived", index+1, o.OrderNumber), &o.ID)
	if completed {
		s.notify.Notify(ctx, o.CustomerUID, "plan_completed", "Installment plan settled", fmt.Sprintf("Order %s is settled; the seller will arrange delivery", o.OrderNumber), &o.ID)
	}
	return o, nil
}

func entryAt(plan *model.InstallmentPlan, index int) (*model.ScheduleEntry, *Error) {
	if index < 0 || index >= len(plan.Entries) {
		return nil, newError(CodeInvalidScheduleIndex, "index", fmt.Sprintf("installment index %d is out of range", index))
	}
	return &plan.Entries[index], nil
}

func requireSellerOrAdmin(o *model.Order, actor Actor) error {
	switch actor.Role {
	case RoleSeller:
		if !o.HasSeller(actor.UID) {
			return errUnauthorized("not your sale")
		}
	case RoleAdmin:
	default:
		return errUnauthorized("seller or admin required")
	}
	return nil
}
