package service

import "github.com/pasarlink/marketplace-backend/internal/model"

// Transition legality lives in these tables and nowhere else. cancelled is
// terminal; completed is terminal for the payment dimension, after which the
// installment sale continues on the SaleStatus sub-machine.

var fullTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:    {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed:  {model.OrderStatusDelivering, model.OrderStatusCancelled},
	model.OrderStatusDelivering: {model.OrderStatusDelivered, model.OrderStatusCancelled},
	model.OrderStatusDelivered:  {},
	model.OrderStatusCancelled:  {},
}

var installmentTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPendingInstallment: {model.OrderStatusInstallmentActive, model.OrderStatusCancelled},
	model.OrderStatusInstallmentActive:  {model.OrderStatusOverdueInstallment, model.OrderStatusCompleted, model.OrderStatusCancelled},
	model.OrderStatusOverdueInstallment: {model.OrderStatusInstallmentActive, model.OrderStatusCompleted, model.OrderStatusCancelled},
	model.OrderStatusCompleted:          {},
	model.OrderStatusCancelled:          {},
}

var saleTransitions = map[model.SaleStatus][]model.SaleStatus{
	model.SaleStatusConfirmed:  {model.SaleStatusDelivering, model.SaleStatusCancelled},
	model.SaleStatusDelivering: {model.SaleStatusDelivered, model.SaleStatusCancelled},
	model.SaleStatusDelivered:  {},
	model.SaleStatusCancelled:  {},
}

// engineOnlyTargets are driven by sale confirmation or the penalty engine,
// never by a direct buyer/seller status request.
var engineOnlyTargets = map[model.OrderStatus]bool{
	model.OrderStatusInstallmentActive:  true,
	model.OrderStatusOverdueInstallment: true,
	model.OrderStatusCompleted:          true,
}

func transitionAllowed(o *model.Order, target model.OrderStatus) bool {
	table := fullTransitions
	if o.IsInstallment() {
		table = installmentTransitions
	}
	for _, next := range table[o.Status] {
		if next == target {
			return true
		}
	}
	return false
}

func saleTransitionAllowed(from, to model.SaleStatus) bool {
	for _, next := range saleTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// pendingFamily covers the states from which a buyer may unilaterally cancel.
func pendingFamily(s model.OrderStatus) bool {
	return s == model.OrderStatusPending || s == model.OrderStatusPendingInstallment
}

// refreshOverdueState flips the order between installment_active and
// overdue_installment based on the entry statuses currently on the plan.
// Idempotent; loaded plan entries must be current.
func refreshOverdueState(o *model.Order) {
	if o.InstallmentPlan == nil {
		return
	}
	anyOverdue := false
	for i := range o.InstallmentPlan.Entries {
		if o.InstallmentPlan.Entries[i].Status == model.EntryStatusOverdue {
			anyOverdue = true
			break
		}
	}
	switch {
	case anyOverdue && o.Status == model.OrderStatusInstallmentActive:
		o.Status = model.OrderStatusOverdueInstallment
	case !anyOverdue && o.Status == model.OrderStatusOverdueInstallment:
		o.Status = model.OrderStatusInstallmentActive
	}
}
