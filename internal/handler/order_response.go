package handler

import (
	"time"

	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/pasarlink/marketplace-backend/internal/service"
)

type ProofResponse struct {
	SenderName      string  `json:"senderName"`
	TransactionCode string  `json:"transactionCode"`
	Amount          int64   `json:"amount"`
	Status          string  `json:"status"`
	SubmittedAt     string  `json:"submittedAt"`
	DecidedAt       *string `json:"decidedAt,omitempty"`
}

type ScheduleEntryResponse struct {
	Index          int             `json:"index"`
	Amount         int64           `json:"amount"`
	DueDate        string          `json:"dueDate"`
	Status         string          `json:"status"`
	PenaltyAccrued int64           `json:"penaltyAccrued"`
	PaidAt         *string         `json:"paidAt,omitempty"`
	Proof          *ProofResponse  `json:"proof,omitempty"`
	ProofHistory   []ProofResponse `json:"proofHistory,omitempty"`
}

type GuarantorResponse struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
	Address  string `json:"address"`
}

type InstallmentPlanResponse struct {
	TotalAmount         int64                   `json:"totalAmount"`
	AmountPaid          int64                   `json:"amountPaid"`
	RemainingAmount     int64                   `json:"remainingAmount"`
	SaleConfirmedAt     *string                 `json:"saleConfirmedAt,omitempty"`
	NextDueDate         *string                 `json:"nextDueDate,omitempty"`
	TotalPenaltyAccrued int64                   `json:"totalPenaltyAccrued"`
	RiskLevel           string                  `json:"riskLevel"`
	EligibilityScore    int                     `json:"eligibilityScore"`
	Guarantor           *GuarantorResponse      `json:"guarantor,omitempty"`
	Schedule            []ScheduleEntryResponse `json:"schedule"`
}

type OrderItemResponse struct {
	ItemID    uint64 `json:"itemId"`
	SellerUID string `json:"sellerUid"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type CancellationWindowResponse struct {
	Deadline string `json:"deadline"`
	IsActive bool   `json:"isActive"`
}

type OrderResponse struct {
	ID                 uint64                     `json:"id"`
	OrderNumber        string                     `json:"orderNumber"`
	CustomerUID        string                     `json:"customerUid"`
	Status             string                     `json:"status"`
	PaymentType        string                     `json:"paymentType"`
	TotalAmount        int64                      `json:"totalAmount"`
	PaidAmount         int64                      `json:"paidAmount"`
	RemainingAmount    int64                      `json:"remainingAmount"`
	CancellationWindow CancellationWindowResponse `json:"cancellationWindow"`
	CancellationReason string                     `json:"cancellationReason,omitempty"`
	CancelledAt        *string                    `json:"cancelledAt,omitempty"`
	DeliveryAddress    string                     `json:"deliveryAddress"`
	DeliveryCity       string                     `json:"deliveryCity"`
	SaleStatus         string                     `json:"saleStatus,omitempty"`
	Items              []OrderItemResponse        `json:"items"`
	InstallmentPlan    *InstallmentPlanResponse   `json:"installmentPlan,omitempty"`
	CreatedAt          string                     `json:"createdAt"`
	UpdatedAt          string                     `json:"updatedAt"`
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}

func toProofResponse(p *model.InstallmentProof) ProofResponse {
	return ProofResponse{
		SenderName:      p.SenderName,
		TransactionCode: p.TransactionCode,
		Amount:          p.Amount,
		Status:          string(p.Status),
		SubmittedAt:     p.SubmittedAt.Format(time.RFC3339),
		DecidedAt:       fmtTimePtr(p.DecidedAt),
	}
}

func toOrderResponse(o *model.Order, guard service.CancellationWindowGuard, now time.Time) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerUID:     o.CustomerUID,
		Status:          string(o.Status),
		PaymentType:     string(o.PaymentType),
		TotalAmount:     o.TotalAmount,
		PaidAmount:      o.PaidAmount,
		RemainingAmount: o.RemainingAmount,
		CancellationWindow: CancellationWindowResponse{
			Deadline: o.CancelDeadline.Format(time.RFC3339),
			IsActive: guard.IsActive(o, now),
		},
		CancellationReason: o.CancellationReason,
		CancelledAt:        fmtTimePtr(o.CancelledAt),
		DeliveryAddress:    o.DeliveryAddress,
		DeliveryCity:       o.DeliveryCity,
		SaleStatus:         string(o.SaleStatus),
		Items:              make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          o.UpdatedAt.Format(time.RFC3339),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ItemID:    it.ItemID,
			SellerUID: it.SellerUID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	if plan := o.InstallmentPlan; plan != nil {
		pr := &InstallmentPlanResponse{
			TotalAmount:         plan.TotalAmount,
			AmountPaid:          plan.AmountPaid,
			RemainingAmount:     plan.RemainingAmount,
			SaleConfirmedAt:     fmtTimePtr(plan.SaleConfirmedAt),
			NextDueDate:         fmtTimePtr(plan.NextDueDate),
			TotalPenaltyAccrued: plan.TotalPenaltyAccrued,
			RiskLevel:           plan.RiskLevel,
			EligibilityScore:    plan.EligibilityScore,
			Schedule:            make([]ScheduleEntryResponse, 0, len(plan.Entries)),
		}
		if plan.GuarantorRequired {
			pr.Guarantor = &GuarantorResponse{
				FullName: plan.GuarantorName,
				Phone:    plan.GuarantorPhone,
				Relation: plan.GuarantorRelation,
				Address:  plan.GuarantorAddress,
			}
		}
		for i := range plan.Entries {
			en := &plan.Entries[i]
			er := ScheduleEntryResponse{
				Index:          en.Seq,
				Amount:         en.Amount,
				DueDate:        en.DueDate.Format(time.RFC3339),
				Status:         string(en.Status),
				PenaltyAccrued: en.PenaltyAccrued,
				PaidAt:         fmtTimePtr(en.PaidAt),
			}
			if cur := en.CurrentProof(); cur != nil {
				p := toProofResponse(cur)
				er.Proof = &p
			}
			for j := range en.Proofs {
				er.ProofHistory = append(er.ProofHistory, toProofResponse(&en.Proofs[j]))
			}
			pr.Schedule = append(pr.Schedule, er)
		}
		resp.InstallmentPlan = pr
	}
	return resp
}
