package model

import "time"

type EntryStatus string

const (
	EntryStatusPending       EntryStatus = "pending"
	EntryStatusProofUploaded EntryStatus = "proof_uploaded"
	EntryStatusPaid          EntryStatus = "paid"
	EntryStatusOverdue       EntryStatus = "overdue"
	EntryStatusWaived        EntryStatus = "waived"
)

type InstallmentPlan struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	OrderID uint64 `gorm:"column:order_id;uniqueIndex;not null"`

	TotalAmount     int64 `gorm:"column:total_amount;not null"`
	AmountPaid      int64 `gorm:"column:amount_paid;not null"`
	RemainingAmount int64 `gorm:"column:remaining_amount;not null"`

	// SaleConfirmedAt gates the whole plan: no proof may be submitted while
	// it is nil.
	SaleConfirmedAt *time.Time `gorm:"column:sale_confirmed_at"`

	NextDueDate         *time.Time `gorm:"column:next_due_date"`
	TotalPenaltyAccrued int64      `gorm:"column:total_penalty_accrued;not null"`

	RiskLevel        string `gorm:"column:risk_level;size:16"`
	EligibilityScore int    `gorm:"column:eligibility_score"`

	GuarantorRequired bool   `gorm:"column:guarantor_required"`
	GuarantorName     string `gorm:"column:guarantor_name;size:128"`
	GuarantorPhone    string `gorm:"column:guarantor_phone;size:32"`
	GuarantorRelation string `gorm:"column:guarantor_relation;size:64"`
	GuarantorAddress  string `gorm:"column:guarantor_address;type:text"`

	Entries []ScheduleEntry `gorm:"foreignKey:PlanID"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (InstallmentPlan) TableName() string {
	return "installment_plans"
}

// FullyPaid reports whether every entry has reached paid or waived.
func (p *InstallmentPlan) FullyPaid() bool {
	for i := range p.Entries {
		switch p.Entries[i].Status {
		case EntryStatusPaid, EntryStatusWaived:
		default:
			return false
		}
	}
	return len(p.Entries) > 0
}

// NextOpenDueDate returns the due date of the first entry that is neither
// paid nor waived, or nil when the plan is settled.
func (p *InstallmentPlan) NextOpenDueDate() *time.Time {
	for i := range p.Entries {
		switch p.Entries[i].Status {
		case EntryStatusPaid, EntryStatusWaived:
		default:
			d := p.Entries[i].DueDate
			return &d
		}
	}
	return nil
}

type ScheduleEntry struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	PlanID  uint64 `gorm:"column:plan_id;index;not null"`
	OrderID uint64 `gorm:"column:order_id;index;not null"`
	Seq     int    `gorm:"column:seq;not null"` // 0-indexed position in the schedule

	Amount  int64       `gorm:"column:amount;not null"`
	DueDate time.Time   `gorm:"column:due_date;not null"`
	Status  EntryStatus `gorm:"column:status;size:32;not null"`

	// PenaltyAccrued is recomputed from (now, due_date) while the entry is
	// overdue and frozen once it leaves that status.
	PenaltyAccrued int64 `gorm:"column:penalty_accrued;not null"`

	PaidAt *time.Time `gorm:"column:paid_at"`

	Proofs []InstallmentProof `gorm:"foreignKey:EntryID"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ScheduleEntry) TableName() string {
	return "schedule_entries"
}

// CurrentProof returns the outstanding (submitted or approved) proof for the
// entry, if any. Rejected proofs stay in Proofs as audit history.
func (e *ScheduleEntry) CurrentProof() *InstallmentProof {
	for i := range e.Proofs {
		if e.Proofs[i].Status == ProofStatusSubmitted || e.Proofs[i].Status == ProofStatusApproved {
			return &e.Proofs[i]
		}
	}
	return nil
}

type ProofStatus string

const (
	ProofStatusSubmitted ProofStatus = "submitted"
	ProofStatusApproved  ProofStatus = "approved"
	ProofStatusRejected  ProofStatus = "rejected"
)

type InstallmentProof struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	EntryID uint64 `gorm:"column:entry_id;index;not null"`
	PlanID  uint64 `gorm:"column:plan_id;index;not null"`
	OrderID uint64 `gorm:"column:order_id;index;not null"`

	SenderName      string      `gorm:"column:sender_name;size:128;not null"`
	TransactionCode string      `gorm:"column:transaction_code;size:10;not null"`
	Amount          int64       `gorm:"column:amount;not null"`
	Status          ProofStatus `gorm:"column:status;size:16;not null"`

	SubmittedAt time.Time  `gorm:"column:submitted_at;not null"`
	DecidedAt   *time.Time `gorm:"column:decided_at"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (InstallmentProof) TableName() string {
	return "installment_proofs"
}
