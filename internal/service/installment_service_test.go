package service

import (
	"context"
	"testing"

	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitProofRequiresSaleConfirmation(t *testing.T) {
	f := newFixture(t)
	o := f.checkoutInstallment(t, 3, 3, 30)

	_, err := f.inst.SubmitProof(context.Background(), o.ID, buyer(), 0, "Budi", validCode, 10000)
	assert.True(t, IsCode(err, CodeSaleNotConfirmed))
}

func TestConfirmSale(t *testing.T) {
	f := newFixture(t)
	o := f.checkoutInstallment(t, 3, 3, 30)
	ctx := context.Background()

	got, err := f.inst.ConfirmSale(ctx, o.ID, seller(), true)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusInstallmentActive, got.Status)
	require.NotNil(t, got.InstallmentPlan.SaleConfirmedAt)

	// One-shot gate.
	_, err = f.inst.ConfirmSale(ctx, o.ID, seller(), true)
	assert.True(t, IsCode(err, CodeAlreadyConfirmed))
	_, err = f.inst.ConfirmSale(ctx, o.ID, seller(), false)
	assert.True(t, IsCode(err, CodeAlreadyConfirmed))
}

func TestConfirmSaleRejectionCancelsOrder(t *testing.T) {
	f := newFixture(t)
	o := f.checkoutInstallment(t, 3, 3, 30)
	ctx := context.Background()

	got, err := f.inst.ConfirmSale(ctx, o.ID, seller(), false)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
	assert.NotEmpty(t, got.CancellationReason)
	require.NotNil(t, got.CancelledAt)

	// No schedule entry is reachable afterwards.
	_, err = f.inst.SubmitProof(ctx, o.ID, buyer(), 0, "Budi", validCode, 10000)
	assert.True(t, IsCode(err, CodeOrderTerminal))
	_, err = f.inst.ValidateProof(ctx, o.ID, seller(), 0, true)
	assert.True(t, IsCode(err, CodeOrderTerminal))
}

func TestConfirmSaleSellerOnly(t *testing.T) {
	f := newFixture(t)
	o := f.checkoutInstallment(t, 3, 3, 30)

	_, err := f.inst.ConfirmSale(context.Background(), o.ID, buyer(), true)
	assert.True(t, IsCode(err, CodeUnauthorized))
	_, err = f.inst.ConfirmSale(context.Background(), o.ID, Actor{UID: "other-seller", Role: RoleSeller}, true)
	assert.True(t, IsCode(err, CodeUnauthorized))
}

func TestSubmitProofValidation(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	tests := []struct {
		name   string
		index  int
		payer  string
		code   string
		amount int64
		want   ErrorCode
	}{
		{"code too short", 0, "Budi", "12345", 10000, CodeInvalidTransactionCode},
		{"code with letters", 0, "Budi", "12345abcde", 10000, CodeInvalidTransactionCode},
		{"code too long", 0, "Budi", "12345678901", 10000, CodeInvalidTransactionCode},
		{"zero amount", 0, "Budi", validCode, 0, CodeInvalidAmount},
		{"negative amount", 0, "Budi", validCode, -5, CodeInvalidAmount},
		{"index out of range", 3, "Budi", validCode, 10000, CodeInvalidScheduleIndex},
		{"negative index", -1, "Budi", validCode, 10000, CodeInvalidScheduleIndex},
		{"empty payer", 0, "  ", validCode, 10000, CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.inst.SubmitProof(ctx, o.ID, buyer(), tt.index, tt.payer, tt.code, tt.amount)
			assert.Truef(t, IsCode(err, tt.want), "err=%v want=%s", err, tt.want)
		})
	}
}

func TestSubmitProofResubmissionOverwrites(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	_, err := f.inst.SubmitProof(ctx, o.ID, buyer(), 0, "Budi", validCode, 10000)
	require.NoError(t, err)
	got, err := f.inst.SubmitProof(ctx, o.ID, buyer(), 0, "Siti", "0987654321", 10000)
	require.NoError(t, err)

	entry := got.InstallmentPlan.Entries[0]
	assert.Equal(t, model.EntryStatusProofUploaded, entry.Status)
	require.Len(t, entry.Proofs, 1)
	assert.Equal(t, "Siti", entry.Proofs[0].SenderName)
	assert.Equal(t, "0987654321", entry.Proofs[0].TransactionCode)
}

func TestValidateProofRejectKeepsHistory(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	_, err := f.inst.SubmitProof(ctx, o.ID, buyer(), 0, "Budi", validCode, 10000)
	require.NoError(t, err)
	got, err := f.inst.ValidateProof(ctx, o.ID, seller(), 0, false)
	require.NoError(t, err)

	entry := got.InstallmentPlan.Entries[0]
	assert.Equal(t, model.EntryStatusPending, entry.Status)
	require.Len(t, entry.Proofs, 1)
	assert.Equal(t, model.ProofStatusRejected, entry.Proofs[0].Status)
	require.NotNil(t, entry.Proofs[0].DecidedAt)
	assert.Equal(t, int64(0), got.InstallmentPlan.AmountPaid)

	// Resubmission after rejection appends a fresh proof; the rejected one
	// stays on record.
	got, err = f.inst.SubmitProof(ctx, o.ID, buyer(), 0, "Budi", validCode, 10000)
	require.NoError(t, err)
	entry = got.InstallmentPlan.Entries[0]
	require.Len(t, entry.Proofs, 2)
	assert.Equal(t, model.ProofStatusRejected, entry.Proofs[0].Status)
	assert.Equal(t, model.ProofStatusSubmitted, entry.Proofs[1].Status)
}

func TestValidateProofApprove(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	_, err := f.inst.SubmitProof(ctx, o.ID, buyer(), 0, "Budi", validCode, 10000)
	require.NoError(t, err)
	got, err := f.inst.ValidateProof(ctx, o.ID, seller(), 0, true)
	require.NoError(t, err)

	plan := got.InstallmentPlan
	assert.Equal(t, model.EntryStatusPaid, plan.Entries[0].Status)
	require.NotNil(t, plan.Entries[0].PaidAt)
	assert.Equal(t, int64(10000), plan.AmountPaid)
	assert.Equal(t, int64(20000), plan.RemainingAmount)
	assert.Equal(t, int64(10000), got.PaidAmount)
	assert.Equal(t, int64(20000), got.RemainingAmount)
	require.NotNil(t, plan.NextDueDate)
	assert.Equal(t, plan.Entries[1].DueDate.Unix(), plan.NextDueDate.Unix())
	assert.Equal(t, model.OrderStatusInstallmentActive, got.Status)

	// Paid entries accept no further proofs.
	_, err = f.inst.SubmitProof(ctx, o.ID, buyer(), 0, "Budi", validCode, 10000)
	assert.True(t, IsCode(err, CodeInvalidScheduleIndex))
	// And there is nothing left to validate on that entry.
	_, err = f.inst.ValidateProof(ctx, o.ID, seller(), 0, true)
	assert.True(t, IsCode(err, CodeInvalidScheduleIndex))
}

func TestPlanCompletionExactlyOnce(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.inst.SubmitProof(ctx, o.ID, buyer(), i, "Budi", validCode, 10000)
		require.NoError(t, err)
		got, err := f.inst.ValidateProof(ctx, o.ID, seller(), i, true)
		require.NoError(t, err)
		if i < 2 {
			assert.Equal(t, model.OrderStatusInstallmentActive, got.Status)
			assert.Equal(t, model.SaleStatusNone, got.SaleStatus)
		} else {
			assert.Equal(t, model.OrderStatusCompleted, got.Status)
			assert.Equal(t, model.SaleStatusConfirmed, got.SaleStatus)
			assert.Equal(t, int64(0), got.RemainingAmount)
			assert.Nil(t, got.InstallmentPlan.NextDueDate)
		}
	}

	// The fulfillment sub-machine takes over from here.
	got, err := f.orders.RequestTransition(ctx, o.ID, seller(), model.OrderStatusDelivering, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, got.Status)
	assert.Equal(t, model.SaleStatusDelivering, got.SaleStatus)

	got, err = f.orders.RequestTransition(ctx, o.ID, seller(), model.OrderStatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, model.SaleStatusDelivered, got.SaleStatus)

	// Delivered fulfillment is final.
	_, err = f.orders.RequestTransition(ctx, o.ID, seller(), model.OrderStatusDelivering, "")
	assert.True(t, IsCode(err, CodeInvalidTransition))
}

func TestWaiveEntry(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	_, err := f.inst.WaiveEntry(ctx, o.ID, seller(), 0)
	assert.True(t, IsCode(err, CodeUnauthorized))

	got, err := f.inst.WaiveEntry(ctx, o.ID, admin(), 0)
	require.NoError(t, err)
	assert.Equal(t, model.EntryStatusWaived, got.InstallmentPlan.Entries[0].Status)
	// Waiving moves no money.
	assert.Equal(t, int64(0), got.InstallmentPlan.AmountPaid)

	// Waived entries cannot be waived again.
	_, err = f.inst.WaiveEntry(ctx, o.ID, admin(), 0)
	assert.True(t, IsCode(err, CodeInvalidScheduleIndex))

	// Waiving the rest settles the plan.
	_, err = f.inst.WaiveEntry(ctx, o.ID, admin(), 1)
	require.NoError(t, err)
	got, err = f.inst.WaiveEntry(ctx, o.ID, admin(), 2)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, got.Status)
	assert.Equal(t, model.SaleStatusConfirmed, got.SaleStatus)
}

func TestProofOnFullPaymentOrder(t *testing.T) {
	f := newFixture(t)
	o := f.checkoutFull(t, 1)

	_, err := f.inst.SubmitProof(context.Background(), o.ID, buyer(), 0, "Budi", validCode, 10000)
	assert.True(t, IsCode(err, CodeBadRequest))
}

func TestScheduleAmountsImmutable(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	_, err := f.inst.SubmitProof(ctx, o.ID, buyer(), 0, "Budi", validCode, 10000)
	require.NoError(t, err)
	got, err := f.inst.ValidateProof(ctx, o.ID, seller(), 0, true)
	require.NoError(t, err)

	var sum int64
	for _, e := range got.InstallmentPlan.Entries {
		sum += e.Amount
	}
	assert.Equal(t, got.InstallmentPlan.TotalAmount, sum)
}
