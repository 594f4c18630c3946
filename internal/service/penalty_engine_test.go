package service

import (
	"context"
	"testing"
	"time"

	"github.com/pasarlink/marketplace-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepMarksOverdueAndAccrues(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	// First entry five days past due, at 1%/day on a 10000 tranche.
	past := time.Now().Add(-5 * 24 * time.Hour)
	require.NoError(t, f.db.Model(&model.ScheduleEntry{}).
		Where("order_id = ? AND seq = 0", o.ID).
		Update("due_date", past).Error)
	future := time.Now().Add(30 * 24 * time.Hour)
	require.NoError(t, f.db.Model(&model.ScheduleEntry{}).
		Where("order_id = ? AND seq > 0", o.ID).
		Update("due_date", future).Error)

	now := time.Now()
	f.engine.Sweep(ctx, now)

	got := f.reload(t, o.ID)
	assert.Equal(t, model.OrderStatusOverdueInstallment, got.Status)
	assert.Equal(t, model.EntryStatusOverdue, got.InstallmentPlan.Entries[0].Status)
	assert.Equal(t, int64(500), got.InstallmentPlan.Entries[0].PenaltyAccrued)
	assert.Equal(t, int64(500), got.InstallmentPlan.TotalPenaltyAccrued)
	assert.Equal(t, model.EntryStatusPending, got.InstallmentPlan.Entries[1].Status)
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	past := time.Now().Add(-3 * 24 * time.Hour)
	require.NoError(t, f.db.Model(&model.ScheduleEntry{}).
		Where("order_id = ? AND seq = 0", o.ID).
		Update("due_date", past).Error)

	now := time.Now()
	f.engine.Sweep(ctx, now)
	first := f.reload(t, o.ID)

	// Re-running at the same instant must not double-accrue: penalties are
	// recomputed from the due date, not accumulated.
	f.engine.Sweep(ctx, now)
	second := f.reload(t, o.ID)

	assert.Equal(t, first.InstallmentPlan.TotalPenaltyAccrued, second.InstallmentPlan.TotalPenaltyAccrued)
	assert.Equal(t, first.InstallmentPlan.Entries[0].PenaltyAccrued, second.InstallmentPlan.Entries[0].PenaltyAccrued)
	assert.Equal(t, first.Status, second.Status)
}

func TestSweepAccrualGrowsWithTime(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	past := time.Now().Add(-24 * time.Hour)
	require.NoError(t, f.db.Model(&model.ScheduleEntry{}).
		Where("order_id = ? AND seq = 0", o.ID).
		Update("due_date", past).Error)

	f.engine.Sweep(ctx, time.Now())
	day1 := f.reload(t, o.ID).InstallmentPlan.TotalPenaltyAccrued

	f.engine.Sweep(ctx, time.Now().Add(48*time.Hour))
	day3 := f.reload(t, o.ID).InstallmentPlan.TotalPenaltyAccrued

	assert.Equal(t, int64(100), day1)
	assert.Equal(t, int64(300), day3)
}

func TestPayingOverdueEntryRevertsOrderStatus(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	past := time.Now().Add(-2 * 24 * time.Hour)
	require.NoError(t, f.db.Model(&model.ScheduleEntry{}).
		Where("order_id = ? AND seq = 0", o.ID).
		Update("due_date", past).Error)
	f.engine.Sweep(ctx, time.Now())
	require.Equal(t, model.OrderStatusOverdueInstallment, f.reload(t, o.ID).Status)

	// Overdue entries still accept proofs.
	_, err := f.inst.SubmitProof(ctx, o.ID, buyer(), 0, "Budi", validCode, 10000)
	require.NoError(t, err)
	got, err := f.inst.ValidateProof(ctx, o.ID, seller(), 0, true)
	require.NoError(t, err)

	// No other entry is overdue, so the order recovers.
	assert.Equal(t, model.OrderStatusInstallmentActive, got.Status)
	// The accrued penalty survives payment.
	assert.Equal(t, int64(200), got.InstallmentPlan.Entries[0].PenaltyAccrued)
	assert.Equal(t, int64(200), got.InstallmentPlan.TotalPenaltyAccrued)
}

func TestSweepSkipsCancelledOrders(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	_, err := f.orders.Cancel(ctx, o.ID, admin(), "fraud suspected")
	require.NoError(t, err)
	before := f.reload(t, o.ID)

	f.engine.Sweep(ctx, time.Now().Add(90*24*time.Hour))
	after := f.reload(t, o.ID)

	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, int64(0), after.InstallmentPlan.TotalPenaltyAccrued)
}

func TestSweepWaivedEntriesDoNotAccrue(t *testing.T) {
	f := newFixture(t)
	o := f.activePlan(t, 3, 3, 30)
	ctx := context.Background()

	past := time.Now().Add(-24 * time.Hour)
	require.NoError(t, f.db.Model(&model.ScheduleEntry{}).
		Where("order_id = ? AND seq = 0", o.ID).
		Update("due_date", past).Error)
	f.engine.Sweep(ctx, time.Now())
	require.Equal(t, model.OrderStatusOverdueInstallment, f.reload(t, o.ID).Status)

	got, err := f.inst.WaiveEntry(ctx, o.ID, admin(), 0)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusInstallmentActive, got.Status)

	// The frozen penalty stays but stops growing.
	f.engine.Sweep(ctx, time.Now().Add(10*24*time.Hour))
	after := f.reload(t, o.ID)
	assert.Equal(t, int64(100), after.InstallmentPlan.Entries[0].PenaltyAccrued)
}
