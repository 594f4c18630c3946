package installment

import "time"

// PenaltyPolicy computes the penalty owed on a single overdue entry. The
// result must depend only on the amount and on how long the entry has been
// overdue, so a sweep can recompute it at any time without double-charging.
type PenaltyPolicy interface {
	Penalty(amount int64, overdueFor time.Duration) int64
}

// FixedDailyPercentPolicy charges DailyPercent of the entry amount per full
// day overdue, without compounding.
type FixedDailyPercentPolicy struct {
	DailyPercent float64
}

func (p FixedDailyPercentPolicy) Penalty(amount int64, overdueFor time.Duration) int64 {
	if overdueFor <= 0 || amount <= 0 {
		return 0
	}
	days := int64(overdueFor / (24 * time.Hour))
	if days <= 0 {
		return 0
	}
	return int64(float64(amount) * p.DailyPercent / 100.0 * float64(days))
}
