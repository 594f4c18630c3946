package installment

import (
	"errors"
	"time"

	"github.com/pasarlink/marketplace-backend/internal/model"
)

var (
	ErrInvalidTotal   = errors.New("total amount must be positive")
	ErrInvalidCount   = errors.New("installment count must be between 1 and 36")
	ErrInvalidCadence = errors.New("cadence days must be positive")
)

// BuildSchedule splits totalAmount (minor currency units) into count entries
// due every cadenceDays starting at startDate. The split is equal except that
// the last entry absorbs the rounding remainder, so the entry amounts always
// sum exactly to totalAmount.
func BuildSchedule(totalAmount int64, count int, cadenceDays int, startDate time.Time) ([]model.ScheduleEntry, error) {
	if totalAmount <= 0 {
		return nil, ErrInvalidTotal
	}
	if count < 1 || count > 36 {
		return nil, ErrInvalidCount
	}
	if cadenceDays <= 0 {
		return nil, ErrInvalidCadence
	}

	base := totalAmount / int64(count)
	entries := make([]model.ScheduleEntry, count)
	var allocated int64
	for k := 0; k < count; k++ {
		amount := base
		if k == count-1 {
			amount = totalAmount - allocated
		}
		allocated += amount
		entries[k] = model.ScheduleEntry{
			Seq:     k,
			Amount:  amount,
			DueDate: startDate.AddDate(0, 0, k*cadenceDays),
			Status:  model.EntryStatusPending,
		}
	}
	return entries, nil
}
