package service

import (
	"time"

	"github.com/pasarlink/marketplace-backend/internal/model"
)

// CancellationWindowGuard centralizes the buyer grace period: a fixed
// duration after order creation during which the buyer may cancel
// unilaterally and seller-initiated forward transitions are held back. The
// guard never changes order status itself; expiry is evaluated lazily at
// transition time.
type CancellationWindowGuard struct {
	Duration time.Duration
}

func NewCancellationWindowGuard(d time.Duration) CancellationWindowGuard {
	if d <= 0 {
		d = 30 * time.Minute
	}
	return CancellationWindowGuard{Duration: d}
}

// Deadline computes the window deadline for an order created at createdAt.
func (g CancellationWindowGuard) Deadline(createdAt time.Time) time.Time {
	return createdAt.Add(g.Duration)
}

// IsActive reports whether the window is still blocking at instant now.
func (g CancellationWindowGuard) IsActive(o *model.Order, now time.Time) bool {
	if o.CancelWindowSkipped {
		return false
	}
	return now.Before(o.CancelDeadline)
}
