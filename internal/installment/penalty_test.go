package installment

import (
	"testing"
	"time"
)

func TestFixedDailyPercentPolicy(t *testing.T) {
	p := FixedDailyPercentPolicy{DailyPercent: 1.0}

	tests := []struct {
		name    string
		amount  int64
		overdue time.Duration
		want    int64
	}{
		{"not overdue", 10000, 0, 0},
		{"negative duration", 10000, -time.Hour, 0},
		{"under a day", 10000, 23 * time.Hour, 0},
		{"one day", 10000, 25 * time.Hour, 100},
		{"five days", 10000, 5 * 24 * time.Hour, 500},
		{"no compounding", 10000, 30 * 24 * time.Hour, 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Penalty(tt.amount, tt.overdue); got != tt.want {
				t.Fatalf("got=%d want=%d", got, tt.want)
			}
		})
	}
}

func TestFixedDailyPercentPolicyDeterministic(t *testing.T) {
	p := FixedDailyPercentPolicy{DailyPercent: 0.5}
	d := 72 * time.Hour
	a := p.Penalty(30000, d)
	b := p.Penalty(30000, d)
	if a != b {
		t.Fatalf("recompute differs: %d vs %d", a, b)
	}
}
