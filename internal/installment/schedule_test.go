package installment

import (
	"testing"
	"time"
)

func TestBuildSchedule(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		total   int64
		count   int
		cadence int
		want    []int64
		wantErr error
	}{
		{"even split", 30000, 3, 30, []int64{10000, 10000, 10000}, nil},
		{"remainder on last", 100, 3, 7, []int64{33, 33, 34}, nil},
		{"single entry", 999, 1, 30, []int64{999}, nil},
		{"indivisible large", 1000001, 4, 14, []int64{250000, 250000, 250000, 250001}, nil},
		{"zero total", 0, 3, 30, nil, ErrInvalidTotal},
		{"negative total", -5, 3, 30, nil, ErrInvalidTotal},
		{"zero count", 100, 0, 30, nil, ErrInvalidCount},
		{"count too large", 100, 37, 30, nil, ErrInvalidCount},
		{"zero cadence", 100, 3, 0, nil, ErrInvalidCadence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSchedule(tt.total, tt.count, tt.cadence, start)
			if err != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len=%d want=%d", len(got), len(tt.want))
			}
			var sum int64
			for i, e := range got {
				if e.Amount != tt.want[i] {
					t.Fatalf("entry %d amount=%d want=%d", i, e.Amount, tt.want[i])
				}
				if e.Seq != i {
					t.Fatalf("entry %d seq=%d", i, e.Seq)
				}
				wantDue := start.AddDate(0, 0, i*tt.cadence)
				if !e.DueDate.Equal(wantDue) {
					t.Fatalf("entry %d due=%v want=%v", i, e.DueDate, wantDue)
				}
				sum += e.Amount
			}
			if sum != tt.total {
				t.Fatalf("sum=%d want=%d", sum, tt.total)
			}
		})
	}
}

func TestHeuristicScorer(t *testing.T) {
	s := HeuristicScorer{}

	level, score := s.Score(RiskInput{TotalAmount: 500_000, Count: 3, CadenceDays: 30, HasGuarantor: true})
	if level != "low" || score != 100 {
		t.Fatalf("small plan: level=%s score=%d", level, score)
	}

	level, score = s.Score(RiskInput{TotalAmount: 20_000_000, Count: 24, CadenceDays: 30})
	if level != "high" {
		t.Fatalf("large long plan: level=%s score=%d", level, score)
	}

	// Scoring is deterministic for the same input.
	l1, s1 := s.Score(RiskInput{TotalAmount: 2_000_000, Count: 6, CadenceDays: 30})
	l2, s2 := s.Score(RiskInput{TotalAmount: 2_000_000, Count: 6, CadenceDays: 30})
	if l1 != l2 || s1 != s2 {
		t.Fatalf("non-deterministic score: %s/%d vs %s/%d", l1, s1, l2, s2)
	}
}
