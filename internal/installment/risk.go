package installment

// RiskInput carries the caller-supplied inputs to scoring. The engine treats
// the resulting level and score as opaque; an external credit-scoring
// collaborator can replace the default scorer without touching the schedule.
type RiskInput struct {
	TotalAmount  int64
	Count        int
	CadenceDays  int
	HasGuarantor bool
}

type RiskScorer interface {
	Score(in RiskInput) (level string, eligibility int)
}

// HeuristicScorer is the default local scorer: small short plans score high,
// large long ones without a guarantor score low.
type HeuristicScorer struct{}

func (HeuristicScorer) Score(in RiskInput) (string, int) {
	score := 100

	switch {
	case in.TotalAmount > 10_000_000:
		score -= 40
	case in.TotalAmount > 1_000_000:
		score -= 20
	}

	tenorDays := in.Count * in.CadenceDays
	switch {
	case tenorDays > 360:
		score -= 30
	case tenorDays > 180:
		score -= 15
	}

	if !in.HasGuarantor {
		score -= 10
	}
	if score < 0 {
		score = 0
	}

	level := "low"
	switch {
	case score < 40:
		level = "high"
	case score < 70:
		level = "medium"
	}
	return level, score
}
