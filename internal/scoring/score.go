// Package scoring implements the VanigaScore model: a deterministic map from
// a 30-day transaction window to a bounded credit score with an explainable
// component breakdown. The package performs no I/O; callers load the window
// and pass it in, which keeps the engine independently testable.
package scoring

import (
	"math"
	"time"

	businessdomain "github.com/vanigatech/vaniga/internal/business/domain"
	ledgerdomain "github.com/vanigatech/vaniga/internal/ledger/domain"
)

const (
	// WindowDays is the size of the scoring window.
	WindowDays = 30

	// BaseScore and MaxScore bound the score range.
	BaseScore = 300
	MaxScore  = 900

	// EligibilityThreshold is the minimum score for loan eligibility.
	EligibilityThreshold = 650

	volumeWeight        = 0.05
	maxVolumeScore      = 250
	pointsPerActiveDay  = 10
	maxConsistencyScore = 300
	maxHealthScore      = 50
)

// Window returns the scoring window [asOf-30d, asOf] for a given reference time.
func Window(asOf time.Time) (time.Time, time.Time) {
	asOf = asOf.UTC()
	return asOf.AddDate(0, 0, -WindowDays), asOf
}

// Compute derives the score over a window of one business's transactions.
// The slice must already be restricted to the scoring window.
//
// Components:
//   - volume: min(totalVolume * 0.05, 250) over credit_given + payment_received
//     amounts; expenses measure cost, not repayment capacity, and are excluded.
//   - consistency: min(activeDays * 10, 300), where activeDays counts distinct
//     UTC calendar dates with at least one transaction of any kind.
//   - health: min((received/given) * 50, 50) when credit was extended; a
//     business that only collects payments scores the full 50; no activity
//     on either side scores 0.
//
// The final score rounds the component sum once and clamps to [300, 900].
func Compute(txns []ledgerdomain.Transaction) businessdomain.ScoreResult {
	if len(txns) == 0 {
		return businessdomain.ScoreResult{
			Score:     BaseScore,
			Breakdown: businessdomain.ScoreBreakdown{Base: BaseScore},
		}
	}

	var totalVolume, given, received float64
	days := make(map[string]struct{}, len(txns))
	for _, txn := range txns {
		days[txn.OccurredAt.UTC().Format("2006-01-02")] = struct{}{}
		switch txn.Kind {
		case ledgerdomain.KindCreditGiven:
			given += txn.Amount
			totalVolume += txn.Amount
		case ledgerdomain.KindPaymentReceived:
			received += txn.Amount
			totalVolume += txn.Amount
		}
	}

	volume := math.Min(totalVolume*volumeWeight, maxVolumeScore)

	activeDays := len(days)
	consistency := activeDays * pointsPerActiveDay
	if consistency > maxConsistencyScore {
		consistency = maxConsistencyScore
	}

	var health float64
	var collectionRate int
	switch {
	case given > 0:
		health = math.Min(received/given*maxHealthScore, maxHealthScore)
		collectionRate = int(math.Round(received / given * 100))
	case received > 0:
		health = maxHealthScore
		collectionRate = 100
	}

	score := int(math.Round(BaseScore + volume + float64(consistency) + health))
	if score < BaseScore {
		score = BaseScore
	}
	if score > MaxScore {
		score = MaxScore
	}

	return businessdomain.ScoreResult{
		Score: score,
		Breakdown: businessdomain.ScoreBreakdown{
			Base:        BaseScore,
			Volume:      int(math.Round(volume)),
			Consistency: consistency,
			Health:      int(math.Round(health)),
		},
		Metrics: businessdomain.ScoreMetrics{
			TotalVolume:           totalVolume,
			ActiveDays:            activeDays,
			CollectionRatePercent: collectionRate,
		},
	}
}

// IsLoanEligible reports whether a score clears the lending threshold. Kept
// separate from Compute because the threshold is a business rule that moves
// independently of the scoring weights.
func IsLoanEligible(score int) bool {
	return score >= EligibilityThreshold
}
