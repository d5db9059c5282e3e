package s1_discovery

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/wonny/dailybrief/internal/briefconfig"
	"github.com/wonny/dailybrief/internal/contracts"
)

// Scorer computes candidate scores from quote and sentiment
// ⭐ SSOT: 후보 점수 계산은 여기서만
type Scorer struct {
	weights briefconfig.ScoreWeights
	rng     *rand.Rand
}

// NewScorer creates a scorer. rng supplies the exploration term; use a fixed seed in tests.
func NewScorer(weights briefconfig.ScoreWeights, rng *rand.Rand) *Scorer {
	return &Scorer{
		weights: weights,
		rng:     rng,
	}
}

// Score returns the weighted breakdown for one candidate. A nil sentiment scores 0
// for both sentiment and buzz.
func (s *Scorer) Score(q contracts.Quote, sent *contracts.Sentiment) contracts.CandidateScore {
	w := s.weights

	cs := contracts.CandidateScore{
		Symbol:        q.Symbol,
		MomentumScore: math.Min(math.Abs(q.ChangePercent)*w.MomentumPerPct, w.MomentumMax),
		RandomScore:   s.rng.Float64() * w.Random,
	}

	if sent != nil {
		score := math.Max(-1, math.Min(1, sent.Score))
		cs.SentimentScore = (score + 1) / 2 * w.Sentiment
		cs.BuzzScore = math.Min(float64(sent.Mentions)/float64(w.BuzzMentions), 1) * w.Buzz
	}

	cs.Total = cs.MomentumScore + cs.SentimentScore + cs.BuzzScore + cs.RandomScore
	return cs
}

// Rank sorts scores by total (descending), symbol breaking ties
func Rank(scores []contracts.CandidateScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		return scores[i].Symbol < scores[j].Symbol
	})
}
