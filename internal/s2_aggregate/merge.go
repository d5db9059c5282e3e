package s2_aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wonny/dailybrief/internal/briefconfig"
	"github.com/wonny/dailybrief/internal/contracts"
)

// Merge combines a gathered bundle into one record. Pure: no I/O.
func Merge(b *Bundle, cfg briefconfig.Aggregation) *contracts.AggregatedRecord {
	rec := &contracts.AggregatedRecord{
		Symbol:       b.Symbol,
		Quote:        b.Quote,
		Fundamentals: b.Fundamentals,
		News:         MergeNews(b.News, b.Range, cfg.NewsLimit),
		Sentiment:    contracts.MergeSentiment(b.Symbol, b.Sentiments...),
		Analyst:      b.Analyst,
	}
	if len(b.Insider) > 0 {
		rec.Insider = SummarizeInsider(b.Insider)
	}

	q := contracts.DataQuality{Warnings: append([]string{}, b.Warnings...)}

	verified, warn := VerifyPrice(b.Quote, b.Verification, cfg.PriceTolerancePct)
	q.PriceVerified = verified
	if warn != "" {
		q.Warnings = append(q.Warnings, warn)
	}

	q.FundamentalsComplete = rec.Fundamentals.HasValidEarnings()
	if rec.Fundamentals != nil && !q.FundamentalsComplete {
		q.Warnings = append(q.Warnings, "fundamentals missing valid P/E")
	}

	q.NewsAvailable = len(rec.News) >= cfg.MinNews
	q.SocialDataAvailable = rec.Sentiment != nil && rec.Sentiment.Mentions >= cfg.MinMentions

	q.OverallScore = Score(q, cfg.Weights)
	rec.Quality = q
	return rec
}

// Score sums the four independent quality checks
// ⭐ SSOT: DataQuality 점수 = 가격검증 + 재무 + 뉴스 + 소셜 (기본 30/30/20/20)
func Score(q contracts.DataQuality, w briefconfig.QualityWeights) int {
	components := []struct {
		ok     bool
		points int
	}{
		{q.PriceVerified, w.Price},
		{q.FundamentalsComplete, w.Fundamentals},
		{q.NewsAvailable, w.News},
		{q.SocialDataAvailable, w.Social},
	}

	total := 0
	for _, c := range components {
		if c.ok {
			total += c.points
		}
	}
	return total
}

// VerifyPrice compares the primary price with an independent quote.
// Divergence beyond tolerancePct returns false with a warning but never blocks.
func VerifyPrice(primary contracts.Quote, secondary *contracts.Quote, tolerancePct float64) (bool, string) {
	if secondary == nil || secondary.Price <= 0 {
		return false, "price not cross-validated: no independent quote"
	}

	diffPct := math.Abs(secondary.Price-primary.Price) * 100 / primary.Price
	if diffPct <= tolerancePct {
		return true, ""
	}
	return false, fmt.Sprintf("price discrepancy: %s %.2f vs %s %.2f (%.2f%%)",
		primary.Source, primary.Price, secondary.Source, secondary.Price, diffPct)
}

// MergeNews de-duplicates by headline, drops items outside the range, sorts newest first and caps to limit
func MergeNews(items []contracts.NewsItem, r contracts.DateRange, limit int) []contracts.NewsItem {
	seen := make(map[string]bool, len(items))
	out := make([]contracts.NewsItem, 0, len(items))
	for _, n := range items {
		key := headlineKey(n.Headline)
		if key == "" || seen[key] {
			continue
		}
		// 발행 시각을 모르는 기사는 유지
		if !n.PublishedAt.IsZero() && !r.From.IsZero() && !r.Contains(n.PublishedAt) {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func headlineKey(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// SummarizeInsider counts buys/sells and net shares
func SummarizeInsider(txs []contracts.InsiderTransaction) *contracts.InsiderSummary {
	s := &contracts.InsiderSummary{Transactions: txs}
	for _, tx := range txs {
		switch {
		case tx.Shares > 0:
			s.Buys++
		case tx.Shares < 0:
			s.Sells++
		}
		s.NetShares += tx.Shares
	}
	return s
}
