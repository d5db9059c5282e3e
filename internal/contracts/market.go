package contracts

import (
	"strings"
	"time"
)

// Quote is a point-in-time price/volume snapshot
// ⭐ SSOT: IsRealData=false 인 시세는 절대 하류로 전달하지 않음
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	IsRealData    bool      `json:"is_real_data"`
}

// Usable reports whether the quote has confirmed provenance and a price
func (q *Quote) Usable() bool {
	return q != nil && q.IsRealData && q.Price > 0
}

// Fundamentals holds valuation data for a symbol
type Fundamentals struct {
	Symbol           string  `json:"symbol"`
	CompanyName      string  `json:"company_name,omitempty"`
	Sector           string  `json:"sector,omitempty"`
	PE               float64 `json:"pe"`
	EPS              float64 `json:"eps"`
	MarketCap        float64 `json:"market_cap"`
	DividendYield    float64 `json:"dividend_yield"`
	Beta             float64 `json:"beta"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low"`
	Source           string  `json:"source"`
}

// HasValidEarnings reports whether the earnings ratio is meaningful
func (f *Fundamentals) HasValidEarnings() bool {
	return f != nil && f.PE > 0
}

// NewsItem is one headline
type NewsItem struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// Sentiment is a social sentiment reading
type Sentiment struct {
	Symbol   string  `json:"symbol"`
	Score    float64 `json:"score"` // -1.0 ~ 1.0
	Mentions int     `json:"mentions"`
	Source   string  `json:"source"`
}

// InsiderTransaction is one reported insider trade
type InsiderTransaction struct {
	Name            string    `json:"name"`
	Shares          int64     `json:"shares"` // 양수: 매수, 음수: 매도
	Price           float64   `json:"price"`
	TransactionDate time.Time `json:"transaction_date"`
	Code            string    `json:"code"`
}

// InsiderSummary aggregates insider activity
type InsiderSummary struct {
	Transactions []InsiderTransaction `json:"transactions"`
	Buys         int                  `json:"buys"`
	Sells        int                  `json:"sells"`
	NetShares    int64                `json:"net_shares"`
}

// AnalystConsensus holds the latest analyst rating counts
type AnalystConsensus struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strong_buy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strong_sell"`
	Source     string `json:"source"`
}

// Total returns the number of ratings
func (a *AnalystConsensus) Total() int {
	return a.StrongBuy + a.Buy + a.Hold + a.Sell + a.StrongSell
}

// Rating summarizes the consensus as Buy, Hold or Sell
func (a *AnalystConsensus) Rating() string {
	bull := a.StrongBuy + a.Buy
	bear := a.Sell + a.StrongSell
	switch {
	case a.Total() == 0:
		return ""
	case bull > a.Hold && bull > bear:
		return "Buy"
	case bear > a.Hold && bear > bull:
		return "Sell"
	default:
		return "Hold"
	}
}

// DateRange bounds a news query
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// LastDays returns the range ending at now covering the given days
func LastDays(now time.Time, days int) DateRange {
	return DateRange{From: now.AddDate(0, 0, -days), To: now}
}

// Contains reports whether t falls within the range (inclusive)
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// MergeSentiment combines readings from several providers: mentions are summed
// and scores are mention-weighted. Returns nil when no reading is present.
func MergeSentiment(symbol string, readings ...*Sentiment) *Sentiment {
	var (
		merged  *Sentiment
		sources []string
		weights float64
		sum     float64
	)
	for _, r := range readings {
		if r == nil {
			continue
		}
		if merged == nil {
			merged = &Sentiment{Symbol: symbol}
		}
		merged.Mentions += r.Mentions
		sources = append(sources, r.Source)

		w := float64(r.Mentions)
		if w <= 0 {
			w = 1
		}
		sum += clampScore(r.Score) * w
		weights += w
	}
	if merged == nil {
		return nil
	}
	merged.Score = sum / weights
	merged.Source = strings.Join(sources, "+")
	return merged
}

func clampScore(s float64) float64 {
	switch {
	case s < -1:
		return -1
	case s > 1:
		return 1
	}
	return s
}
