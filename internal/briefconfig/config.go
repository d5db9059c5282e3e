package briefconfig

import (
	"sort"
	"time"
)

// Config는 뉴스레터 파이프라인의 전체 설정
// ⭐ SSOT: 파이프라인 파라미터(후보 수, 포커스 그룹, 가중치, provider 순서)는 여기서만 정의
type Config struct {
	Discovery   Discovery           `yaml:"discovery" json:"discovery"`
	Quotes      Quotes              `yaml:"quotes" json:"quotes"`
	Aggregation Aggregation         `yaml:"aggregation" json:"aggregation"`
	Analysis    Analysis            `yaml:"analysis" json:"analysis"`
	Pipeline    Pipeline            `yaml:"pipeline" json:"pipeline"`
	Universes   map[string][]string `yaml:"universes" json:"universes"`
}

// Discovery 후보 종목 선정
type Discovery struct {
	Count                 int          `yaml:"count" json:"count" default:"10" validate:"gte=1,lte=40"`
	FocusGroups           []string     `yaml:"focus_groups" json:"focus_groups"` // 비어 있으면 전체 그룹
	MinPrice              float64      `yaml:"min_price" json:"min_price" default:"5" validate:"gte=0"`
	MinVolume             int64        `yaml:"min_volume" json:"min_volume" default:"1000000" validate:"gte=0"`
	ExclusionDays         int          `yaml:"exclusion_days" json:"exclusion_days" default:"7" validate:"gte=0"`
	MaxCandidates         int          `yaml:"max_candidates" json:"max_candidates" default:"40" validate:"gte=1,lte=200"`
	SentimentThresholdPct float64      `yaml:"sentiment_threshold_pct" json:"sentiment_threshold_pct" default:"2" validate:"gte=0"`
	FallbackSymbols       []string     `yaml:"fallback_symbols" json:"fallback_symbols" default:"[\"AAPL\",\"MSFT\",\"NVDA\",\"GOOGL\",\"AMZN\"]" validate:"min=1"`
	Weights               ScoreWeights `yaml:"weights" json:"weights"`
}

// ScoreWeights 후보 점수 배점 (합계 100점 기준)
type ScoreWeights struct {
	MomentumPerPct float64 `yaml:"momentum_per_pct" json:"momentum_per_pct" default:"8" validate:"gte=0"`
	MomentumMax    float64 `yaml:"momentum_max" json:"momentum_max" default:"40" validate:"gte=0"`
	Sentiment      float64 `yaml:"sentiment" json:"sentiment" default:"25" validate:"gte=0"`
	Buzz           float64 `yaml:"buzz" json:"buzz" default:"25" validate:"gte=0"`
	BuzzMentions   int     `yaml:"buzz_mentions" json:"buzz_mentions" default:"10" validate:"gte=1"` // 만점 기준 언급 수
	Random         float64 `yaml:"random" json:"random" default:"10" validate:"gte=0,lte=10"`
}

// Max returns the highest attainable total
func (w ScoreWeights) Max() float64 {
	return w.MomentumMax + w.Sentiment + w.Buzz + w.Random
}

// Quotes 시세 provider 정책
type Quotes struct {
	Order       []string       `yaml:"order" json:"order" default:"[\"yahoo\",\"finnhub\"]" validate:"min=1,dive,required"`
	MaxBatch    map[string]int `yaml:"max_batch" json:"max_batch" default:"{\"finnhub\":25}"`
	CallTimeout time.Duration  `yaml:"call_timeout" json:"call_timeout" default:"10s" validate:"gt=0"`
}

// Aggregation 데이터 병합 및 품질 점수
type Aggregation struct {
	PriceTolerancePct float64        `yaml:"price_tolerance_pct" json:"price_tolerance_pct" default:"2" validate:"gt=0"`
	NewsLimit         int            `yaml:"news_limit" json:"news_limit" default:"10" validate:"gte=1"`
	MinNews           int            `yaml:"min_news" json:"min_news" default:"3" validate:"gte=1"`
	MinMentions       int            `yaml:"min_mentions" json:"min_mentions" default:"10" validate:"gte=1"`
	DateRangeDays     int            `yaml:"date_range_days" json:"date_range_days" default:"7" validate:"gte=1"`
	Weights           QualityWeights `yaml:"weights" json:"weights"`
}

// QualityWeights DataQuality 배점 (합계 100)
type QualityWeights struct {
	Price        int `yaml:"price" json:"price" default:"30" validate:"gte=0"`
	Fundamentals int `yaml:"fundamentals" json:"fundamentals" default:"30" validate:"gte=0"`
	News         int `yaml:"news" json:"news" default:"20" validate:"gte=0"`
	Social       int `yaml:"social" json:"social" default:"20" validate:"gte=0"`
}

// Sum returns the total of all four weights
func (w QualityWeights) Sum() int {
	return w.Price + w.Fundamentals + w.News + w.Social
}

// Analysis 생성 모델 호출
type Analysis struct {
	Timeout     time.Duration `yaml:"timeout" json:"timeout" default:"90s" validate:"gt=0"`
	HistoryDays int           `yaml:"history_days" json:"history_days" default:"30" validate:"gte=0"`
}

// Pipeline 오케스트레이터 정책
type Pipeline struct {
	Workers   int  `yaml:"workers" json:"workers" default:"5" validate:"gte=1,lte=32"`
	MinViable int  `yaml:"min_viable" json:"min_viable" default:"3" validate:"gte=1"`
	RetryOnce bool `yaml:"retry_once" json:"retry_once" default:"true"`
}

// Universe returns the de-duplicated symbols for the given focus groups.
// Unknown groups are ignored; no groups means every group in name order.
func (c *Config) Universe(groups []string) []string {
	if len(groups) == 0 {
		groups = c.GroupNames()
	}

	seen := make(map[string]bool)
	var out []string
	for _, g := range groups {
		for _, s := range c.Universes[g] {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// GroupNames returns configured focus group names, sorted
func (c *Config) GroupNames() []string {
	names := make([]string, 0, len(c.Universes))
	for name := range c.Universes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
