package contracts

// DataQuality describes how complete an aggregated record is.
// OverallScore is descriptive, not a gate.
type DataQuality struct {
	PriceVerified        bool     `json:"price_verified"`
	FundamentalsComplete bool     `json:"fundamentals_complete"`
	NewsAvailable        bool     `json:"news_available"`
	SocialDataAvailable  bool     `json:"social_data_available"`
	OverallScore         int      `json:"overall_score"` // 0 ~ 100
	Warnings             []string `json:"warnings"`
}

// AggregatedRecord is the per-symbol composite handed to analysis
// ⭐ SSOT: 종목별 데이터 병합 결과 (실행마다 새로 생성, 저장하지 않음)
type AggregatedRecord struct {
	Symbol       string            `json:"symbol"`
	Quote        Quote             `json:"quote"`
	Fundamentals *Fundamentals     `json:"fundamentals,omitempty"`
	News         []NewsItem        `json:"news"`
	Sentiment    *Sentiment        `json:"sentiment,omitempty"`
	Insider      *InsiderSummary   `json:"insider,omitempty"`
	Analyst      *AnalystConsensus `json:"analyst,omitempty"`
	Quality      DataQuality       `json:"quality"`
}

// CandidateScore is the discovery ranking breakdown
type CandidateScore struct {
	Symbol         string  `json:"symbol"`
	MomentumScore  float64 `json:"momentum_score"`
	SentimentScore float64 `json:"sentiment_score"`
	BuzzScore      float64 `json:"buzz_score"`
	RandomScore    float64 `json:"random_score"`
	Total          float64 `json:"total"`
}

// Recommendation is the typed view of a validated model output
type Recommendation struct {
	Symbol      string  `json:"symbol" validate:"required"`
	CompanyName string  `json:"companyName" validate:"required"`
	Sector      string  `json:"sector" validate:"required,gics"`
	Price       float64 `json:"price" validate:"gt=0"`
	Volume      float64 `json:"volume" validate:"gt=0"`
	Action      string  `json:"action" validate:"required"`
	Confidence  float64 `json:"confidence" validate:"gte=0,lte=100"`
	RiskLevel   string  `json:"riskLevel" validate:"oneof=Low Medium High"`
	TargetPrice float64 `json:"targetPrice" validate:"gt=0"`
	StopLoss    float64 `json:"stopLoss" validate:"gt=0"`
	Timeframe   string  `json:"timeframe" validate:"required"`
	Reasoning   string  `json:"reasoning" validate:"required"`
}

// ValidatedRecord is a model output that passed the output validator.
// Fields is the unwrapped object exactly as received.
type ValidatedRecord struct {
	Fields         map[string]any `json:"fields"`
	Recommendation Recommendation `json:"recommendation"`

	// postprocess 단계에서 첨부
	Quote   *Quote       `json:"quote,omitempty"`
	Quality *DataQuality `json:"quality,omitempty"`
}

// Symbol returns the record's ticker
func (v *ValidatedRecord) Symbol() string {
	return v.Recommendation.Symbol
}
