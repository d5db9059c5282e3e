package s4_validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/pkg/logger"
	"github.com/wonny/dailybrief/pkg/metrics"
)

// RequiredFields must all be present and not placeholders
var RequiredFields = []string{
	"symbol",
	"companyName",
	"sector",
	"price",
	"volume",
	"action",
	"confidence",
	"riskLevel",
	"targetPrice",
	"stopLoss",
	"timeframe",
	"reasoning",
}

// Sectors are the accepted GICS sector names
var Sectors = []string{
	"Communication Services",
	"Consumer Discretionary",
	"Consumer Staples",
	"Energy",
	"Financials",
	"Health Care",
	"Industrials",
	"Information Technology",
	"Materials",
	"Real Estate",
	"Utilities",
}

// RiskLevels are the accepted risk levels
var RiskLevels = []string{"Low", "Medium", "High"}

var (
	stringFields = []string{"symbol", "companyName", "sector", "action", "riskLevel", "timeframe", "reasoning"}
	numberFields = []string{"price", "volume", "confidence", "targetPrice", "stopLoss"}
	placeholders = []string{"unknown", "n/a"}

	structValidator = newStructValidator()
)

func newStructValidator() *validator.Validate {
	v := validator.New()
	sectors := make(map[string]bool, len(Sectors))
	for _, s := range Sectors {
		sectors[s] = true
	}
	// 등록 실패 시 섹터 검사가 빠지므로 init 단계에서 중단
	if err := v.RegisterValidation("gics", func(fl validator.FieldLevel) bool {
		return sectors[fl.Field().String()]
	}); err != nil {
		panic(fmt.Sprintf("s4_validation: register gics rule: %v", err))
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// Validate promotes untrusted model output to a ValidatedRecord.
// raw may be JSON text, decoded JSON, or a previously validated record.
// A rejection returns nil and the reason; it is never an error.
// ⭐ SSOT: 생성 모델 출력 → 신뢰 데이터 승격은 이 함수만 수행
func Validate(raw any) (*contracts.ValidatedRecord, string) {
	obj, reason := unwrap(raw)
	if obj == nil {
		return nil, reason
	}

	for _, f := range RequiredFields {
		v, ok := obj[f]
		if !ok {
			return nil, "missing field: " + f
		}
		if isPlaceholder(v) {
			return nil, "placeholder value for field: " + f
		}
	}

	for _, f := range stringFields {
		if _, ok := obj[f].(string); !ok {
			return nil, fmt.Sprintf("field %s must be a string", f)
		}
	}
	for _, f := range numberFields {
		if _, ok := toFloat(obj[f]); !ok {
			return nil, fmt.Sprintf("field %s must be a number", f)
		}
	}

	rec := contracts.Recommendation{
		Symbol:      contracts.NormalizeSymbol(obj["symbol"].(string)),
		CompanyName: obj["companyName"].(string),
		Sector:      obj["sector"].(string),
		Action:      obj["action"].(string),
		RiskLevel:   obj["riskLevel"].(string),
		Timeframe:   obj["timeframe"].(string),
		Reasoning:   obj["reasoning"].(string),
	}
	rec.Price, _ = toFloat(obj["price"])
	rec.Volume, _ = toFloat(obj["volume"])
	rec.Confidence, _ = toFloat(obj["confidence"])
	rec.TargetPrice, _ = toFloat(obj["targetPrice"])
	rec.StopLoss, _ = toFloat(obj["stopLoss"])

	if !contracts.ValidSymbol(rec.Symbol) {
		return nil, fmt.Sprintf("field symbol is not a ticker: %q", rec.Symbol)
	}

	if err := structValidator.Struct(rec); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return nil, fmt.Sprintf("field %s failed %s", fe.Field(), ruleText(fe))
		}
		return nil, err.Error()
	}

	return &contracts.ValidatedRecord{Fields: obj, Recommendation: rec}, ""
}

// ValidateJSON validates raw JSON text; malformed JSON is a rejection
func ValidateJSON(text string) (*contracts.ValidatedRecord, string) {
	return Validate(text)
}

// unwrap decodes raw and removes one wrapper level: array, then data, then stock
func unwrap(raw any) (map[string]any, string) {
	var value any
	switch v := raw.(type) {
	case nil:
		return nil, "empty input"
	case string:
		if err := json.Unmarshal([]byte(v), &value); err != nil {
			return nil, "malformed JSON: " + err.Error()
		}
	case []byte:
		if err := json.Unmarshal(v, &value); err != nil {
			return nil, "malformed JSON: " + err.Error()
		}
	case json.RawMessage:
		if err := json.Unmarshal(v, &value); err != nil {
			return nil, "malformed JSON: " + err.Error()
		}
	case *contracts.ValidatedRecord:
		if v == nil {
			return nil, "empty input"
		}
		value = v.Fields
	case contracts.ValidatedRecord:
		value = v.Fields
	default:
		value = raw
	}

	switch v := value.(type) {
	case []any:
		if len(v) == 0 {
			return nil, "empty array"
		}
		value = v[0]
	case map[string]any:
		if _, ok := v["symbol"]; !ok {
			if inner, ok := v["data"].(map[string]any); ok {
				value = inner
			} else if inner, ok := v["stock"].(map[string]any); ok {
				value = inner
			}
		}
	}

	obj, ok := value.(map[string]any)
	if !ok || obj == nil {
		return nil, "not a JSON object"
	}
	return obj, ""
}

func isPlaceholder(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	for _, p := range placeholders {
		if strings.EqualFold(s, p) {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
}

// Validator applies Validate and records rejections
type Validator struct {
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// New creates a Validator
func New(rec *metrics.Recorder, log *logger.Logger) *Validator {
	return &Validator{
		metrics: rec,
		logger:  log.WithField("module", "s4_validation"),
	}
}

// Check validates model output for symbol. A record for a different symbol is rejected.
// Rejections are expected outcomes and log at debug level.
func (v *Validator) Check(symbol string, raw any) (*contracts.ValidatedRecord, bool) {
	rec, reason := Validate(raw)
	if rec != nil && symbol != "" && rec.Symbol() != contracts.NormalizeSymbol(symbol) {
		rec, reason = nil, fmt.Sprintf("symbol mismatch: got %s", rec.Symbol())
	}

	if rec == nil {
		v.metrics.Rejection()
		v.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"reason": reason,
		}).Debug("Model output rejected")
		return nil, false
	}
	return rec, true
}
