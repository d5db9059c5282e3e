package s4_validation

import (
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dailybrief/pkg/logger"
	"github.com/wonny/dailybrief/pkg/metrics"
)

func validObject() map[string]any {
	return map[string]any{
		"symbol":      "NVDA",
		"companyName": "NVIDIA Corporation",
		"sector":      "Information Technology",
		"price":       120.5,
		"volume":      48000000.0,
		"action":      "BUY",
		"confidence":  78.0,
		"riskLevel":   "Medium",
		"targetPrice": 140.0,
		"stopLoss":    110.0,
		"timeframe":   "2-4 weeks",
		"reasoning":   "Data center demand keeps accelerating.",
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestValidate_AcceptsCompleteRecord(t *testing.T) {
	rec, reason := Validate(validObject())

	require.NotNil(t, rec, reason)
	assert.Empty(t, reason)
	assert.Equal(t, "NVDA", rec.Symbol())
	assert.Equal(t, 78.0, rec.Recommendation.Confidence)
	assert.Equal(t, validObject(), rec.Fields, "accepted object keeps its shape")
}

func TestValidate_MissingAnyRequiredFieldRejects(t *testing.T) {
	for _, field := range RequiredFields {
		t.Run(field, func(t *testing.T) {
			obj := validObject()
			delete(obj, field)

			rec, reason := Validate(obj)

			assert.Nil(t, rec)
			assert.Equal(t, "missing field: "+field, reason)
		})
	}
}

func TestValidate_PlaceholdersReject(t *testing.T) {
	for _, sentinel := range []any{"", "   ", nil, "Unknown", "UNKNOWN", "n/a", "N/A"} {
		for _, field := range RequiredFields {
			obj := validObject()
			obj[field] = sentinel

			rec, _ := Validate(obj)
			assert.Nil(t, rec, "field %s = %#v", field, sentinel)
		}
	}
}

func TestValidate_TypedChecks(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		value  any
		accept bool
	}{
		{"confidence lower bound", "confidence", 0.0, true},
		{"confidence upper bound", "confidence", 100.0, true},
		{"confidence above range", "confidence", 100.5, false},
		{"confidence negative", "confidence", -1.0, false},
		{"confidence as string", "confidence", "80", false},
		{"risk low", "riskLevel", "Low", true},
		{"risk high", "riskLevel", "High", true},
		{"risk lowercase", "riskLevel", "medium", false},
		{"risk extreme", "riskLevel", "Extreme", false},
		{"zero price", "price", 0.0, false},
		{"negative price", "price", -5.0, false},
		{"price as string", "price", "120.5", false},
		{"zero volume", "volume", 0.0, false},
		{"sector valid", "sector", "Health Care", true},
		{"sector not gics", "sector", "Technology", false},
		{"symbol not string", "symbol", 42.0, false},
		{"target price range text", "targetPrice", "140-150", false},
		{"target price words", "targetPrice", "two hundred", false},
		{"target price zero", "targetPrice", 0.0, false},
		{"stop loss words", "stopLoss", "soon", false},
		{"stop loss negative", "stopLoss", -3.0, false},
		{"stop loss numeric", "stopLoss", 99.5, true},
		{"symbol lowercase normalized", "symbol", "nvda", true},
		{"symbol with spaces", "symbol", "NOT A TICKER", false},
		{"symbol too long", "symbol", "ABCDEF", false},
		{"symbol punctuation", "symbol", "BRK.B", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := validObject()
			obj[tt.field] = tt.value

			rec, reason := Validate(obj)
			if tt.accept {
				assert.NotNil(t, rec, reason)
			} else {
				assert.Nil(t, rec)
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestValidate_Unwrap(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"bare object", validObject()},
		{"array wrapped", []any{validObject()}},
		{"data wrapped", map[string]any{"data": validObject()}},
		{"stock wrapped", map[string]any{"stock": validObject()}},
		{"json text", mustJSON(t, validObject())},
		{"json array text", mustJSON(t, []any{validObject()})},
		{"json bytes", []byte(mustJSON(t, map[string]any{"data": validObject()}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, reason := Validate(tt.raw)
			require.NotNil(t, rec, reason)
			assert.Equal(t, "NVDA", rec.Symbol())
			assert.Len(t, rec.Fields, len(RequiredFields))
		})
	}
}

func TestValidate_UnwrapsExactlyOneLevel(t *testing.T) {
	rec, _ := Validate([]any{map[string]any{"data": validObject()}})
	assert.Nil(t, rec)

	rec, _ = Validate(map[string]any{"data": map[string]any{"stock": validObject()}})
	assert.Nil(t, rec)
}

func TestValidate_DataTakesPrecedenceOverStock(t *testing.T) {
	other := validObject()
	other["symbol"] = "AMD"

	rec, _ := Validate(map[string]any{"data": validObject(), "stock": other})

	require.NotNil(t, rec)
	assert.Equal(t, "NVDA", rec.Symbol())
}

func TestValidate_MalformedInputRejects(t *testing.T) {
	for _, raw := range []any{
		"{not json",
		"",
		"[]",
		`"just a string"`,
		"42",
		nil,
		[]any{},
	} {
		rec, reason := Validate(raw)
		assert.Nil(t, rec, "%#v", raw)
		assert.NotEmpty(t, reason)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	first, _ := Validate(map[string]any{"stock": validObject()})
	require.NotNil(t, first)

	second, reason := Validate(first)
	require.NotNil(t, second, reason)
	assert.Equal(t, first.Fields, second.Fields)
	assert.Equal(t, first.Recommendation, second.Recommendation)

	third, _ := Validate(second.Fields)
	assert.Equal(t, first.Recommendation, third.Recommendation)
}

func TestValidateJSON(t *testing.T) {
	rec, _ := ValidateJSON(mustJSON(t, validObject()))
	assert.NotNil(t, rec)

	rec, reason := ValidateJSON("```json\n{}\n```")
	assert.Nil(t, rec)
	assert.Contains(t, reason, "malformed JSON")
}

func TestValidatorCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	v := New(metrics.New(reg), logger.NewNop())

	rec, ok := v.Check("NVDA", validObject())
	assert.True(t, ok)
	assert.NotNil(t, rec)

	_, ok = v.Check("AMD", validObject())
	assert.False(t, ok, "record for another symbol is rejected")

	_, ok = v.Check("NVDA", "garbage")
	assert.False(t, ok)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "dailybrief_validator_rejections_total" {
			assert.Equal(t, 2.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
