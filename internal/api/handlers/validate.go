package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/dailybrief/internal/contracts"
	"github.com/wonny/dailybrief/internal/s4_validation"
)

const maxValidateBody = 1 << 20

// ValidateResponse reports the output validator's verdict
type ValidateResponse struct {
	Valid  bool                       `json:"valid"`
	Reason string                     `json:"reason,omitempty"`
	Record *contracts.ValidatedRecord `json:"record,omitempty"`
}

// Validate runs the output validator on the request body
// POST /api/validate?symbol=AAPL
func Validate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxValidateBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if !json.Valid(body) {
		respondJSON(w, http.StatusOK, ValidateResponse{Reason: "body is not valid JSON"})
		return
	}

	rec, reason := s4_validation.Validate(json.RawMessage(body))
	if rec == nil {
		respondJSON(w, http.StatusOK, ValidateResponse{Reason: reason})
		return
	}

	if want := contracts.NormalizeSymbol(r.URL.Query().Get("symbol")); want != "" && !strings.EqualFold(rec.Symbol(), want) {
		respondJSON(w, http.StatusOK, ValidateResponse{Reason: "symbol mismatch: got " + rec.Symbol() + ", want " + want})
		return
	}

	respondJSON(w, http.StatusOK, ValidateResponse{Valid: true, Record: rec})
}
