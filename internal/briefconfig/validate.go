package briefconfig

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return ValidationError{fieldPath(fe.Namespace()), ruleMessage(fe)}
		}
		return err
	}

	// === Aggregation ===
	if sum := cfg.Aggregation.Weights.Sum(); sum != 100 {
		return ValidationError{"aggregation.weights", fmt.Sprintf("must sum to 100, got %d", sum)}
	}

	// === Discovery ===
	w := cfg.Discovery.Weights
	if w.Max() <= 0 {
		return ValidationError{"discovery.weights", "at least one weight must be > 0"}
	}
	// 랜덤 항은 전체 배점의 10% 이하
	if w.Random > w.Max()*0.10+1e-9 {
		return ValidationError{"discovery.weights.random", "must be at most 10% of the total score"}
	}
	if cfg.Discovery.Count > cfg.Discovery.MaxCandidates {
		return ValidationError{"discovery.count", "must be <= max_candidates"}
	}

	// === Universes ===
	if len(cfg.Universes) == 0 {
		return ValidationError{"universes", "at least one focus group required"}
	}
	for name, symbols := range cfg.Universes {
		if len(symbols) == 0 {
			return ValidationError{"universes." + name, "must not be empty"}
		}
	}

	// === Quotes ===
	for name, n := range cfg.Quotes.MaxBatch {
		if n < 0 {
			return ValidationError{"quotes.max_batch." + name, "must be >= 0"}
		}
	}

	return nil
}

// fieldPath converts "Config.Discovery.MinPrice" to "discovery.minprice"
func fieldPath(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Config.")
	return strings.ToLower(namespace)
}

func ruleMessage(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
}
