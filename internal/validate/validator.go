package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ppiankov/verisci/internal/model"
)

// RequiredKeys are the keys every provider response must carry
var RequiredKeys = []string{"score", "confidence", "explanation", "factors"}

var resultValidate = validator.New()

// ValidationError names the first constraint a response violated
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Parse decodes provider message content into an EvaluationResult.
// Markdown fences and prose around the JSON object are stripped first.
// The returned result has no ClaimID or Tier; the caller assigns those.
func Parse(content string) (*model.EvaluationResult, error) {
	cleaned := CleanJSON(content)
	if cleaned == "" {
		return nil, invalid("$", "response is empty")
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, invalid("$", "not valid JSON: %v", err)
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, invalid("$", "top-level value is not an object")
	}

	return Normalize(obj)
}

// Normalize applies the schema to a decoded response object.
//
// Strict: missing keys, unknown confidence labels, empty explanation.
// Tolerant: out-of-range scores are clamped into [0,100], fractional scores
// are rounded, and a single factor string is wrapped into a slice.
func Normalize(raw map[string]interface{}) (*model.EvaluationResult, error) {
	for _, key := range RequiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, invalid(key, "missing required key")
		}
	}

	score, err := normalizeScore(raw["score"])
	if err != nil {
		return nil, err
	}

	confidence, err := normalizeConfidence(raw["confidence"])
	if err != nil {
		return nil, err
	}

	explanation, ok := raw["explanation"].(string)
	if !ok {
		return nil, invalid("explanation", "expected string, got %s", typeName(raw["explanation"]))
	}
	explanation = strings.TrimSpace(explanation)
	if explanation == "" {
		return nil, invalid("explanation", "must not be empty")
	}

	factors, err := normalizeFactors(raw["factors"])
	if err != nil {
		return nil, err
	}

	result := &model.EvaluationResult{
		Score:       score,
		Confidence:  confidence,
		Explanation: explanation,
		Factors:     factors,
	}

	if err := Check(result); err != nil {
		return nil, err
	}

	return result, nil
}

// Check verifies the range invariants of an already-built result
func Check(result *model.EvaluationResult) error {
	if result == nil {
		return invalid("$", "result is nil")
	}

	err := resultValidate.Struct(result)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return invalid(strings.ToLower(fe.Field()), "failed %q constraint", fe.Tag())
	}
	return invalid("$", "%v", err)
}

func normalizeScore(v interface{}) (int, error) {
	var f float64

	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, invalid("score", "not numeric: %q", n.String())
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case string:
		// Some models quote numbers
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, invalid("score", "not numeric: %q", n)
		}
		f = parsed
	default:
		return 0, invalid("score", "expected number, got %s", typeName(v))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid("score", "not a finite number")
	}

	// Clamp before converting: out-of-range floats do not convert to int
	f = math.Max(0, math.Min(100, f))
	return int(math.Round(f)), nil
}

func normalizeConfidence(v interface{}) (model.Confidence, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalid("confidence", "expected string, got %s", typeName(v))
	}

	c, ok := model.ParseConfidence(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return "", invalid("confidence", "unrecognized label %q (want low, medium or high)", s)
	}
	return c, nil
}

func normalizeFactors(v interface{}) ([]string, error) {
	switch f := v.(type) {
	case string:
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, invalid("factors", "must not be empty")
		}
		return []string{f}, nil

	case []interface{}:
		if len(f) == 0 {
			return nil, invalid("factors", "must contain at least one item")
		}
		factors := make([]string, 0, len(f))
		for i, item := range f {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(fmt.Sprintf("factors[%d]", i), "expected string, got %s", typeName(item))
			}
			s = strings.TrimSpace(s)
			if s == "" {
				return nil, invalid(fmt.Sprintf("factors[%d]", i), "must not be empty")
			}
			factors = append(factors, s)
		}
		return factors, nil

	case []string:
		items := make([]interface{}, len(f))
		for i, s := range f {
			items[i] = s
		}
		return normalizeFactors(items)
	}

	return nil, invalid("factors", "expected array of strings, got %s", typeName(v))
}

// CleanJSON strips markdown code fences and any prose surrounding the
// outermost JSON object
func CleanJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}

	return content
}

func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
