package model

import "time"

// EvaluationResult is the validated, structured credibility verdict for a claim.
// It is either fully populated or not produced at all.
type EvaluationResult struct {
	Score       int        `json:"score" validate:"gte=0,lte=100"`
	Confidence  Confidence `json:"confidence" validate:"required,oneof=low medium high"`
	Explanation string     `json:"explanation" validate:"required"`
	Factors     []string   `json:"factors" validate:"required,min=1,dive,required"`
	Tier        Tier       `json:"tier"`

	ClaimID ClaimID `json:"claim_id,omitempty"` // Back-reference to the owning claim

	// Audit fields, not part of the ledger payload
	Claim       string    `json:"claim,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at,omitempty"`
}

// Confidence is the enumerated confidence label of a verdict
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence returns the label if it is one of low, medium, high
func ParseConfidence(s string) (Confidence, bool) {
	switch c := Confidence(s); c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return c, true
	}
	return "", false
}

// Tier identifies which evaluation stage produced a result
type Tier string

const (
	TierPrimary           Tier = "primary"
	TierSecondaryDirect   Tier = "secondary_direct"
	TierDeterministicStub Tier = "deterministic_stub"
)

// Tiers lists every tier in fallback order
var Tiers = []Tier{TierPrimary, TierSecondaryDirect, TierDeterministicStub}

// Clone returns a deep copy so callers can hand results across goroutines
func (r *EvaluationResult) Clone() *EvaluationResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Factors = append([]string(nil), r.Factors...)
	return &c
}
