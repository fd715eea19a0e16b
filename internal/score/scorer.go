package score

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ppiankov/verisci/internal/model"
)

// StubExplanation is the fixed explanation attached to deterministic verdicts
const StubExplanation = "Fallback evaluation: the language-model tiers failed or are not configured, " +
	"so this verdict was derived deterministically from the claim identifier. " +
	"It carries no scientific reasoning and should be re-evaluated once a provider is available."

// Scorer derives reproducible verdicts without any network dependency
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate builds a complete verdict for a claim.
//
// Score and confidence depend only on the identifier: the first 8 bytes of
// the digest, big-endian, modulo 101. The failure chain only adds a factor.
func (s *Scorer) Calculate(id model.ClaimID, canonical string, failureChain []string) model.EvaluationResult {
	score := s.scoreFromID(id)

	factors := []string{
		s.lengthFactor(canonical),
		"General plausibility not assessed (deterministic fallback derived from the claim hash)",
	}
	if len(failureChain) > 0 {
		factors = append(factors, "Internal error chain: "+strings.Join(failureChain, " -> "))
	}

	return model.EvaluationResult{
		Score:       score,
		Confidence:  s.determineConfidence(score),
		Explanation: StubExplanation,
		Factors:     factors,
		ClaimID:     id,
		Tier:        model.TierDeterministicStub,
	}
}

// scoreFromID maps the identifier into [0,100]
func (s *Scorer) scoreFromID(id model.ClaimID) int {
	digest, err := hex.DecodeString(string(id))
	if err != nil || len(digest) < 8 {
		// Not a hex digest; hash it so the mapping stays deterministic
		sum := sha256.Sum256([]byte(id))
		digest = sum[:]
	}
	return int(binary.BigEndian.Uint64(digest[:8]) % 101)
}

// determineConfidence never reports high: no reasoning backs a stub verdict
func (s *Scorer) determineConfidence(score int) model.Confidence {
	if score >= 40 && score <= 70 {
		return model.ConfidenceMedium
	}
	return model.ConfidenceLow
}

func (s *Scorer) lengthFactor(canonical string) string {
	words := len(strings.Fields(canonical))

	var specificity string
	switch {
	case words == 0:
		specificity = "empty"
	case words < 6:
		specificity = "short, low specificity"
	case words < 25:
		specificity = "moderate specificity"
	default:
		specificity = "long, high specificity"
	}

	return fmt.Sprintf("Claim length and specificity (heuristic): %d words, %s", words, specificity)
}
