// Package claim canonicalizes claim text and derives its deterministic identifier.
//
// Canonicalization is fixed:
//  1. Unicode NFC normalization
//  2. every run of Unicode whitespace collapses to a single ASCII space
//  3. leading and trailing whitespace is trimmed
//
// Case and punctuation are preserved; "pH" and "PH" are different claims.
// Two texts that differ only in incidental spacing, line breaks, or Unicode
// composition therefore share one identifier.
package claim

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/verisci/internal/model"
)

// InvalidClaimError reports claim text that cannot be evaluated
type InvalidClaimError struct {
	Reason string
}

func (e *InvalidClaimError) Error() string {
	return "invalid claim: " + e.Reason
}

// Canonicalize returns the canonical form of text used for hashing
func Canonicalize(text string) string {
	normalized := norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(normalized))
	inSpace := false
	for _, r := range normalized {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Identify returns the identifier for claim text.
// Empty or whitespace-only text yields an *InvalidClaimError.
func Identify(text string) (model.ClaimID, error) {
	canonical := Canonicalize(text)
	if canonical == "" {
		return "", &InvalidClaimError{Reason: "claim text is empty"}
	}
	return hashCanonical(canonical), nil
}

// New builds a Claim, keeping the original text alongside its canonical form
func New(text string) (*model.Claim, error) {
	canonical := Canonicalize(text)
	if canonical == "" {
		return nil, &InvalidClaimError{Reason: "claim text is empty"}
	}
	return &model.Claim{
		Text:      text,
		Canonical: canonical,
		ID:        hashCanonical(canonical),
	}, nil
}

func hashCanonical(canonical string) model.ClaimID {
	sum := sha256.Sum256([]byte(canonical))
	return model.ClaimID(hex.EncodeToString(sum[:]))
}
