package model

import (
	"fmt"
	"regexp"
)

// ClaimIDLength is the length of a hex-encoded SHA-256 digest
const ClaimIDLength = 64

var claimIDPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Claim is a natural-language scientific assertion submitted for evaluation
type Claim struct {
	Text      string  `json:"text"`      // Original text as submitted (preserved verbatim)
	Canonical string  `json:"canonical"` // Canonical form used only for hashing
	ID        ClaimID `json:"id"`        // Deterministic identifier derived from Canonical
}

// ClaimID is the deterministic hex digest identifying a canonicalized claim.
// It is the sole storage key and the sole external handle for an evaluation.
type ClaimID string

// String returns the hex form of the identifier
func (id ClaimID) String() string {
	return string(id)
}

// Short returns an abbreviated form for log lines
func (id ClaimID) Short() string {
	if len(id) <= 12 {
		return string(id)
	}
	return string(id[:12])
}

// Validate checks that the identifier is 64 lowercase hex characters
func (id ClaimID) Validate() error {
	if !claimIDPattern.MatchString(string(id)) {
		return fmt.Errorf("invalid claim id %q: expected %d lowercase hex characters", string(id), ClaimIDLength)
	}
	return nil
}
