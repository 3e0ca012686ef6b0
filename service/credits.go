package service

import (
	"fmt"
	"math"

	"reelforge-server/models"
)

// One credit buys roughly five seconds of rendered footage.
const secondsPerCredit = 5

// RequiredCredits converts a requested output duration into a credit cost:
// nearest-integer rounding with a floor of one credit.
func RequiredCredits(durationSeconds int) int {
	n := int(math.Round(float64(durationSeconds) / secondsPerCredit))
	if n < 1 {
		return 1
	}
	return n
}

// InsufficientCreditsError is returned by CreditGate.Reserve when the balance
// cannot cover the requested work. No deduction happens in that case.
type InsufficientCreditsError struct {
	Have int
	Need int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("Insufficient credits. Need %d, have %d", e.Need, e.Have)
}

// CreditGate is the admission control in front of expensive generation work.
type CreditGate struct{}

// Reserve atomically decrements the user's balance by required credits.
// The decrement is a single conditional UPDATE (credits >= n) so concurrent
// requests by the same user cannot oversell the balance.
func (g *CreditGate) Reserve(userID string, required int) error {
	ok, err := models.DeductCredits(userID, required)
	if err != nil {
		return fmt.Errorf("credit deduction failed: %w", err)
	}
	if ok {
		return nil
	}
	profile, err := models.GetProfileByID(userID)
	if err != nil {
		return fmt.Errorf("profile lookup failed: %w", err)
	}
	return &InsufficientCreditsError{Have: profile.Credits, Need: required}
}
