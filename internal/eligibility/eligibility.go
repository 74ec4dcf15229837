// Package eligibility decides whether a requester may start the interview.
package eligibility

import (
	"fmt"
	"time"
)

type Gate struct {
	MinAccountAgeDays int
	Now               func() time.Time
}

type Decision struct {
	Allowed        bool
	AccountAgeDays int
	// Message is the user-visible denial; empty when Allowed.
	Message string
}

// Check computes the account age in whole days, truncating, and rejects
// accounts younger than the configured minimum.
func (g Gate) Check(createdAt time.Time) Decision {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	days := AccountAgeDays(createdAt, now())
	if days < g.MinAccountAgeDays {
		return Decision{
			AccountAgeDays: days,
			Message: fmt.Sprintf("❌ Your account is too new to verify. Account must be at least %d days old.\nYour account age: %d days",
				g.MinAccountAgeDays, days),
		}
	}
	return Decision{Allowed: true, AccountAgeDays: days}
}

func AccountAgeDays(createdAt, now time.Time) int {
	if now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt) / (24 * time.Hour))
}
