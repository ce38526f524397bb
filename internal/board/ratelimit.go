package board

import (
	"time"

	"github.com/tgchan/tgchan/internal/entities"
)

// RateLimiter is a per-pseudonym posting cooldown. Owner is never limited.
type RateLimiter struct {
	Interval time.Duration
	Owner    int64
}

// Allow returns false if pseudonym has to wait before posting. It does not change database,
// expired entries are dropped by Commit.
func (r RateLimiter) Allow(db *entities.Database, identity int64, p entities.Pseudonym, now time.Time) bool {
	if identity == r.Owner {
		return true
	}

	next, ok := db.NextPostAt(p)
	if !ok {
		return true
	}

	return !now.Before(next)
}

// Commit starts cooldown for pseudonym and drops expired cooldowns of others.
func (r RateLimiter) Commit(db *entities.Database, identity int64, p entities.Pseudonym, now time.Time) {
	db.PruneTimings(now)

	if identity == r.Owner {
		return
	}

	db.SetNextPostAt(p, now.Add(r.Interval))
}
