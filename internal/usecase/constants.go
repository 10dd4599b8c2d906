package usecase

import "time"

const (
	// AccountCacheTTL bounds staleness of cached account reads; balance
	// mutations invalidate eagerly.
	AccountCacheTTL = 30 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)
