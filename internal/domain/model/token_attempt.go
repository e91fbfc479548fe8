package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// TokenAttempt is one append-only audit record per verification call. The
// sliding-window attempt count for rate limiting is computed over these rows.
type TokenAttempt struct {
	ID             string
	TelegramUserID int64
	Success        bool
	Reason         VerifyReason
	AttemptedAt    time.Time
}

func NewTokenAttempt(tgID int64, success bool, reason VerifyReason) *TokenAttempt {
	now := time.Now()
	return &TokenAttempt{
		ID:             ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		TelegramUserID: tgID,
		Success:        success,
		Reason:         reason,
		AttemptedAt:    now,
	}
}
