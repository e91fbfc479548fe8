package model

import "time"

// AccessGrant asserts that a Telegram user currently has access to a product.
// Unique per (user, product): re-granting replaces the prior grant and
// effectively un-revokes it.
type AccessGrant struct {
	TelegramUserID  int64
	ProductID       string
	GrantedAt       time.Time
	RevokedAt       *time.Time
	SourceTokenHash string // digest of the token that produced the grant
}

func NewAccessGrant(tgID int64, productID, tokenHash string) *AccessGrant {
	return &AccessGrant{
		TelegramUserID:  tgID,
		ProductID:       productID,
		GrantedAt:       time.Now(),
		SourceTokenHash: tokenHash,
	}
}

// Revoked reports whether the grant has been administratively revoked.
func (g *AccessGrant) Revoked() bool { return g.RevokedAt != nil }
