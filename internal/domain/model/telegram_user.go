package model

import "time"

type TelegramUserState string

const (
	TelegramUserStateNew           TelegramUserState = "NEW"
	TelegramUserStateAwaitingToken TelegramUserState = "AWAITING_TOKEN"
	TelegramUserStateActive        TelegramUserState = "ACTIVE"
	TelegramUserStateBlocked       TelegramUserState = "BLOCKED"
)

// TelegramUser tracks one external Telegram account interacting with the bot.
// Created or refreshed on every inbound interaction.
type TelegramUser struct {
	TelegramID   int64
	Username     *string
	State        TelegramUserState
	BlockedUntil *time.Time
	LastSeenAt   time.Time
}

func NewTelegramUser(tgID int64, username string) *TelegramUser {
	u := &TelegramUser{
		TelegramID: tgID,
		State:      TelegramUserStateNew,
		LastSeenAt: time.Now(),
	}
	if username != "" {
		u.Username = &username
	}
	return u
}

// BlockedAt reports whether the user's block is still in force at the given
// time. Expired blocks need no explicit unblock step.
func (u *TelegramUser) BlockedAt(now time.Time) bool {
	return u.State == TelegramUserStateBlocked &&
		u.BlockedUntil != nil && u.BlockedUntil.After(now)
}

// Block puts the user into the blocked state until the given deadline.
func (u *TelegramUser) Block(until time.Time) {
	u.State = TelegramUserStateBlocked
	u.BlockedUntil = &until
}

// Activate clears any block and marks the user as holding verified access.
func (u *TelegramUser) Activate() {
	u.State = TelegramUserStateActive
	u.BlockedUntil = nil
}

func (u *TelegramUser) Touch() { u.LastSeenAt = time.Now() }
