package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-course-access/internal/domain"
	"telegram-course-access/internal/domain/model"
	"telegram-course-access/internal/domain/ports/repository"
	"telegram-course-access/internal/infra/logging"
)

const (
	// Sliding-window rate limit over verification attempts.
	rateLimitWindow      = 10 * time.Minute
	rateLimitMaxAttempts = 5
	blockDuration        = 10 * time.Minute
)

// Compile-time check
var _ VerifyUseCase = (*verifyUC)(nil)

// VerifyUseCase is the token verification and binding state machine. It is
// the single entry point shared by the HTTP endpoint and the bot handler.
type VerifyUseCase interface {
	// Verify maps (token, requesting user) to an outcome. Every call appends
	// exactly one attempt record, whether it proceeds or is refused.
	Verify(ctx context.Context, rawToken string, tgID int64, username string) model.VerifyOutcome

	// TouchUser upserts the interacting user without verifying anything
	// (used by the bot on non-token messages).
	TouchUser(ctx context.Context, tgID int64, username string, state model.TelegramUserState) error
}

type verifyUC struct {
	orders   repository.OrderRepository
	users    repository.TelegramUserRepository
	grants   repository.AccessGrantRepository
	attempts repository.TokenAttemptRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewVerifyUseCase(
	orders repository.OrderRepository,
	users repository.TelegramUserRepository,
	grants repository.AccessGrantRepository,
	attempts repository.TokenAttemptRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *verifyUC {
	return &verifyUC{orders: orders, users: users, grants: grants, attempts: attempts, tm: tm, log: logger}
}

func (u *verifyUC) Verify(ctx context.Context, rawToken string, tgID int64, username string) model.VerifyOutcome {
	defer logging.TraceDuration(u.log, "VerifyUC.Verify")()

	trimmed := strings.TrimSpace(rawToken)
	if !model.IsLikelyToken(trimmed) {
		return u.refuse(ctx, tgID, model.VerifyBadFormat)
	}

	now := time.Now()

	// Lazy block check: an expired block needs no explicit unblock step.
	user, err := u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		u.log.Error().Err(err).Int64("tg_id", tgID).Msg("user fetch failed")
		user = nil
	}
	if user != nil && user.BlockedAt(now) {
		return u.refuse(ctx, tgID, model.VerifyBlocked)
	}

	// Count of PRIOR attempts inside the window, before this one is recorded.
	count, err := u.attempts.CountSince(ctx, repository.NoTX, tgID, now.Add(-rateLimitWindow))
	if err != nil {
		u.log.Error().Err(err).Int64("tg_id", tgID).Msg("attempt count failed")
	}
	if count >= rateLimitMaxAttempts {
		if user == nil {
			user = model.NewTelegramUser(tgID, username)
		}
		user.Block(now.Add(blockDuration))
		user.Touch()
		if err := u.users.Upsert(ctx, repository.NoTX, user); err != nil {
			u.log.Error().Err(err).Int64("tg_id", tgID).Msg("block upsert failed")
		}
		return u.refuse(ctx, tgID, model.VerifyRateLimit)
	}

	order, err := u.orders.FindByAccessToken(ctx, repository.NoTX, trimmed)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return u.refuse(ctx, tgID, model.VerifyNotFound)
		}
		u.log.Error().Err(err).Int64("tg_id", tgID).Msg("order lookup failed")
		return u.refuse(ctx, tgID, model.VerifyInternalError)
	}
	if !order.IsPaid() {
		return u.refuse(ctx, tgID, model.VerifyNotPaid)
	}

	if order.TelegramUserID != nil && !order.BoundTo(tgID) {
		// A token binds to exactly one external identity for its lifetime.
		return u.refuse(ctx, tgID, model.VerifyTokenUsedByOther)
	}

	// First claim wins. The bind is a conditional update on the unbound row;
	// zero rows matched means a concurrent claim got there first and we must
	// re-read to decide between idempotent success and rejection. Bind,
	// grant and activation commit or roll back together.
	usedByOther := false
	txErr := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if order.TelegramUserID == nil {
			var uname *string
			if username != "" {
				uname = &username
			}
			matched, err := u.orders.BindTelegramUser(ctx, tx, order.ID, tgID, uname, now)
			if err != nil {
				return err
			}
			if !matched {
				order, err = u.orders.FindByID(ctx, tx, order.ID)
				if err != nil {
					return err
				}
				if !order.BoundTo(tgID) {
					usedByOther = true
					return nil
				}
			}
		}

		grant := model.NewAccessGrant(tgID, order.ProductID, model.HashToken(trimmed))
		if err := u.grants.Upsert(ctx, tx, grant); err != nil {
			return err
		}

		if user == nil {
			user = model.NewTelegramUser(tgID, username)
		}
		if username != "" {
			user.Username = &username
		}
		user.Activate()
		user.Touch()
		return u.users.Upsert(ctx, tx, user)
	})
	if txErr != nil {
		u.log.Error().Err(txErr).Str("order_id", order.ID).Msg("claim transaction failed")
		return u.refuse(ctx, tgID, model.VerifyInternalError)
	}
	if usedByOther {
		return u.refuse(ctx, tgID, model.VerifyTokenUsedByOther)
	}

	u.logAttempt(ctx, tgID, true, model.VerifyOK)
	return model.VerifySuccess(order.ProductID)
}

func (u *verifyUC) TouchUser(ctx context.Context, tgID int64, username string, state model.TelegramUserState) error {
	user, err := u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		user = model.NewTelegramUser(tgID, username)
	}
	if username != "" {
		user.Username = &username
	}
	// Never downgrade a verified or blocked user on a plain interaction.
	if user.State == model.TelegramUserStateNew || user.State == model.TelegramUserStateAwaitingToken {
		user.State = state
	}
	user.Touch()
	return u.users.Upsert(ctx, repository.NoTX, user)
}

func (u *verifyUC) refuse(ctx context.Context, tgID int64, reason model.VerifyReason) model.VerifyOutcome {
	u.logAttempt(ctx, tgID, false, reason)
	return model.VerifyFailure(reason)
}

// logAttempt is best-effort: a failing audit insert is reported to the
// operational log only and never overrides the verification outcome.
func (u *verifyUC) logAttempt(ctx context.Context, tgID int64, success bool, reason model.VerifyReason) {
	a := model.NewTokenAttempt(tgID, success, reason)
	if err := u.attempts.Insert(ctx, repository.NoTX, a); err != nil {
		u.log.Error().Err(err).Int64("tg_id", tgID).Str("reason", string(reason)).Msg("attempt log insert failed")
	}
}
