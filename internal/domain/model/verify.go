package model

// VerifyReason is the taxonomy of verification outcomes returned to callers.
// All are terminal for one call; none are retried internally.
type VerifyReason string

const (
	VerifyOK               VerifyReason = "OK"
	VerifyBadFormat        VerifyReason = "BAD_FORMAT"
	VerifyNotFound         VerifyReason = "NOT_FOUND"
	VerifyNotPaid          VerifyReason = "NOT_PAID"
	VerifyTokenUsedByOther VerifyReason = "TOKEN_USED_BY_OTHER"
	VerifyBlocked          VerifyReason = "BLOCKED"
	VerifyRateLimit        VerifyReason = "RATE_LIMIT"
	VerifyInternalError    VerifyReason = "INTERNAL_ERROR"
)

// VerifyOutcome is the result of one token verification call.
type VerifyOutcome struct {
	OK        bool
	ProductID string // set only on success
	Reason    VerifyReason
}

func VerifySuccess(productID string) VerifyOutcome {
	return VerifyOutcome{OK: true, ProductID: productID, Reason: VerifyOK}
}

func VerifyFailure(reason VerifyReason) VerifyOutcome {
	return VerifyOutcome{Reason: reason}
}
