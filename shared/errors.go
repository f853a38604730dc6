package shared

import "errors"

// Invariant violations. These indicate a bug in the accounting logic and must
// propagate to the caller unrecovered.
var (
	ErrArithmeticInvariant = errors.New("accumulative reward went negative")
	ErrCorrectionOverflow  = errors.New("correction term overflows signed range")
)

// Admission failures. Clean rejections with no state mutation.
var (
	ErrTradingDisabled       = errors.New("trading is not enabled")
	ErrGrossLimitExceeded    = errors.New("amount exceeds max transaction limit")
	ErrWalletLimitExceeded   = errors.New("recipient balance would exceed wallet limit")
	ErrCooldownActive        = errors.New("sender transfer cooldown has not elapsed")
	ErrSnipeFeeExceedsAmount = errors.New("snipe fee would consume the transfer amount")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrBelowMinimumPayout    = errors.New("withdrawable amount below minimum payout")
	ErrExcluded              = errors.New("account is excluded from rewards")
	ErrClaimCooldownActive   = errors.New("claim cooldown has not elapsed")
)

// External-call failures. Speculative bookkeeping performed before the
// external call must be rolled back before these are returned.
var (
	ErrPayoutTransferFailed = errors.New("reward payout transfer failed")
	ErrQuoteFailed          = errors.New("exchange quote failed")
	ErrSwapFailed           = errors.New("exchange swap failed")
	ErrSwapInFlight         = errors.New("a fee swap is already in flight")
	ErrReentrantCall        = errors.New("reentrant call into a guarded operation")
)

// Sale state-machine violations.
var (
	ErrSaleNotActive           = errors.New("sale is not active")
	ErrAlreadyFinalized        = errors.New("sale already finalized")
	ErrRefundNotAvailable      = errors.New("refunds are not enabled")
	ErrNoContributionFound     = errors.New("no contribution found for address")
	ErrContributionTooSmall    = errors.New("contribution below per-address minimum")
	ErrContributionCapExceeded = errors.New("contribution exceeds per-address maximum")
	ErrHardCapExceeded         = errors.New("contribution exceeds hard cap")
	ErrSoldOut                 = errors.New("insufficient sale supply remaining")
	ErrRefundBalanceShort      = errors.New("contributor no longer holds purchased tokens")
)

// Admin validation failures.
var (
	ErrUnauthorized    = errors.New("caller lacks required capability")
	ErrParamOutOfRange = errors.New("parameter out of allowed range")
)
