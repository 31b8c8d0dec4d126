package invest

import "errors"

// Policy errors surface a specific message and leave balances untouched.
var (
	ErrInsufficientFunds        = errors.New("insufficient_funds")
	ErrInsufficientWithdrawable = errors.New("insufficient_withdrawable")
	ErrDailyLimitExceeded       = errors.New("daily_limit_exceeded")
	ErrAmountExceedsLimit       = errors.New("amount_exceeds_limit")
	ErrWithdrawalInProgress     = errors.New("withdrawal_in_progress")
	ErrActiveWithdrawalBlocking = errors.New("active_withdrawal_blocking")
	ErrWithdrawCoolDown         = errors.New("withdraw_cool_down")
	ErrTaskQuotaReached         = errors.New("task_quota_reached")
)

// Consistency and configuration errors are logged loudly and surface a
// generic failure to the caller.
var (
	ErrInvariantViolation    = errors.New("balance_invariant_violation")
	ErrNoMatchingTier        = errors.New("no_matching_tier")
	ErrMissingConfig         = errors.New("app_config_missing")
	ErrBadSplitTable         = errors.New("split_table_must_sum_to_100")
	ErrTransactionNotStarted = errors.New("transaction_not_started")
	ErrTransactionFailed     = errors.New("transaction_failed")
	ErrWalletPoolExhausted   = errors.New("wallet_pool_exhausted")
	ErrWrongDepositAddress   = errors.New("deposit_address_mismatch")
	ErrTransactionUsed       = errors.New("transaction_already_used")
	ErrRejectReasonRequired  = errors.New("reject_reason_required")
	ErrBadState              = errors.New("invalid_transaction_state")
)
