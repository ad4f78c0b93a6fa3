package domain

import "errors"

// Kind classifies a rebalancer failure.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindValidation    Kind = "validation"
	KindState         Kind = "state"
	KindNotFound      Kind = "not_found"
	KindArithmetic    Kind = "arithmetic"
	KindInternal      Kind = "internal"
)

// Error is a classified rebalancer failure. Values are compared by identity,
// so callers match them with errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Authorization errors
var (
	ErrUnauthorized = newError(KindAuthorization, "Unauthorized", "caller is not the portfolio manager")
)

// Validation errors
var (
	ErrInvalidManager          = newError(KindValidation, "InvalidManager", "manager must not be the zero identity")
	ErrInvalidThreshold        = newError(KindValidation, "InvalidThreshold", "base threshold must be between 1 and 50")
	ErrInvalidInterval         = newError(KindValidation, "InvalidInterval", "rebalance interval must be between 3600 and 86400 seconds")
	ErrInvalidStrategyID       = newError(KindValidation, "InvalidStrategyId", "strategy id must not be the zero identity")
	ErrUnknownProtocol         = newError(KindValidation, "UnknownProtocol", "unknown protocol type")
	ErrInvalidPoolID           = newError(KindValidation, "InvalidPoolId", "pool id must not be the zero identity")
	ErrInvalidReserveAddress   = newError(KindValidation, "InvalidReserveAddress", "reserve address must not be the zero identity")
	ErrInvalidUtilization      = newError(KindValidation, "InvalidUtilization", "utilization must not exceed 10000 bps")
	ErrInvalidPairID           = newError(KindValidation, "InvalidPairId", "pair id must not be the zero identity")
	ErrInvalidTokenMint        = newError(KindValidation, "InvalidTokenMint", "token mint must not be the zero identity")
	ErrTokenMintsIdentical     = newError(KindValidation, "TokenMintsIdentical", "token A and token B mints must differ")
	ErrInvalidRewardMultiplier = newError(KindValidation, "InvalidRewardMultiplier", "reward multiplier must be between 1 and 10")
	ErrInvalidFeeTier          = newError(KindValidation, "InvalidFeeTier", "fee tier must not exceed 1000 bps")
	ErrInvalidValidatorID      = newError(KindValidation, "InvalidValidatorId", "validator id must not be the zero identity")
	ErrInvalidStakePool        = newError(KindValidation, "InvalidStakePool", "stake pool must not be the zero identity")
	ErrInvalidCommissionRate   = newError(KindValidation, "InvalidCommissionRate", "commission must not exceed 1000 bps")
	ErrInvalidUnstakeDelay     = newError(KindValidation, "InvalidUnstakeDelay", "unstake delay must not exceed 50 epochs")
	ErrInsufficientBalance     = newError(KindValidation, "InsufficientBalance", "balance is below the required minimum")
	ErrExcessiveYieldRate      = newError(KindValidation, "ExcessiveYieldRate", "yield rate must not exceed 50000 bps")
	ErrInvalidVolatilityScore  = newError(KindValidation, "InvalidVolatilityScore", "volatility score must not exceed 10000 bps")
	ErrEmptyStrategyList       = newError(KindValidation, "EmptyStrategyList", "strategy list is empty")
	ErrTooManyStrategies       = newError(KindValidation, "TooManyStrategies", "too many strategies in one call")
	ErrDuplicateStrategy       = newError(KindValidation, "DuplicateStrategy", "strategy listed more than once")
	ErrInvalidFraction         = newError(KindValidation, "InvalidFraction", "extraction fraction must be between 1 and 10000 bps")
	ErrInvalidAllocation       = newError(KindValidation, "InvalidAllocation", "invalid allocation")
)

// State errors
var (
	ErrPortfolioExists         = newError(KindState, "PortfolioExists", "portfolio already exists for manager")
	ErrStrategyExists          = newError(KindState, "StrategyExists", "strategy already registered")
	ErrEmergencyPaused         = newError(KindState, "EmergencyPaused", "portfolio is emergency paused")
	ErrRebalanceTooSoon        = newError(KindState, "RebalanceTooSoon", "minimum rebalance interval has not elapsed")
	ErrInsufficientStrategies  = newError(KindState, "InsufficientStrategies", "not enough strategies to build a plan")
	ErrInvalidPerformanceScore = newError(KindState, "InvalidPerformanceScore", "top performers have no performance score")
	ErrConcurrentUpdate        = newError(KindState, "ConcurrentUpdate", "record is being updated by another call, retry")
)

// Not found errors
var (
	ErrPortfolioNotFound = newError(KindNotFound, "PortfolioNotFound", "portfolio not found")
	ErrStrategyNotFound  = newError(KindNotFound, "StrategyNotFound", "strategy not found")
)

// Arithmetic errors
var (
	ErrBalanceOverflow    = newError(KindArithmetic, "BalanceOverflow", "balance overflow")
	ErrMathOverflow       = newError(KindArithmetic, "MathOverflow", "arithmetic overflow")
	ErrInvariantViolation = newError(KindArithmetic, "InvariantViolation", "constant product invariant violated")
)

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the stable error code of err, or "Internal".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "Internal"
}
