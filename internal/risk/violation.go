package risk

import "errors"

// Reason classifies a rejected candidate.
type Reason string

const (
	ReasonDuplicateOrder      Reason = "duplicate_order"
	ReasonInvalidQuoteAmount  Reason = "invalid_quote_amount"
	ReasonInsufficientBalance Reason = "insufficient_balance"
	ReasonMinBalance          Reason = "min_available_balance"
	ReasonTotalPositionLimit  Reason = "total_position_limit"
	ReasonMarketPositionLimit Reason = "market_position_limit"
	ReasonSellExceedsTotal    Reason = "sell_exceeds_total_position"
	ReasonSellExceedsMarket   Reason = "sell_exceeds_market_position"
	ReasonUnsupportedSide     Reason = "unsupported_side"
)

// Violation is a rejected candidate. It is a normal outcome, not a failure.
type Violation struct {
	Reason Reason
	Detail string
}

func (v *Violation) Error() string {
	return "risk violation (" + string(v.Reason) + "): " + v.Detail
}

// IsViolation reports whether err is or wraps a *Violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// AsViolation extracts the *Violation from err, if any.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	ok := errors.As(err, &v)
	return v, ok
}
