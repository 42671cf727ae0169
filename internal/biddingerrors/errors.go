package biddingerrors

import (
	"errors"
	"fmt"
)

// Error categories
var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrInvalidState     = errors.New("auction state does not allow this action")
	ErrValidationFailed = errors.New("validation failed")
	ErrExpired          = errors.New("auction has ended")
	ErrInternal         = errors.New("internal error")
)

// business logic errors
var (
	ErrInvalidBid     = fmt.Errorf("%w: invalid bid", ErrValidationFailed)
	ErrBidTooLow      = fmt.Errorf("%w: bid amount too low", ErrValidationFailed)
	ErrNoBuyout       = fmt.Errorf("%w: auction has no buyout price", ErrValidationFailed)
	ErrBuyoutExceeded = fmt.Errorf("%w: current price exceeds buyout price", ErrValidationFailed)
)

// Rejection is an expected business outcome with a reason a client can show as-is
type Rejection struct {
	Cause  error
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

func (r *Rejection) Unwrap() error {
	return r.Cause
}

// Reject builds a Rejection wrapping cause
func Reject(cause error, format string, args ...any) error {
	return &Rejection{Cause: cause, Reason: fmt.Sprintf(format, args...)}
}

// Reason returns the human-readable reason carried by err, or a generic message
func Reason(err error) string {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason
	}
	switch Kind(err) {
	case KindNotFound:
		return "Auction not found"
	case KindInternal:
		return "internal server error"
	}
	return err.Error()
}

// Classification strings returned to callers alongside a rejection
const (
	KindNotFound         = "not_found"
	KindInvalidState     = "invalid_state"
	KindValidationFailed = "validation_failed"
	KindExpired          = "expired"
	KindInternal         = "internal"
)

// Kind classifies err into one of the taxonomy categories. Unknown errors are internal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrAuctionNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrValidationFailed):
		return KindValidationFailed
	case errors.Is(err, ErrExpired):
		return KindExpired
	default:
		return KindInternal
	}
}
