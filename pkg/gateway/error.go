package gateway

import (
	"errors"
	"fmt"

	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
)

const rawResponseLimit = 2048

// Error is the single failure shape for every gateway call. RawResponse is for
// server logs only.
type Error struct {
	Gateway     string
	Message     string
	RawResponse string
	StatusCode  int
	cause       error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Gateway, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Gateway, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Fail wraps a gateway failure as a GATEWAY_ERROR application error.
func Fail(gw, message string, statusCode int, raw []byte, cause error) error {
	ge := &Error{
		Gateway:     gw,
		Message:     message,
		RawResponse: truncate(raw),
		StatusCode:  statusCode,
		cause:       cause,
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, ge, message)
}

// AsError extracts the gateway error from a wrapped chain.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

func truncate(raw []byte) string {
	if len(raw) > rawResponseLimit {
		return string(raw[:rawResponseLimit])
	}
	return string(raw)
}
