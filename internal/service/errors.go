package service

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidTransition        ErrorCode = "invalid_transition"
	CodeCancellationWindowActive ErrorCode = "cancellation_window_active"
	CodeNotBuyerOwned            ErrorCode = "not_buyer_owned"
	CodeReasonTooShort           ErrorCode = "reason_too_short"
	CodeSaleNotConfirmed         ErrorCode = "sale_not_confirmed"
	CodeInvalidScheduleIndex     ErrorCode = "invalid_schedule_index"
	CodeInvalidTransactionCode   ErrorCode = "invalid_transaction_code"
	CodeInvalidAmount            ErrorCode = "invalid_amount"
	CodeAlreadyConfirmed         ErrorCode = "already_confirmed"
	CodeOrderTerminal            ErrorCode = "order_terminal"
	CodeUnauthorized             ErrorCode = "unauthorized"
	CodeOrderNotFound            ErrorCode = "order_not_found"
	CodeTransientFailure         ErrorCode = "transient_failure"
	CodeBadRequest               ErrorCode = "bad_request"
)

// Error is a caller-visible validation or authorization failure. Field names
// the offending input when there is one, so clients can render an actionable
// message.
type Error struct {
	Code    ErrorCode
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, field, message string) *Error {
	return &Error{Code: code, Field: field, Message: message}
}

// AsDomain unwraps err into a *Error when it carries one.
func AsDomain(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsCode reports whether err is a domain error with the given code.
func IsCode(err error, code ErrorCode) bool {
	de, ok := AsDomain(err)
	return ok && de.Code == code
}

func errOrderNotFound() *Error {
	return newError(CodeOrderNotFound, "", "order not found")
}

func errOrderTerminal() *Error {
	return newError(CodeOrderTerminal, "", "order is cancelled and accepts no further changes")
}

func errUnauthorized(msg string) *Error {
	return newError(CodeUnauthorized, "", msg)
}
