// errors.go - Error taxonomy for coordinated actions
//
// Every failure is tagged with a stable Kind so handlers map it to an HTTP
// status without inspecting messages, and carries the transaction hash
// whenever one was submitted - including indeterminate and failure paths.

package coordinator

import (
	"errors"
	"fmt"
	"net/http"

	"go-voting-backend/ledger"
)

// Kind is a stable, user-visible error class.
type Kind string

const (
	KindValidation    Kind = "validation_error"       // bad input, nothing submitted
	KindAuthorization Kind = "authorization_error"    // role/ownership mismatch
	KindNotFound      Kind = "not_found"              // referenced record missing
	KindConflict      Kind = "conflict"               // local invariant already holds
	KindWrongPhase    Kind = "wrong_phase"            // ledger phase precondition failed
	KindSubmitFailed  Kind = "ledger_submit_failed"   // pre-submission failure, no side effects
	KindUnreachable   Kind = "ledger_unreachable"     // node not reachable, no side effects
	KindRejected      Kind = "ledger_rejected"        // executed and reverted; authoritative no
	KindIndeterminate Kind = "indeterminate_outcome"  // receipt timeout; outcome unknown
	KindMirrorApply   Kind = "mirror_apply_failed"    // ledger succeeded, local write failed
	KindInternal      Kind = "internal_error"
)

// Error is the tagged result of a failed coordinated action.
type Error struct {
	Kind    Kind
	Message string
	TxHash  string // set whenever a transaction was submitted
	Reason  ledger.Reason
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to the response status used by handlers.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindWrongPhase, KindRejected:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnreachable:
		return http.StatusServiceUnavailable
	case KindSubmitFailed:
		return http.StatusBadGateway
	case KindIndeterminate:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func validationErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func authzErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func notFoundErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflictErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func internalErr(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// submitErr classifies a pre-submission ledger failure. No local state has
// changed and no transaction exists, so these are fully recoverable.
func submitErr(err error) *Error {
	kind := KindSubmitFailed
	if errors.Is(err, ledger.ErrUnreachable) {
		kind = KindUnreachable
	}
	return &Error{Kind: kind, Message: "failed to submit transaction to the ledger", Err: err}
}

// ledgerReadErr classifies a failed read-only ledger call.
func ledgerReadErr(err error) *Error {
	kind := KindInternal
	if errors.Is(err, ledger.ErrUnreachable) {
		kind = KindUnreachable
	}
	return &Error{Kind: kind, Message: "failed to read contract state from the ledger", Err: err}
}

// awaitErr classifies a receipt-wait failure. A timeout means the outcome is
// unknown: the hash is surfaced so an operator can reconcile later.
func awaitErr(err error, txHash string) *Error {
	if errors.Is(err, ledger.ErrTimeout) {
		return &Error{
			Kind:    KindIndeterminate,
			Message: "transaction outcome unknown: receipt wait timed out",
			TxHash:  txHash,
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindIndeterminate,
		Message: "transaction outcome unknown: receipt wait failed",
		TxHash:  txHash,
		Err:     err,
	}
}

// rejectedErr wraps an authoritative on-chain revert with a user-facing
// message for recognized reasons.
func rejectedErr(rcpt *ledger.Receipt) *Error {
	msg := "transaction reverted on the ledger"
	switch rcpt.Reason {
	case ledger.ReasonAlreadyVoted:
		msg = "you have already voted"
	case ledger.ReasonVotingNotActive:
		msg = "voting is not currently active"
	case ledger.ReasonNotRegistered:
		msg = "voter is not registered on the ledger"
	case ledger.ReasonAlreadyRegistered:
		msg = "voter is already registered on the ledger"
	case ledger.ReasonNoVoteToRevoke:
		msg = "no vote to revoke on the ledger"
	default:
		if rcpt.RevertReason != "" {
			msg = "transaction reverted: " + rcpt.RevertReason
		}
	}
	return &Error{Kind: KindRejected, Message: msg, TxHash: rcpt.TxHash.Hex(), Reason: rcpt.Reason}
}

// mirrorErr reports a detected inconsistency: the ledger confirmed the
// transaction but the local mirror could not be updated. Reconciliation is
// manual; the hash is the operator's handle.
func mirrorErr(err error, txHash string) *Error {
	return &Error{
		Kind:    KindMirrorApply,
		Message: "ledger transaction confirmed but local record update failed; manual reconciliation required",
		TxHash:  txHash,
		Err:     err,
	}
}
