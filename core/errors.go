package core

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every rejection surfaced by the core wraps one of
// these so callers can classify a failure with errors.Is without parsing
// messages, while the wrapped message still carries the specific reason.
var (
	// ErrStructural marks malformed serialization or an oversized
	// block/transaction. The offending message is discarded; the sending
	// peer is penalized by the (external) transport layer.
	ErrStructural = errors.New("structural error")

	// ErrCryptographic marks a signature that failed to verify or a
	// signing key whose index counter is exhausted.
	ErrCryptographic = errors.New("cryptographic error")

	// ErrConsensusRule marks a violation of a consensus invariant: spiral
	// bounds, wrong slot leader, state-root mismatch, broken continuity.
	// A slashing proof is emitted when the violation is attributable.
	ErrConsensusRule = errors.New("consensus rule violation")

	// ErrState marks insufficient balance, a nonce mismatch, or an
	// inactive validator. The rejection is sender-visible.
	ErrState = errors.New("state error")

	// ErrTransient marks a failure expected to clear on retry: an
	// unreachable peer, a stalled disk write. Handled by the caller's
	// bounded backoff, never surfaced as a rejection of the data itself.
	ErrTransient = errors.New("transient error")

	// ErrFatal marks data corruption or an invariant violation that
	// requires the node to halt and the operator to intervene.
	ErrFatal = errors.New("fatal error")
)

// WrapStructural, WrapCryptographic, WrapConsensusRule, WrapState,
// WrapTransient, and WrapFatal let callers outside the package (the RPC
// binding, the CLI) raise a classified rejection without reaching into the
// unexported kindError type.
func WrapStructural(msg string) error    { return wrap(ErrStructural, msg) }
func WrapCryptographic(msg string) error { return wrap(ErrCryptographic, msg) }
func WrapConsensusRule(msg string) error { return wrap(ErrConsensusRule, msg) }
func WrapState(msg string) error         { return wrap(ErrState, msg) }
func WrapTransient(msg string) error     { return wrap(ErrTransient, msg) }
func WrapFatal(msg string) error         { return wrap(ErrFatal, msg) }

// IsKind reports whether err was wrapped with wrap/wrapf against kind,
// letting callers outside the package classify a rejection without
// depending on kindError directly.
func IsKind(err error, kind error) bool { return errors.Is(err, kind) }

// wrap produces an error that both errors.Is(kind) and carries msg.
func wrap(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// wrapf is wrap with fmt.Sprintf-style formatting.
func wrapf(kind error, format string, args ...any) error {
	return wrap(kind, fmt.Sprintf(format, args...))
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }
