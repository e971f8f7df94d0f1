package ledger

import "fmt"

// FailureKind classifies an expected business outcome so callers branch on
// a discriminant instead of matching message text.
type FailureKind string

const (
	KindNone              FailureKind = ""
	KindNotFound          FailureKind = "not_found"
	KindValidation        FailureKind = "validation"
	KindStateConflict     FailureKind = "state_conflict"
	KindAlreadyApplied    FailureKind = "already_applied"
	KindSessionInactive   FailureKind = "session_inactive"
	KindInsufficientFunds FailureKind = "insufficient_funds"
	KindCrossSession      FailureKind = "cross_session"
)

// Result is the uniform envelope every engine operation returns. Business
// rejections arrive here as failures; only infrastructure faults surface as
// Go errors alongside it.
type Result struct {
	Success     bool
	Message     string
	Kind        FailureKind
	Transaction *Transaction
}

// Successful wraps a settled or recorded transaction.
func Successful(txn *Transaction, message string) Result {
	return Result{Success: true, Message: message, Transaction: txn}
}

// Failed wraps an expected rejection.
func Failed(kind FailureKind, message string) Result {
	return Result{Success: false, Kind: kind, Message: message}
}

// AlreadyApplied reports whether the failure means the one-time effect was
// performed before, which callers may treat as a benign no-op.
func (r Result) AlreadyApplied() bool {
	return r.Kind == KindAlreadyApplied
}

// failure travels as an error inside the atomic unit so a rejection both
// aborts the unit and carries its kind out.
type failure struct {
	kind    FailureKind
	message string
}

func (f *failure) Error() string { return f.message }

func fail(kind FailureKind, format string, args ...any) error {
	return &failure{kind: kind, message: fmt.Sprintf(format, args...)}
}
