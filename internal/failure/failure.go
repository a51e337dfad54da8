// Package failure classifies pipeline errors as either degraded (the caller
// received a usable fallback value and may continue) or fatal (the run must
// stop without writing output).
package failure

import (
	"errors"
	"fmt"
)

// Severity discriminates how a caller must treat an error.
type Severity int

const (
	// Degraded means a safe default was substituted and work can continue.
	Degraded Severity = iota + 1
	// Fatal means the run must abort.
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Degraded:
		return "degraded"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error carries a severity alongside the failing operation.
type Error struct {
	Severity Severity
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Degradedf wraps err as a degraded failure of op. A nil err yields nil.
func Degradedf(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Severity: Degraded, Op: op, Err: err}
}

// Fatalf wraps err as a fatal failure of op. A nil err yields nil.
func Fatalf(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Severity: Fatal, Op: op, Err: err}
}

// SeverityOf reports the severity of err. Errors that were never classified
// are treated as fatal so they cannot be silently ignored.
func SeverityOf(err error) Severity {
	if err == nil {
		return 0
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Severity
	}
	return Fatal
}

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	return SeverityOf(err) == Fatal
}

// IsDegraded reports whether err was absorbed with a fallback value.
func IsDegraded(err error) bool {
	return SeverityOf(err) == Degraded
}

// Join combines errs as a degraded failure of op, dropping nils. Plain
// errors count as degraded here; the result is fatal only when one of the
// inputs was explicitly classified fatal.
func Join(op string, errs ...error) error {
	var kept []error
	severity := Degraded
	for _, err := range errs {
		if err == nil {
			continue
		}
		var fe *Error
		if errors.As(err, &fe) && fe.Severity == Fatal {
			severity = Fatal
		}
		kept = append(kept, err)
	}
	if len(kept) == 0 {
		return nil
	}
	return &Error{Severity: severity, Op: op, Err: errors.Join(kept...)}
}
