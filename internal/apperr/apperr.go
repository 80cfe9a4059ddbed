package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable category for application errors.
type Kind string

const (
	// Stable kinds you can switch/branch on across packages.
	InvalidInput Kind = "invalid_input" // malformed version, negative counter, unknown platform
	NotFound     Kind = "not_found"     // missing state or config
	Conflict     Kind = "conflict"      // tag already exists, newer tag present
	Precondition Kind = "precondition_failed"
	Timeout      Kind = "timeout"
	Unavailable  Kind = "unavailable" // remote unreachable during push
	External     Kind = "external"    // wrapped build command or sops failed
	Internal     Kind = "internal"    // programmer bug, invariant broken
)

// E is a rich, chainable error.
type E struct {
	Op   string // where it happened, e.g. "state.Store.Load"
	Kind Kind   // category
	Err  error  // wrapped cause
	Msg  string // optional, short context message
}

func (e *E) Error() string {
	base := e.Msg
	if base == "" && e.Err != nil {
		base = e.Err.Error()
	}
	if e.Op != "" && base != "" {
		return fmt.Sprintf("%s: %s", e.Op, base)
	}
	if e.Op != "" {
		return e.Op
	}
	return base
}

func (e *E) Unwrap() error { return e.Err }

// Wrap creates an E that wraps the provided error with operation, kind, and message.
func Wrap(op string, kind Kind, err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	return &E{Op: op, Kind: kind, Err: err, Msg: fmt.Sprintf(msg, args...)}
}

// New creates a new E with no wrapped cause.
func New(op string, kind Kind, msg string, args ...any) error {
	return &E{Op: op, Kind: kind, Msg: fmt.Sprintf(msg, args...)}
}

// IsKind reports whether the outermost *E in the chain has the provided Kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// KindOf returns the kind of the outermost *E in the chain, or "" when the
// chain carries none.
func KindOf(err error) Kind {
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ExitCode maps an error to the process exit status used by the CLI.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case InvalidInput:
		return 2
	case NotFound:
		return 3
	case Unavailable, Timeout:
		return 69
	case External:
		return 70
	default:
		return 1
	}
}
