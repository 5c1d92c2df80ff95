// Package pdberr has the error kinds shared by the structure, codec,
// alignment and reference code. Callers test with errors.Is against the
// sentinels, so
//
//	if errors.Is(err, pdberr.ErrNotFound) { ... }
//
// works whatever wrapping happened on the way up.
package pdberr

import (
	"errors"
	"fmt"
)

// Kind says which family an error belongs to.
type Kind byte

const (
	KindNotFound    Kind = iota + 1 // input file is missing
	KindData                        // malformed or incomplete input
	KindState                       // index model used inconsistently
	KindLookup                      // remote reference lookup failed
	KindConsistency                 // alignment strings disagree with input
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindData:
		return "data error"
	case KindState:
		return "state error"
	case KindLookup:
		return "lookup error"
	case KindConsistency:
		return "alignment consistency error"
	}
	return "unknown error"
}

// Error carries a kind, the operation that failed and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

var (
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrData        = &Error{Kind: KindData}
	ErrState       = &Error{Kind: KindState}
	ErrLookup      = &Error{Kind: KindLookup}
	ErrConsistency = &Error{Kind: KindConsistency}
)

// ErrMappingFailure is not raised by anything in the library. It is the
// value callers report when a run ends with chains that could not be
// matched to any reference.
var ErrMappingFailure = errors.New("mapping failure: unmatched protein chains")

func newf(k Kind, op, format string, a ...any) *Error {
	return &Error{Kind: k, Op: op, Msg: fmt.Sprintf(format, a...)}
}

// NotFound, Data, State, Lookup and Consistency build errors of their kind.
func NotFound(op, format string, a ...any) *Error { return newf(KindNotFound, op, format, a...) }
func Data(op, format string, a ...any) *Error     { return newf(KindData, op, format, a...) }
func State(op, format string, a ...any) *Error    { return newf(KindState, op, format, a...) }
func Lookup(op, format string, a ...any) *Error   { return newf(KindLookup, op, format, a...) }
func Consistency(op, format string, a ...any) *Error {
	return newf(KindConsistency, op, format, a...)
}

// Wrap attaches a cause to a new error of kind k.
func Wrap(k Kind, op string, err error) *Error {
	return &Error{Kind: k, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
