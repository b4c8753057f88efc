// Package errors defines the error taxonomy shared by every layer of the pilot API.
// Errors carry a Kind, used by the API surface to build the failure envelope and by
// the command line client to pick an exit code, and a Reason naming the precise cause.
package errors

import (
	"fmt"
	"regexp"
)

type Kind int

const (
	// An unambiguous 0-value, used for errors that did not originate here.
	UnknownKind Kind = iota
	AuthKind
	ConflictKind
	NotFoundKind
	NotReadyKind
	ValidationKind
	UpstreamKind
)

func (k Kind) String() string {
	switch k {
	case AuthKind:
		return "AuthError"
	case ConflictKind:
		return "ConflictError"
	case NotFoundKind:
		return "NotFoundError"
	case NotReadyKind:
		return "NotReadyError"
	case ValidationKind:
		return "ValidationError"
	case UpstreamKind:
		return "UpstreamError"
	default:
		return "InternalError"
	}
}

type Reason string

const (
	UnknownIdentity    Reason = "UnknownIdentity"
	BadCredential      Reason = "BadCredential"
	Unauthenticated    Reason = "Unauthenticated"
	SessionExists      Reason = "SessionExists"
	SessionUnknown     Reason = "SessionUnknown"
	UnknownPilot       Reason = "UnknownPilot"
	UnknownTask        Reason = "UnknownTask"
	OutputNotStaged    Reason = "OutputNotStaged"
	NoTasks            Reason = "NoTasks"
	WorkManagerDrained Reason = "WorkManagerDrained"
	BadRequest         Reason = "BadRequest"
	EngineFailure      Reason = "EngineFailure"
	ConnectionLost     Reason = "ConnectionLost"
	Throttled          Reason = "Throttled"
)

// Error is a classified error. Err, when set, is the underlying cause.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	return fmt.Sprintf("%s(%s): %s", e.Kind, e.Reason, msg)
}

// Cause lets pkg/errors.Cause unwrap to the underlying error.
func (e *Error) Cause() error {
	return e.Err
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(k Kind, r Reason, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Reason: r, Message: fmt.Sprintf(format, args...)}
}

func Auth(r Reason, format string, args ...interface{}) error {
	return newError(AuthKind, r, format, args...)
}

func Conflict(r Reason, format string, args ...interface{}) error {
	return newError(ConflictKind, r, format, args...)
}

func NotFound(r Reason, format string, args ...interface{}) error {
	return newError(NotFoundKind, r, format, args...)
}

func NotReady(r Reason, format string, args ...interface{}) error {
	return newError(NotReadyKind, r, format, args...)
}

func Validation(r Reason, format string, args ...interface{}) error {
	return newError(ValidationKind, r, format, args...)
}

// Upstream wraps an error returned by the orchestration engine.
func Upstream(r Reason, err error, format string, args ...interface{}) error {
	e := newError(UpstreamKind, r, format, args...)
	e.Err = err
	return e
}

// KindOf returns the Kind of the first classified error in err's cause chain.
func KindOf(err error) Kind {
	if e := find(err); e != nil {
		return e.Kind
	}
	return UnknownKind
}

// ReasonOf returns the Reason of the first classified error in err's cause chain.
func ReasonOf(err error) Reason {
	if e := find(err); e != nil {
		return e.Reason
	}
	return ""
}

func Is(err error, k Kind) bool {
	return KindOf(err) == k
}

func find(err error) *Error {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e
		}
		switch c := err.(type) {
		case interface{ Cause() error }:
			err = c.Cause()
		case interface{ Unwrap() error }:
			err = c.Unwrap()
		default:
			return nil
		}
	}
	return nil
}

var rendered = regexp.MustCompile(`(?s)^(\w+)\((\w*)\): (.*)$`)

// Parse turns the output of (*Error).Error back into an *Error, as done by
// clients reading the error of a failure envelope. The underlying cause is
// folded into Message. Strings of another shape yield an error of UnknownKind.
func Parse(s string) error {
	m := rendered.FindStringSubmatch(s)
	if m == nil {
		return &Error{Kind: UnknownKind, Message: s}
	}
	for k := AuthKind; k <= UpstreamKind; k++ {
		if k.String() == m[1] {
			return &Error{Kind: k, Reason: Reason(m[2]), Message: m[3]}
		}
	}
	return &Error{Kind: UnknownKind, Reason: Reason(m[2]), Message: m[3]}
}
