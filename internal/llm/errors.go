package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrSystemPromptUnsupported indicates a system prompt was supplied to a
	// backend whose protocol has no system-role slot
	ErrSystemPromptUnsupported = errors.New("backend does not support system prompts")
)

// ErrorKind classifies a client failure so the containment policy can tell
// a caller contract violation apart from a runtime condition.
type ErrorKind int

const (
	// KindPrecondition is a caller contract violation. This is the only kind
	// that ever surfaces from Converse.
	KindPrecondition ErrorKind = iota

	// KindTransport is a failed round-trip: request build, connection,
	// non-2xx status, body read.
	KindTransport

	// KindEnvelope is a response that arrived but could not be unwrapped:
	// malformed JSON, empty choice list, missing text field.
	KindEnvelope

	// KindSafety is a generative result withheld by the provider: blocked
	// prompt, safety finish, empty candidate.
	KindSafety
)

func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindTransport:
		return "transport"
	case KindEnvelope:
		return "envelope"
	case KindSafety:
		return "safety"
	default:
		return "unknown"
	}
}

// Error is the internal error type shared by the backend clients. Transport,
// envelope and safety errors are contained inside Converse and only reach
// operators through logging; precondition errors are returned to the caller.
type Error struct {
	Kind ErrorKind
	Op   string // e.g. "openai.converse"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsPrecondition reports whether err is a caller contract violation.
func IsPrecondition(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindPrecondition
}
