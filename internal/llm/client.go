// Package llm unifies three incompatible conversational-model backends
// behind a single Converse contract: an OpenAI-style chat-completion
// service, a Gemini-style generative-content service, and a FastChat-style
// self-hosted completion server.
package llm

import "context"

// Request bundles the inputs of one Converse call. It is built fresh per
// call; nothing retains it.
type Request struct {
	// Query is the current, not-yet-answered user message.
	Query string

	// System is an optional instruction block preceding all turns. The
	// generative backend has no system-role slot and rejects a non-empty
	// System outright.
	System string

	// History holds the prior completed turns, oldest first.
	History History

	// Temperature and Stop are passed through to backends that honor them.
	// The self-hosted backend accepts them but samples with its own fixed
	// parameters.
	Temperature float64
	Stop        string
}

// Client is the unified conversation contract implemented by every backend.
//
// Converse issues exactly one outbound call, with no internal retry. Runtime
// failures — transport errors, malformed envelopes, missing fields, safety
// blocks — never surface to the caller: the response resolves to "" and the
// returned History still gains exactly one Turn, (Query, ""). Callers must
// treat an empty response as a legitimate outcome.
//
// The error is non-nil only for caller contract violations, such as a
// system prompt sent to a backend without system-role support. In that case
// the call never reached the backend and the History comes back unchanged.
type Client interface {
	Converse(ctx context.Context, req Request) (string, History, error)
}

// Verify that all backend clients implement Client
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*GeminiClient)(nil)
	_ Client = (*FastChatClient)(nil)
)
