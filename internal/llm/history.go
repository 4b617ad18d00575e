package llm

// Turn is one completed exchange: the caller's query and the backend's
// response text. An empty response is a valid Turn; degraded calls record
// one.
type Turn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// History is an ordered sequence of Turns, oldest first. It never holds the
// in-flight turn: a query joins the History only once its call has resolved,
// successfully or not.
type History []Turn

// Append returns a new History equal to h with (query, response) added at
// the end. The input is never mutated, so callers may share one History
// value across goroutines and thread the returned value forward.
func Append(h History, query, response string) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, Turn{Query: query, Response: response})
}
