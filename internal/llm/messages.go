package llm

// chatMessage is one role-tagged entry in the chat-completion wire format.
type chatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// buildChatMessages flattens (query, system, history) into the
// chat-completion message list: an optional leading system entry, a
// user/assistant pair per completed turn, then the current query as the
// trailing user entry. History length is the caller's problem; nothing is
// truncated here.
func buildChatMessages(query, system string, history History) []chatMessage {
	msgs := make([]chatMessage, 0, 2*len(history)+2)
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	for _, turn := range history {
		msgs = append(msgs, chatMessage{Role: "user", Content: turn.Query})
		msgs = append(msgs, chatMessage{Role: "assistant", Content: turn.Response})
	}
	return append(msgs, chatMessage{Role: "user", Content: query})
}

// geminiContent is one entry in the generative backend's contents list.
// Each entry carries its text as a one-element parts list.
type geminiContent struct {
	Role  string       `json:"role"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// buildGeminiContents flattens (query, system, history) into the generative
// backend's role/parts list. The protocol has no system-role concept, so a
// non-empty system prompt fails the precondition instead of being dropped
// silently.
func buildGeminiContents(query, system string, history History) ([]geminiContent, error) {
	if system != "" {
		return nil, &Error{Kind: KindPrecondition, Op: "gemini.format", Err: ErrSystemPromptUnsupported}
	}
	contents := make([]geminiContent, 0, 2*len(history)+1)
	for _, turn := range history {
		contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: turn.Query}}})
		contents = append(contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: turn.Response}}})
	}
	return append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: query}}}), nil
}
