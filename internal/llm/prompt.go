package llm

import "strings"

// The self-hosted completion server takes a single flattened prompt string.
// Three templating dialects exist, matching how the served model was
// trained; the right one is picked by a case-sensitive substring match on
// the model id, baichuan before qwen, with the User:/Assistant template as
// the fallback.

// promptForModel builds the flattened prompt for the given model id.
func promptForModel(model, query, system string, history History) string {
	switch {
	case strings.Contains(model, "baichuan"):
		return buildBaichuanPrompt(query, system, history)
	case strings.Contains(model, "qwen"):
		return buildQwenPrompt(query, system, history)
	default:
		return buildDefaultPrompt(query, system, history)
	}
}

// buildDefaultPrompt wraps each turn in User:/Assistant delimiters, with
// the system text emitted once ahead of the first turn. The unanswered
// query rides along as a synthetic final turn with an empty response.
// "Assistant" carries no colon; the serving template expects exactly this
// shape.
func buildDefaultPrompt(query, system string, history History) string {
	var b strings.Builder
	for i, turn := range Append(history, query, "") {
		if i == 0 {
			b.WriteString(system)
		}
		b.WriteString("User:")
		b.WriteString(turn.Query)
		b.WriteString("\nAssistant")
		b.WriteString(turn.Response)
		b.WriteString("\n")
	}
	return b.String()
}

// buildBaichuanPrompt uses the baichuan reserved-token delimiters:
// <reserved_106> marks the user text, <reserved_107> the assistant text.
func buildBaichuanPrompt(query, system string, history History) string {
	var b strings.Builder
	for i, turn := range Append(history, query, "") {
		if i == 0 {
			b.WriteString(system)
		}
		b.WriteString("<reserved_106>")
		b.WriteString(turn.Query)
		b.WriteString("<reserved_107>")
		b.WriteString(turn.Response)
	}
	return b.String()
}

// buildQwenPrompt uses the qwen chat-template tags. The system text is
// wrapped in its own tag pair at the very top, emitted even when empty, and
// each turn gets a user block and an assistant block.
func buildQwenPrompt(query, system string, history History) string {
	var b strings.Builder
	for i, turn := range Append(history, query, "") {
		if i == 0 {
			b.WriteString("<|im_start|>")
			b.WriteString(system)
			b.WriteString("<|im_end|>\n")
		}
		b.WriteString("<|im_start|>user\n")
		b.WriteString(turn.Query)
		b.WriteString("<|im_end|>\n<|im_start|>assistant\n")
		b.WriteString(turn.Response)
		b.WriteString("<|im_end|>\n")
	}
	return b.String()
}
