package assistant

import "strings"

// ComposePrompt folds retrieved context into the user turn.
func ComposePrompt(prompt, contextText string) string {
	contextText = strings.TrimSpace(contextText)
	if contextText == "" {
		return prompt
	}
	var b strings.Builder
	b.WriteString("Relevant information:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nUser said: ")
	b.WriteString(prompt)
	return b.String()
}

// NewAssistantInput builds the system + user message pair sent to chat style providers.
func NewAssistantInput(opts Options, prompt, contextText string) []AssistantMessage {
	msgs := make([]AssistantMessage, 0, 2)
	if opts.SystemPrompt != "" {
		msgs = append(msgs, AssistantMessage{Content: opts.SystemPrompt, MsgRole: SYSTEM})
	}
	return append(msgs, AssistantMessage{Content: ComposePrompt(prompt, contextText), MsgRole: USER})
}

// CleanReply trims a provider reply and rejects empty output.
func CleanReply(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyReply
	}
	return s, nil
}
