package assistant

import (
	"context"
	"errors"
)

type Role string

const (
	USER      Role = "user"
	ASSISTANT Role = "assistant"
	SYSTEM    Role = "system"
)

type AssistantMessage struct {
	Content string
	MsgRole Role
}

// Responder produces one short spoken reply for a user utterance.
// contextText may be empty when retrieval found nothing.
type Responder interface {
	Respond(ctx context.Context, prompt, contextText string) (string, error)
}

// Options are shared by every provider.
type Options struct {
	Model        string
	SystemPrompt string
	MaxTokens    int
}

var ErrEmptyReply = errors.New("assistant: empty reply")

// MaxTokensOrDefault is the completion cap handed to a provider.
func (o Options) MaxTokensOrDefault() int {
	if o.MaxTokens <= 0 {
		return 150
	}
	return o.MaxTokens
}
