package assistant

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIAssistant struct {
	client openai.Client
	opts   Options
}

// Respond implements Responder with a single chat completion.
func (o openAIAssistant) Respond(ctx context.Context, prompt, contextText string) (string, error) {
	input := NewAssistantInput(o.opts, prompt, contextText)
	convertedMsgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		convertedMsgs = append(convertedMsgs, convertToOpenaiMsg(msg))
	}

	chatCompletion, err := o.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages:            convertedMsgs,
			Model:               o.opts.Model,
			MaxCompletionTokens: openai.Int(int64(o.opts.MaxTokensOrDefault())),
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return CleanReply(chatCompletion.Choices[0].Message.Content)
}

func convertToOpenaiMsg(msg AssistantMessage) openai.ChatCompletionMessageParamUnion {
	switch msg.MsgRole {
	case ASSISTANT:
		return openai.AssistantMessage(msg.Content)
	case SYSTEM:
		return openai.SystemMessage(msg.Content)
	}
	return openai.UserMessage(msg.Content)
}

// NewOpenAIResponder builds a Responder backed by OpenAI chat completions.
func NewOpenAIResponder(opts Options, reqOpts ...option.RequestOption) Responder {
	if opts.Model == "" {
		opts.Model = openai.ChatModelGPT4oMini
	}
	return openAIAssistant{
		client: openai.NewClient(reqOpts...),
		opts:   opts,
	}
}
