package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/xpanvictor/parley/pkg/assistant"
)

// AnthropicProvider answers with a Claude model through the official SDK.
type AnthropicProvider struct {
	client anthropic.Client
	opts   assistant.Options
}

var _ assistant.Responder = (*AnthropicProvider)(nil)

// New builds the provider. The model comes from config; there is no built-in default.
func New(apiKey string, opts assistant.Options, reqOpts ...option.RequestOption) (*AnthropicProvider, error) {
	if opts.Model == "" {
		return nil, fmt.Errorf("anthropic: model is not configured")
	}
	reqOpts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, reqOpts...)
	return &AnthropicProvider{
		client: anthropic.NewClient(reqOpts...),
		opts:   opts,
	}, nil
}

func (p *AnthropicProvider) Respond(ctx context.Context, prompt, contextText string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.opts.Model),
		MaxTokens: int64(p.opts.MaxTokensOrDefault()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(assistant.ComposePrompt(prompt, contextText))),
		},
	}
	if p.opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: p.opts.SystemPrompt},
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return assistant.CleanReply(b.String())
}
