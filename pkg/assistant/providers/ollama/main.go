package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/presbrey/ollamafarm"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/assistant"
)

// OllamaProvider answers from whichever registered Ollama host is online.
type OllamaProvider struct {
	ollamafarm *ollamafarm.Farm
	opts       assistant.Options
}

var _ assistant.Responder = (*OllamaProvider)(nil)

func New(urls []string, opts assistant.Options, logger *Logger.Logger) (*OllamaProvider, error) {
	farm := ollamafarm.New()

	registered := 0
	for _, u := range urls {
		if err := farm.RegisterURL(u, nil); err != nil {
			logger.Warnf("ollama: skipping %s: %v", u, err)
			continue
		}
		registered++
	}
	if registered == 0 {
		return nil, fmt.Errorf("ollama: no usable hosts in %v", urls)
	}
	if opts.Model == "" {
		opts.Model = "llama3.1:8b-instruct"
	}

	return &OllamaProvider{
		ollamafarm: farm,
		opts:       opts,
	}, nil
}

func (o *OllamaProvider) Chat(
	ctx context.Context,
	req api.ChatRequest,
	fn api.ChatResponseFunc,
) error {
	ollama := o.ollamafarm.First(&ollamafarm.Where{Offline: false})
	if ollama != nil {
		return ollama.Client().Chat(ctx, &req, fn)
	}
	return fmt.Errorf("ollama: no host online for model %v", req.Model)
}

func (o *OllamaProvider) Respond(ctx context.Context, prompt, contextText string) (string, error) {
	stream := false
	req := api.ChatRequest{
		Model:    o.opts.Model,
		Messages: ConvertMsgs(assistant.NewAssistantInput(o.opts, prompt, contextText)),
		Stream:   &stream,
		Options:  map[string]interface{}{"num_predict": o.opts.MaxTokensOrDefault()},
	}

	var out strings.Builder
	err := o.Chat(ctx, req, func(cr api.ChatResponse) error {
		out.WriteString(cr.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return assistant.CleanReply(out.String())
}

func ConvertMsgs(msgs []assistant.AssistantMessage) []api.Message {
	converted := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		converted = append(converted, api.Message{
			Role:    string(msg.MsgRole),
			Content: msg.Content,
		})
	}
	return converted
}
