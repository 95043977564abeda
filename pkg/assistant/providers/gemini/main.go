package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/xpanvictor/parley/pkg/assistant"
	"google.golang.org/api/option"
)

// GeminiProvider answers with a Gemini generative model.
type GeminiProvider struct {
	client *genai.Client
	opts   assistant.Options
}

var _ assistant.Responder = (*GeminiProvider)(nil)

func New(ctx context.Context, apiKey string, opts assistant.Options) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
	}
	if opts.Model == "" {
		opts.Model = "gemini-1.5-flash-latest"
	}

	return &GeminiProvider{
		client: client,
		opts:   opts,
	}, nil
}

func (gp *GeminiProvider) GetModel() *genai.GenerativeModel {
	model := gp.client.GenerativeModel(gp.opts.Model)
	if gp.opts.SystemPrompt != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(gp.opts.SystemPrompt))
	}
	model.SetMaxOutputTokens(int32(gp.opts.MaxTokensOrDefault()))
	return model
}

func (gp *GeminiProvider) Respond(ctx context.Context, prompt, contextText string) (string, error) {
	resp, err := gp.GetModel().GenerateContent(ctx, genai.Text(assistant.ComposePrompt(prompt, contextText)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return assistant.CleanReply(ResponseText(resp))
}

// ResponseText joins the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func (gp *GeminiProvider) Close() error {
	return gp.client.Close()
}
