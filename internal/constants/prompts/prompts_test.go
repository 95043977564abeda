package prompts

import (
	"strings"
	"testing"
)

func TestCurrentPromptIsTrimmed(t *testing.T) {
	p := DEFAULT_PROMPT.GetCurrentPrompt()
	if p.Version != DEFAULT_PROMPT.CurrentVersion {
		t.Fatalf("current version mismatch: %v", p.Version)
	}
	text := p.Text()
	if text == "" || strings.HasPrefix(text, " ") || strings.Contains(text, "\t") {
		t.Errorf("prompt not normalised: %q", text)
	}
	if _, ok := DEFAULT_PROMPT.GetVersion(0.1); !ok {
		t.Errorf("expected version 0.1 to be kept")
	}
}
