package generate

import (
	"context"
	"fmt"
	"strings"

	llmsdk "github.com/hoangvvo/llm-sdk/sdk-go"
)

// Completer is the opaque text-completion capability the pipeline may
// use to enrich generated content. A nil Completer disables enrichment.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelCompleter adapts a language model to the Completer interface.
type ModelCompleter struct {
	model llmsdk.LanguageModel
}

// NewModelCompleter wraps a language model as a Completer.
func NewModelCompleter(model llmsdk.LanguageModel) *ModelCompleter {
	return &ModelCompleter{model: model}
}

func (c *ModelCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	maxTokens := uint32(512)
	resp, err := c.model.Generate(ctx, &llmsdk.LanguageModelInput{
		Messages:  []llmsdk.Message{llmsdk.NewUserMessage(llmsdk.NewTextPart(prompt))},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completing text: %w", err)
	}
	var b strings.Builder
	for _, part := range resp.Content {
		if part.TextPart != nil {
			b.WriteString(part.TextPart.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func businessPrompt(description string) string {
	return "Summarize the likely core features of a software project with this description, " +
		"as a short markdown bullet list. Reply with the bullets only.\n\n" + description
}
