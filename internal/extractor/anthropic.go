package extractor

import (
	"context"
	"encoding/json"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mmynk/billvault/internal/models"
)

const systemPrompt = "You read utility billing portal pages and answer with a single JSON object matching the schema you are given."

// AnthropicCompleter implements Completer with the Anthropic Messages API.
type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter creates a completer for one API key.
func NewAnthropicCompleter(apiKey, model string, maxTokens int64, opts ...option.RequestOption) *AnthropicCompleter {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicCompleter{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// AnthropicFactory returns a CompleterFactory for the given model settings.
// Extra options (a base URL for tests, say) are applied to every client.
func AnthropicFactory(model string, maxTokens int64, opts ...option.RequestOption) CompleterFactory {
	return func(apiKey string) Completer {
		return NewAnthropicCompleter(apiKey, model, maxTokens, opts...)
	}
}

// Complete sends the prompt with the schema appended to the system prompt and
// returns the text of the first content block.
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt + "\nSchema: " + string(schemaJSON)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm api call: %w", err)
	}

	if len(msg.Content) == 0 {
		return "", fmt.Errorf("%w: empty response", models.ErrExtractionFailed)
	}
	return msg.Content[0].Text, nil
}
