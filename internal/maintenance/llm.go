package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const estimatorSystemPrompt = "You are a service advisor estimating typical retail costs for routine automotive maintenance in the United States. Respond with strict JSON only."

// AnthropicMessager is the slice of the Anthropic client the estimator needs;
// tests substitute a fake.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicEstimator resolves costs for items missing from the deterministic
// table. It is an optional, non-authoritative collaborator: callers fall back
// to the fixed constant on any error.
type AnthropicEstimator struct {
	messages AnthropicMessager
}

func NewAnthropicEstimatorFromEnv() (*AnthropicEstimator, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicEstimator{messages: &c.Messages}, nil
}

func NewAnthropicEstimator(messages AnthropicMessager) *AnthropicEstimator {
	return &AnthropicEstimator{messages: messages}
}

type estimatePayload struct {
	Amount    float64 `json:"amount"`
	Rationale string  `json:"rationale"`
}

func (e *AnthropicEstimator) EstimateCost(ctx context.Context, label string, vehicle string) (Estimate, error) {
	prompt := fmt.Sprintf(
		"Estimate the typical retail cost in US dollars for the maintenance item %q on this vehicle: %s.\n\nRequired JSON schema:\n{\"amount\":\"number, dollars\",\"rationale\":\"string, one sentence\"}\n\nRespond with only valid JSON matching the schema.",
		label, vehicle,
	)
	resp, err := e.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.ModelClaudeSonnet4_20250514,
		MaxTokens:   512,
		System:      []anthropic.TextBlockParam{{Text: estimatorSystemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return Estimate{}, err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	raw := stripCodeFences(sb.String())
	var payload estimatePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Estimate{}, fmt.Errorf("estimator json parse: %w", err)
	}
	if payload.Amount <= 0 {
		return Estimate{}, fmt.Errorf("estimator returned non-positive amount %v", payload.Amount)
	}
	return Estimate{Amount: payload.Amount, Rationale: strings.TrimSpace(payload.Rationale)}, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
