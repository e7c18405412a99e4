package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"google.golang.org/api/option"

	"retentionflow-backend/retention"
)

// Rewriter turns a prompt into rewritten text.
type Rewriter interface {
	Rewrite(ctx context.Context, system, prompt string) (string, error)
}

// GeminiRewriter implements Rewriter using Google's Gemini API.
type GeminiRewriter struct {
	client  *genai.Client
	modelID string
}

func NewGeminiRewriter(ctx context.Context, apiKey, modelID string) (*GeminiRewriter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrRewriterUnavailable
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiRewriter{client: client, modelID: modelID}, nil
}

func (g *GeminiRewriter) Rewrite(ctx context.Context, system, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0.7)
	model.SetMaxOutputTokens(500)
	model.SystemInstruction = genai.NewUserContent(genai.Text(system))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini rewrite failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return strings.TrimSpace(text.String()), nil
}

func (g *GeminiRewriter) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// PersonaliseResult keeps the field names the template editor expects.
type PersonaliseResult struct {
	Success            bool     `json:"success"`
	ImprovedMessage    string   `json:"improvedMessage"`
	PreservedVariables []string `json:"preservedVariables"`
	MissingVariables   []string `json:"missingVariables,omitempty"`
	Error              string   `json:"error,omitempty"`
}

var ErrEmptyRewrite = errors.New("failed to generate improved message")

const personaliseSystemPrompt = `You improve customer service messages for a beauty salon.
Make the message more personal, warm and engaging while keeping every template variable exactly as written in {{variable_name}} format.

Rules:
1. Keep ALL template variables exactly as they appear, for example {{name}}, {{service_type}}, {{stylist}}, {{days}}.
2. Do not replace, translate or remove any template variable.
3. Keep the same general structure and meaning.
4. Use emojis sparingly.
5. Return only the improved message.`

// Personalizer rewrites message templates and refuses any rewrite that
// loses a placeholder.
type Personalizer struct {
	rewriter Rewriter
}

// NewPersonalizer accepts a nil rewriter; Personalise then reports
// ErrRewriterUnavailable.
func NewPersonalizer(rewriter Rewriter) *Personalizer {
	return &Personalizer{rewriter: rewriter}
}

func (p *Personalizer) Personalise(ctx context.Context, template string, variables map[string]any) (*PersonaliseResult, error) {
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("%w: template is required and must be a string", ErrValidation)
	}
	if p.rewriter == nil {
		return nil, ErrRewriterUnavailable
	}

	names := retention.ExtractVariables(template)
	improved, err := p.rewriter.Rewrite(ctx, personaliseSystemPrompt, buildPrompt(template, names, variables))
	if err != nil {
		return nil, err
	}
	if improved == "" {
		return nil, ErrEmptyRewrite
	}

	missing := retention.MissingVariables(names, improved)
	preserved := lo.Without(names, missing...)
	if preserved == nil {
		preserved = []string{}
	}
	if len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("Rewrite dropped template variables, keeping original")
		return &PersonaliseResult{
			Success:            false,
			Error:              "AI response removed required variables: " + strings.Join(missing, ", "),
			ImprovedMessage:    template,
			PreservedVariables: preserved,
			MissingVariables:   missing,
		}, nil
	}
	return &PersonaliseResult{
		Success:            true,
		ImprovedMessage:    improved,
		PreservedVariables: preserved,
	}, nil
}

func buildPrompt(template string, names []string, variables map[string]any) string {
	var b strings.Builder
	b.WriteString("Improve this message template while keeping all variables intact:\n\n")
	b.WriteString(template)
	b.WriteString("\n\nVariables to preserve: ")
	b.WriteString(strings.Join(names, ", "))
	if len(variables) > 0 {
		keys := lo.Keys(variables)
		sort.Strings(keys)
		b.WriteString("\n\nExample values, for tone only:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n- %s: %v", k, variables[k])
		}
	}
	b.WriteString("\n\nReturn only the improved message with all variables preserved in {{variable_name}} format.")
	return b.String()
}
