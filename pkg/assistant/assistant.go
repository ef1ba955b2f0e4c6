// Package assistant implements the free-form culinary assistant endpoints on top of
// the same model client the ingest pipeline uses.
package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/beeper/recipe-ingest/pkg/aiprovider"
	"github.com/beeper/recipe-ingest/pkg/ingest"
	"github.com/beeper/recipe-ingest/pkg/prompt"
	"github.com/beeper/recipe-ingest/pkg/recipe"
)

var (
	ErrEmptyMessage  = errors.New("message is empty")
	ErrNoIngredients = errors.New("at least one ingredient is required")
	ErrEmptyHistory  = errors.New("conversation has no user or assistant messages")
)

type Assistant struct {
	model   ingest.Completer
	prompts *prompt.Builder
}

func New(model ingest.Completer, prompts *prompt.Builder) *Assistant {
	if prompts == nil {
		prompts = &prompt.Builder{}
	}
	return &Assistant{model: model, prompts: prompts}
}

// Chat answers a single message. When the model is not configured the fixed
// not-configured message is returned as the answer.
func (a *Assistant) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}
	return a.reply(ctx, a.prompts.Chat(message))
}

// Consult answers the last turn of a multi-turn conversation.
func (a *Assistant) Consult(ctx context.Context, history []prompt.Turn) (string, error) {
	p := a.prompts.Consult(history)
	if len(p.Messages) == 0 {
		return "", ErrEmptyHistory
	}
	return a.reply(ctx, p)
}

// FromIngredients drafts a new recipe from a list of ingredients. The draft is not stored.
func (a *Assistant) FromIngredients(ctx context.Context, ingredients []string) (*recipe.ExtractedRecord, error) {
	hasAny := false
	for _, ingredient := range ingredients {
		if strings.TrimSpace(ingredient) != "" {
			hasAny = true
			break
		}
	}
	if !hasAny {
		return nil, ErrNoIngredients
	}
	return ingest.Analyze(ctx, a.model, a.prompts.FromIngredients(ingredients), "")
}

func (a *Assistant) reply(ctx context.Context, p *aiprovider.Prompt) (string, error) {
	resp, err := a.model.Complete(ctx, p)
	if aiprovider.IsUnconfigured(err) {
		return aiprovider.NotConfiguredMessage, nil
	} else if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("component", "assistant").Msg("Assistant request failed")
		return "", err
	}
	return strings.TrimSpace(resp.RawText), nil
}
