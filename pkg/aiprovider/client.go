package aiprovider

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
	"go.mau.fi/util/exhttp"

	"github.com/beeper/recipe-ingest/pkg/aierrors"
	"github.com/beeper/recipe-ingest/pkg/aitokens"
	"github.com/beeper/recipe-ingest/pkg/shared/media"
)

// Client sends prompts to an OpenAI-compatible chat completion endpoint (Gemini by default).
type Client struct {
	cfg    Config
	client openai.Client
	log    zerolog.Logger
}

func NewClient(cfg *Config, log zerolog.Logger) *Client {
	cfg = cfg.WithDefaults()
	log = log.With().Str("provider", "gemini").Str("model", cfg.Model).Logger()
	httpClient := exhttp.SensibleClientSettings.
		WithResponseHeaderTimeout(cfg.Timeout()).
		WithGlobalTimeout(cfg.Timeout()).
		Compile()
	c := &Client{cfg: *cfg, log: log}
	c.client = openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout()),
		option.WithMiddleware(makeRequestTraceMiddleware(log)),
	)
	return c
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete sends one prompt and returns the first choice's text. A missing API key
// fails with an unconfigured ModelError without any network activity.
func (c *Client) Complete(ctx context.Context, prompt *Prompt) (*Response, error) {
	if !c.Configured() {
		return nil, &ModelError{Kind: ErrorUnconfigured, Err: ErrNotConfigured}
	}
	log := contextLogger(ctx, &c.log)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		messages = append(messages, openai.SystemMessage(prompt.System))
	}
	messages = append(messages, toChatCompletionMessages(prompt.Messages, c.cfg.ImageDetail)...)

	params := openai.ChatCompletionNewParams{
		Model:    c.cfg.Model,
		Messages: messages,
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = openai.Float(c.cfg.Temperature)
	}
	if c.cfg.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.cfg.MaxCompletionTokens))
	}
	if c.cfg.EstimateTokens {
		if estimate, err := aitokens.EstimateTokens(messages, c.cfg.Model); err != nil {
			log.Debug().Err(err).Msg("Failed to estimate prompt tokens")
		} else {
			log.Debug().Int("estimated_tokens", estimate).Msg("Estimated prompt size")
		}
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		reason := aierrors.Classify(err)
		log.Warn().Err(err).Str("reason", string(reason)).Msg("Model request failed")
		return nil, &ModelError{Kind: ErrorUpstream, Reason: reason, Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &ModelError{Kind: ErrorUpstream, Reason: aierrors.ReasonUnknown, Err: ErrEmptyResponse}
	}
	choice := completion.Choices[0]
	resp := &Response{
		RawText:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Model:        completion.Model,
		Usage: UsageInfo{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}
	log.Debug().
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Int("total_tokens", resp.Usage.TotalTokens).
		Str("finish_reason", resp.FinishReason).
		Msg("Model request completed")
	return resp, nil
}

func toChatCompletionMessages(messages []UnifiedMessage, defaultDetail string) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			result = append(result, openai.SystemMessage(msg.Text()))
		case RoleUser:
			if msg.ImageCount() > 0 {
				result = append(result, openai.ChatCompletionMessageParamUnion{
					OfUser: &openai.ChatCompletionUserMessageParam{
						Content: openai.ChatCompletionUserMessageParamContentUnion{
							OfArrayOfContentParts: toChatCompletionContentParts(msg.Content, defaultDetail),
						},
					},
				})
			} else {
				result = append(result, openai.UserMessage(msg.Text()))
			}
		case RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Text()))
		}
	}
	return result
}

func toChatCompletionContentParts(parts []ContentPart, defaultDetail string) []openai.ChatCompletionContentPartUnionParam {
	result := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ContentTypeText:
			if strings.TrimSpace(part.Text) == "" {
				continue
			}
			result = append(result, openai.ChatCompletionContentPartUnionParam{
				OfText: &openai.ChatCompletionContentPartTextParam{Text: part.Text},
			})
		case ContentTypeImage:
			if len(part.ImageData) == 0 {
				continue
			}
			detail := part.Detail
			if detail == "" {
				detail = defaultDetail
			}
			result = append(result, openai.ChatCompletionContentPartUnionParam{
				OfImageURL: &openai.ChatCompletionContentPartImageParam{
					ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
						URL:    media.BuildDataURL(part.MimeType, part.ImageData),
						Detail: detail,
					},
				},
			})
		}
	}
	return result
}
