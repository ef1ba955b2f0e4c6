package aitokens

import (
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// Token overhead per chat message.
	tokensPerMessage = 3
	// Flat cost of a low-detail image part.
	tokensPerLowDetailImage = 85
	fallbackEncoding        = "cl100k_base"
)

var (
	tokenizerCache   = make(map[string]*tiktoken.Tiktoken)
	tokenizerCacheMu sync.RWMutex
)

// GetTokenizer returns a cached tiktoken encoder for the given model.
// Models unknown to tiktoken (Gemini included) share the cl100k_base encoding.
func GetTokenizer(model string) (*tiktoken.Tiktoken, error) {
	tokenizerCacheMu.RLock()
	if tkm, ok := tokenizerCache[model]; ok {
		tokenizerCacheMu.RUnlock()
		return tkm, nil
	}
	tokenizerCacheMu.RUnlock()

	tokenizerCacheMu.Lock()
	defer tokenizerCacheMu.Unlock()

	if tkm, ok := tokenizerCache[model]; ok {
		return tkm, nil
	}

	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}

	tokenizerCache[model] = tkm
	return tkm, nil
}

// EstimateTokens gives a rough prompt size for a list of chat messages.
func EstimateTokens(messages []openai.ChatCompletionMessageParamUnion, model string) (int, error) {
	tkm, err := GetTokenizer(model)
	if err != nil {
		return 0, err
	}

	numTokens := 0
	for _, msg := range messages {
		numTokens += tokensPerMessage
		content, role, images := messageContent(msg)
		numTokens += len(tkm.Encode(content, nil, nil))
		numTokens += len(tkm.Encode(role, nil, nil))
		numTokens += images * tokensPerLowDetailImage
	}
	numTokens += 3 // reply priming

	return numTokens, nil
}

func messageContent(msg openai.ChatCompletionMessageParamUnion) (content, role string, images int) {
	switch {
	case msg.OfSystem != nil:
		role = "system"
		if msg.OfSystem.Content.OfString.Value != "" {
			return msg.OfSystem.Content.OfString.Value, role, 0
		}
		var sb strings.Builder
		for _, part := range msg.OfSystem.Content.OfArrayOfContentParts {
			sb.WriteString(part.Text)
		}
		return sb.String(), role, 0
	case msg.OfUser != nil:
		role = "user"
		if msg.OfUser.Content.OfString.Value != "" {
			return msg.OfUser.Content.OfString.Value, role, 0
		}
		var sb strings.Builder
		for _, part := range msg.OfUser.Content.OfArrayOfContentParts {
			switch {
			case part.OfText != nil:
				sb.WriteString(part.OfText.Text)
			case part.OfImageURL != nil:
				images++
			}
		}
		return sb.String(), role, images
	case msg.OfAssistant != nil:
		role = "assistant"
		if msg.OfAssistant.Content.OfString.Value != "" {
			return msg.OfAssistant.Content.OfString.Value, role, 0
		}
		var sb strings.Builder
		for _, part := range msg.OfAssistant.Content.OfArrayOfContentParts {
			if part.OfText != nil {
				sb.WriteString(part.OfText.Text)
			}
		}
		return sb.String(), role, 0
	}
	return "", "", 0
}
