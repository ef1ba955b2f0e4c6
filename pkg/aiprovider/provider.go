package aiprovider

import "strings"

// MessageRole represents the role of a message sender
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ContentPartType identifies the type of content in a message
type ContentPartType string

const (
	ContentTypeText  ContentPartType = "text"
	ContentTypeImage ContentPartType = "image"
)

// ContentPart is a single piece of message content, either text or an inline image.
type ContentPart struct {
	Type      ContentPartType
	Text      string
	ImageData []byte
	MimeType  string
	// Detail is passed through to the provider's image detail setting ("low", "high", "auto").
	Detail string
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentTypeText, Text: text}
}

func ImagePart(data []byte, mimeType, detail string) ContentPart {
	return ContentPart{Type: ContentTypeImage, ImageData: data, MimeType: mimeType, Detail: detail}
}

// UnifiedMessage is a provider-agnostic message format
type UnifiedMessage struct {
	Role    MessageRole
	Content []ContentPart
}

// NewTextMessage creates a simple text message
func NewTextMessage(role MessageRole, text string) UnifiedMessage {
	return UnifiedMessage{Role: role, Content: []ContentPart{TextPart(text)}}
}

// Text returns the text content of a message (concatenating all text parts)
func (m *UnifiedMessage) Text() string {
	var texts []string
	for _, part := range m.Content {
		if part.Type == ContentTypeText {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ImageCount returns the number of image parts in the message
func (m *UnifiedMessage) ImageCount() int {
	count := 0
	for _, part := range m.Content {
		if part.Type == ContentTypeImage {
			count++
		}
	}
	return count
}

// Prompt is one complete model request: system instructions plus the conversation.
type Prompt struct {
	System   string
	Messages []UnifiedMessage
}

// TextLength returns the number of characters of text in the prompt, excluding images.
func (p *Prompt) TextLength() int {
	total := len([]rune(p.System))
	for i := range p.Messages {
		total += len([]rune(p.Messages[i].Text()))
	}
	return total
}

// Response contains the result of a completion
type Response struct {
	RawText      string
	FinishReason string
	Model        string
	Usage        UsageInfo
}

// UsageInfo contains token usage information
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
