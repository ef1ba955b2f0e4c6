package prompt

import (
	"github.com/beeper/recipe-ingest/pkg/aiprovider"
	"github.com/beeper/recipe-ingest/pkg/shared/stringutil"
)

// Turn is one message of a consultation history as sent by clients.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Consult builds a multi-turn assistant prompt. Only user and assistant turns are kept,
// at most MaxConsultTurns of them, and the newest turns win when the history exceeds
// MaxContextChars.
func (b *Builder) Consult(history []Turn) *aiprovider.Prompt {
	kept := make([]Turn, 0, len(history))
	for _, turn := range history {
		if turn.Role == string(aiprovider.RoleUser) || turn.Role == string(aiprovider.RoleAssistant) {
			kept = append(kept, turn)
		}
	}
	if len(kept) > MaxConsultTurns {
		kept = kept[len(kept)-MaxConsultTurns:]
	}

	budget := MaxContextChars
	start := len(kept)
	for start > 0 && budget > 0 {
		size := len([]rune(kept[start-1].Content))
		if size > budget {
			if start == len(kept) {
				kept[start-1].Content = stringutil.Truncate(kept[start-1].Content, budget)
				start--
			}
			break
		}
		budget -= size
		start--
	}
	kept = kept[start:]

	messages := make([]aiprovider.UnifiedMessage, 0, len(kept))
	for _, turn := range kept {
		messages = append(messages, aiprovider.NewTextMessage(aiprovider.MessageRole(turn.Role), turn.Content))
	}
	return &aiprovider.Prompt{System: b.assistantSystem(), Messages: messages}
}
