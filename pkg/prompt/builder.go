package prompt

import (
	"fmt"
	"strings"

	"github.com/beeper/recipe-ingest/pkg/aiprovider"
	"github.com/beeper/recipe-ingest/pkg/fetch"
	"github.com/beeper/recipe-ingest/pkg/shared/stringutil"
)

const (
	DefaultLanguage = "English"

	MaxPageBodyChars = 8_000
	MaxContextChars  = 20_000
	MaxConsultTurns  = 20
)

const recipeSchema = `Return only a single JSON object with the fields title (string), description (string), ` +
	`ingredients (array of objects with name, amount and unit), steps (array of strings), tags (array of strings), ` +
	`imageUrl (string or null) and webUrl (string or null). Do not add commentary outside the JSON object.`

// Builder assembles model prompts for recipe extraction and the culinary assistant.
type Builder struct {
	Language string
}

func (b *Builder) language() string {
	if b == nil || strings.TrimSpace(b.Language) == "" {
		return DefaultLanguage
	}
	return b.Language
}

func (b *Builder) extractionSystem(source string) string {
	return fmt.Sprintf("You are a helpful culinary assistant for a recipe application. "+
		"Your task is to read %s and extract the recipe it describes. %s Write all text values in %s.",
		source, recipeSchema, b.language())
}

// PageExtraction builds the extraction prompt for a scraped web page.
func (b *Builder) PageExtraction(content *fetch.ScrapedContent) *aiprovider.Prompt {
	var text strings.Builder
	fmt.Fprintf(&text, "Source URL: %s\n", content.SourceURL)
	if content.PageTitle != "" {
		fmt.Fprintf(&text, "Page title: %s\n", content.PageTitle)
	}
	text.WriteString("\nPage content:\n")
	text.WriteString(stringutil.Truncate(content.BodyText, MaxPageBodyChars))
	return &aiprovider.Prompt{
		System:   b.extractionSystem("the text content of a web page"),
		Messages: []aiprovider.UnifiedMessage{aiprovider.NewTextMessage(aiprovider.RoleUser, text.String())},
	}
}

// VideoExtraction builds the extraction prompt for a video. Frames are attached as
// low-detail JPEG images in the given order; with no frames the prompt is text-only.
func (b *Builder) VideoExtraction(videoURL string, frames [][]byte) *aiprovider.Prompt {
	directive := fmt.Sprintf("Extract the recipe from the cooking video at %s.", videoURL)
	if len(frames) > 0 {
		directive += fmt.Sprintf(" The %d images below are frames sampled evenly across the video, in order.", len(frames))
	}
	parts := make([]aiprovider.ContentPart, 0, len(frames)+1)
	parts = append(parts, aiprovider.TextPart(directive))
	for _, frame := range frames {
		parts = append(parts, aiprovider.ImagePart(frame, "image/jpeg", "low"))
	}
	return &aiprovider.Prompt{
		System:   b.extractionSystem("a cooking video"),
		Messages: []aiprovider.UnifiedMessage{{Role: aiprovider.RoleUser, Content: parts}},
	}
}

func (b *Builder) assistantSystem() string {
	return fmt.Sprintf("You are a helpful culinary assistant for a recipe application. "+
		"Answer questions about cooking, ingredients, techniques and meal planning concisely. Reply in %s.", b.language())
}

// Chat builds a single-message assistant prompt.
func (b *Builder) Chat(message string) *aiprovider.Prompt {
	return &aiprovider.Prompt{
		System: b.assistantSystem(),
		Messages: []aiprovider.UnifiedMessage{
			aiprovider.NewTextMessage(aiprovider.RoleUser, stringutil.Truncate(message, MaxContextChars)),
		},
	}
}

// FromIngredients builds a prompt asking for a new recipe that uses the given ingredients.
func (b *Builder) FromIngredients(ingredients []string) *aiprovider.Prompt {
	var text strings.Builder
	text.WriteString("Create a recipe that uses these ingredients:\n")
	for _, ingredient := range ingredients {
		ingredient = strings.TrimSpace(ingredient)
		if ingredient == "" {
			continue
		}
		fmt.Fprintf(&text, "- %s\n", ingredient)
	}
	system := fmt.Sprintf("You are a creative chef for a recipe application. "+
		"Invent one practical recipe based mainly on the ingredients the user has. "+
		"Common pantry staples may be added. %s Write all text values in %s.", recipeSchema, b.language())
	return &aiprovider.Prompt{
		System: system,
		Messages: []aiprovider.UnifiedMessage{
			aiprovider.NewTextMessage(aiprovider.RoleUser, stringutil.Truncate(text.String(), MaxContextChars)),
		},
	}
}
