package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beeper/recipe-ingest/pkg/recipe"
	"github.com/beeper/recipe-ingest/pkg/shared/stringutil"
)

// ErrNoRecipeData is wrapped by MappingError when the model output contains nothing recipe-like.
var ErrNoRecipeData = errors.New("no recognizable recipe data")

type MappingError struct {
	Keys []string
	Err  error
}

func (e *MappingError) Error() string {
	if len(e.Keys) == 0 {
		return fmt.Sprintf("failed to map model output: %v", e.Err)
	}
	return fmt.Sprintf("failed to map model output with keys %s: %v", strings.Join(e.Keys, ", "), e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

var (
	stepKeys  = []string{"steps", "instructions"}
	imageKeys = []string{"imageUrl", "image_url", "image"}
	webKeys   = []string{"webUrl", "web_url", "url"}
)

// Map converts a parsed model response into an ExtractedRecord. Unrecognized shapes
// degrade to empty values instead of failing, except when no recipe field is present at all.
func Map(data map[string]any, sourceURL string) (*recipe.ExtractedRecord, error) {
	stepsKey := firstKey(data, stepKeys)
	if !present(data, "title") && !present(data, "ingredients") && !present(data, "tags") && stepsKey == "" {
		keys := make([]string, 0, len(data))
		for key := range data {
			keys = append(keys, key)
		}
		return nil, &MappingError{Keys: keys, Err: ErrNoRecipeData}
	}

	rec := &recipe.ExtractedRecord{
		Title:       stringutil.StripMarkup(asString(data["title"])),
		Description: optionalString(data["description"]),
		Ingredients: mapIngredients(data["ingredients"]),
		Steps:       mapSteps(data[stepsKey]),
		Tags:        mapStrings(data["tags"]),
		ImageURL:    optionalString(data[firstKey(data, imageKeys)]),
		WebURL:      optionalString(data[firstKey(data, webKeys)]),
	}
	if rec.Title == "" {
		rec.Title = recipe.DefaultTitle
		rec.TitleDefaulted = true
	}
	if rec.WebURL == nil && sourceURL != "" {
		rec.WebURL = &sourceURL
	}
	return rec, nil
}

// present treats an explicit null the same as a missing key.
func present(data map[string]any, key string) bool {
	value, ok := data[key]
	return ok && value != nil
}

func firstKey(data map[string]any, keys []string) string {
	for _, key := range keys {
		if value, ok := data[key]; ok && value != nil {
			return key
		}
	}
	return ""
}

func mapIngredients(value any) []recipe.Ingredient {
	var items []any
	switch typed := value.(type) {
	case []any:
		items = typed
	case string:
		items = []any{typed}
	}
	out := make([]recipe.Ingredient, 0, len(items))
	for _, item := range items {
		switch typed := item.(type) {
		case string:
			out = append(out, recipe.Ingredient{Name: strings.TrimSpace(typed)})
		case map[string]any:
			out = append(out, recipe.Ingredient{
				Name:   stringutil.StripMarkup(asString(typed["name"])),
				Amount: coerceAmount(typed["amount"]),
				Unit:   optionalString(typed["unit"]),
			})
		default:
			out = append(out, recipe.Ingredient{})
		}
	}
	return out
}

func mapSteps(value any) []string {
	switch typed := value.(type) {
	case string:
		if step := strings.TrimSpace(typed); step != "" {
			return []string{step}
		}
		return []string{}
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			var step string
			if obj, ok := item.(map[string]any); ok {
				step = asString(obj["text"])
			} else {
				step = asString(item)
			}
			if step = strings.TrimSpace(step); step != "" {
				out = append(out, step)
			}
		}
		return out
	default:
		return []string{}
	}
}

func mapStrings(value any) []string {
	items, _ := value.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if str := strings.TrimSpace(asString(item)); str != "" {
			out = append(out, str)
		}
	}
	return out
}

// coerceAmount renders whatever the model put in the amount field as a string.
func coerceAmount(value any) string {
	return strings.TrimSpace(asString(value))
}

func asString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}

func optionalString(value any) *string {
	str := strings.TrimSpace(asString(value))
	if str == "" {
		return nil
	}
	return &str
}
