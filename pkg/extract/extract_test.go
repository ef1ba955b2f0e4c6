package extract

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseFencedAndBareAreEquivalent(t *testing.T) {
	fenced, err := Parse("```json\n{\"title\":\"X\"}\n```")
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	bare, err := Parse(`{"title":"X"}`)
	if err != nil {
		t.Fatalf("parse bare: %v", err)
	}
	if !reflect.DeepEqual(fenced, bare) {
		t.Fatalf("fenced %v != bare %v", fenced, bare)
	}
}

func TestParseIgnoresSurroundingProse(t *testing.T) {
	raw := "Here is the recipe you asked for:\n```json\n{\"title\": \"Pho\", \"tags\": [\"soup\"]}\n```\nEnjoy!"
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got["title"] != "Pho" {
		t.Fatalf("unexpected title: %v", got["title"])
	}
}

func TestParseFailures(t *testing.T) {
	cases := []string{
		"",
		"I could not find a recipe on that page.",
		"{\"title\": \"X\",}",
		"[1, 2, 3]",
		"```json\nnot json\n```",
	}
	for _, raw := range cases {
		_, err := Parse(raw)
		var formatErr *ResponseFormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("Parse(%q): expected ResponseFormatError, got %v", raw, err)
		}
		if formatErr.Raw != raw {
			t.Fatalf("expected raw text to be retained, got %q", formatErr.Raw)
		}
	}
}

func TestMapTitleOnly(t *testing.T) {
	rec, err := Map(map[string]any{"title": "X"}, "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if rec.Title != "X" {
		t.Fatalf("unexpected title: %q", rec.Title)
	}
	if rec.Ingredients == nil || len(rec.Ingredients) != 0 {
		t.Fatalf("expected empty ingredient list, got %#v", rec.Ingredients)
	}
	if rec.Steps == nil || len(rec.Steps) != 0 {
		t.Fatalf("expected empty step list, got %#v", rec.Steps)
	}
	if rec.Tags == nil || len(rec.Tags) != 0 {
		t.Fatalf("expected empty tag list, got %#v", rec.Tags)
	}
	if rec.WebURL != nil {
		t.Fatalf("expected no web url, got %q", *rec.WebURL)
	}
}

func TestMapAmountCoercion(t *testing.T) {
	data, err := Parse(`{"ingredients": [{"name":"Salt","amount":2}, {"name":"Salt"}, {"name":"Milk","amount":0.25,"unit":"l"}, {"name":"Eggs","amount":null}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec, err := Map(data, "https://example.com/r")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	want := []struct {
		name, amount string
		unit         *string
	}{
		{"Salt", "2", nil},
		{"Salt", "", nil},
		{"Milk", "0.25", ptr("l")},
		{"Eggs", "", nil},
	}
	if len(rec.Ingredients) != len(want) {
		t.Fatalf("expected %d ingredients, got %d", len(want), len(rec.Ingredients))
	}
	for i, w := range want {
		got := rec.Ingredients[i]
		if got.Name != w.name || got.Amount != w.amount {
			t.Fatalf("ingredient %d: got %+v", i, got)
		}
		if (got.Unit == nil) != (w.unit == nil) || (got.Unit != nil && *got.Unit != *w.unit) {
			t.Fatalf("ingredient %d: unexpected unit %v", i, got.Unit)
		}
	}
	if rec.Title != "Imported Recipe" {
		t.Fatalf("expected placeholder title, got %q", rec.Title)
	}
	if rec.WebURL == nil || *rec.WebURL != "https://example.com/r" {
		t.Fatalf("expected web url to default to source, got %v", rec.WebURL)
	}
}

func TestMapIngredientShapes(t *testing.T) {
	rec, err := Map(map[string]any{
		"title":       "Mixed",
		"ingredients": []any{"2 cups flour", 42.0, map[string]any{"name": "Sugar", "amount": "1", "unit": "cup"}, nil},
	}, "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if len(rec.Ingredients) != 4 {
		t.Fatalf("expected 4 ingredients, got %d", len(rec.Ingredients))
	}
	if rec.Ingredients[0].Name != "2 cups flour" || rec.Ingredients[0].Amount != "" || rec.Ingredients[0].Unit != nil {
		t.Fatalf("unexpected string ingredient: %+v", rec.Ingredients[0])
	}
	if rec.Ingredients[1].Name != "" || rec.Ingredients[3].Name != "" {
		t.Fatalf("expected unrecognized entries to map to empty ingredients: %+v", rec.Ingredients)
	}
	if rec.Ingredients[2].Unit == nil || *rec.Ingredients[2].Unit != "cup" {
		t.Fatalf("unexpected object ingredient: %+v", rec.Ingredients[2])
	}
}

func TestMapInstructionsAlias(t *testing.T) {
	rec, err := Map(map[string]any{
		"instructions": []any{"Boil water", map[string]any{"text": "Add pasta"}, "  "},
		"image_url":    "https://img.example.com/a.jpg",
		"webUrl":       "https://example.com/original",
	}, "https://example.com/source")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if !reflect.DeepEqual(rec.Steps, []string{"Boil water", "Add pasta"}) {
		t.Fatalf("unexpected steps: %#v", rec.Steps)
	}
	if rec.ImageURL == nil || *rec.ImageURL != "https://img.example.com/a.jpg" {
		t.Fatalf("unexpected image url: %v", rec.ImageURL)
	}
	if rec.WebURL == nil || *rec.WebURL != "https://example.com/original" {
		t.Fatalf("expected model web url to win, got %v", rec.WebURL)
	}
}

func TestMapNothingRecognizable(t *testing.T) {
	cases := map[string]string{
		"unrelated keys":    `{"error": "no recipe here"}`,
		"all null":          `{"title":null,"description":null,"ingredients":null,"steps":null,"tags":null,"imageUrl":null,"webUrl":null}`,
		"null instructions": `{"title":null,"instructions":null}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := Parse(raw)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			rec, err := Map(data, "https://example.com")
			var mapErr *MappingError
			if !errors.As(err, &mapErr) {
				t.Fatalf("expected MappingError, got %+v %v", rec, err)
			}
			if !errors.Is(err, ErrNoRecipeData) {
				t.Fatalf("expected ErrNoRecipeData, got %v", err)
			}
		})
	}
}

func TestMapMarksDefaultedTitle(t *testing.T) {
	rec, err := Map(map[string]any{"title": nil, "steps": []any{"stir"}}, "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if rec.Title != "Imported Recipe" || !rec.TitleDefaulted {
		t.Fatalf("expected placeholder title to be flagged, got %q %v", rec.Title, rec.TitleDefaulted)
	}
	rec, err = Map(map[string]any{"title": "#1 Chili"}, "")
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if rec.Title != "#1 Chili" || rec.TitleDefaulted {
		t.Fatalf("unexpected title: %q %v", rec.Title, rec.TitleDefaulted)
	}
}

func ptr(s string) *string {
	return &s
}
