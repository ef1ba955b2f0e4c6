package recipe

import (
	"context"
	"time"
)

// DefaultTitle is used when the model returns a recipe without a title.
const DefaultTitle = "Imported Recipe"

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// Ingredient is a single ingredient line. Amount is always a string, empty when unknown.
type Ingredient struct {
	Name   string  `json:"name"`
	Amount string  `json:"amount"`
	Unit   *string `json:"unit"`
}

// ExtractedRecord is a parsed recipe that has not been persisted yet.
type ExtractedRecord struct {
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	Tags        []string     `json:"tags"`
	ImageURL    *string      `json:"imageUrl,omitempty"`
	WebURL      *string      `json:"webUrl,omitempty"`

	// TitleDefaulted is set when the model gave no title and Title holds DefaultTitle.
	TitleDefaulted bool `json:"-"`
}

// Record is a stored recipe.
type Record struct {
	ID          string       `json:"id"`
	AuthorID    string       `json:"authorId"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	Tags        []string     `json:"tags"`
	Visibility  Visibility   `json:"visibility"`
	ImageURL    *string      `json:"imageUrl"`
	WebURL      *string      `json:"webUrl"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Update is a partial update. Nil fields are left untouched by the store.
type Update struct {
	Title       *string
	Description *string
	Ingredients []Ingredient
	Steps       []string
	Tags        []string
	ImageURL    *string
	WebURL      *string
	Visibility  *Visibility
	UpdatedAt   time.Time
}

// IsEmpty reports whether the update carries no field changes.
func (u *Update) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Ingredients == nil && u.Steps == nil &&
		u.Tags == nil && u.ImageURL == nil && u.WebURL == nil && u.Visibility == nil
}

// EnrichmentUpdate builds the partial update applied after a video was analyzed.
// The web URL of the existing recipe is kept, and so is its title when the model gave none.
func EnrichmentUpdate(rec *ExtractedRecord, now time.Time) Update {
	upd := Update{
		Description: rec.Description,
		Ingredients: nonNil(rec.Ingredients),
		Steps:       nonNil(rec.Steps),
		Tags:        nonNil(rec.Tags),
		ImageURL:    rec.ImageURL,
		UpdatedAt:   now,
	}
	if !rec.TitleDefaulted {
		title := rec.Title
		upd.Title = &title
	}
	return upd
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Store is the persistence collaborator the ingest pipeline hands records to.
type Store interface {
	CreateRecipe(ctx context.Context, rec *ExtractedRecord, authorID string) (*Record, error)
	// UpdateRecipe applies a partial update and reports whether a recipe matched the ID.
	UpdateRecipe(ctx context.Context, id string, upd Update) (bool, error)
}
