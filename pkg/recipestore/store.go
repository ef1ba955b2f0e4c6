package recipestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"go.mau.fi/util/dbutil"

	"github.com/beeper/recipe-ingest/pkg/recipe"
	"github.com/beeper/recipe-ingest/pkg/recipestore/upgrades"
)

// Store persists recipes through dbutil. It works with both sqlite3 and postgres.
type Store struct {
	db *dbutil.Database
}

var _ recipe.Store = (*Store)(nil)

// Open connects to the configured database and runs pending schema upgrades.
func Open(ctx context.Context, cfg dbutil.Config, log zerolog.Logger) (*Store, error) {
	db, err := dbutil.NewFromConfig("recipe-ingest", cfg, dbutil.ZeroLogger(log.With().Str("component", "database").Logger()))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := New(db)
	if err = store.Upgrade(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func New(db *dbutil.Database) *Store {
	db.UpgradeTable = upgrades.Table
	return &Store{db: db}
}

func (s *Store) Upgrade(ctx context.Context) error {
	if err := s.db.Upgrade(ctx); err != nil {
		return fmt.Errorf("failed to upgrade database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const getRecipeQuery = `
	SELECT id, author_id, title, description, ingredients, steps, tags, visibility, image_url, web_url, created_at, updated_at
	FROM recipes WHERE id=$1
`

// CreateRecipe stores an extracted record as a new private recipe.
func (s *Store) CreateRecipe(ctx context.Context, rec *recipe.ExtractedRecord, authorID string) (*recipe.Record, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	created := &recipe.Record{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		Title:       rec.Title,
		Description: rec.Description,
		Ingredients: nonNil(rec.Ingredients),
		Steps:       nonNil(rec.Steps),
		Tags:        nonNil(rec.Tags),
		Visibility:  recipe.VisibilityPrivate,
		ImageURL:    rec.ImageURL,
		WebURL:      rec.WebURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO recipes
			(id, author_id, title, description, ingredients, steps, tags, visibility, image_url, web_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		created.ID, created.AuthorID, created.Title, created.Description,
		dbutil.JSON{Data: created.Ingredients}, dbutil.JSON{Data: created.Steps}, dbutil.JSON{Data: created.Tags},
		string(created.Visibility), created.ImageURL, created.WebURL,
		created.CreatedAt.UnixMilli(), created.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert recipe: %w", err)
	}
	return created, nil
}

// UpdateRecipe applies the non-nil fields of upd. The last write wins.
func (s *Store) UpdateRecipe(ctx context.Context, id string, upd recipe.Update) (bool, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Ingredients != nil {
		add("ingredients", dbutil.JSON{Data: upd.Ingredients})
	}
	if upd.Steps != nil {
		add("steps", dbutil.JSON{Data: upd.Steps})
	}
	if upd.Tags != nil {
		add("tags", dbutil.JSON{Data: upd.Tags})
	}
	if upd.Visibility != nil {
		add("visibility", string(*upd.Visibility))
	}
	if upd.ImageURL != nil {
		add("image_url", *upd.ImageURL)
	}
	if upd.WebURL != nil {
		add("web_url", *upd.WebURL)
	}
	updatedAt := upd.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	add("updated_at", updatedAt.UnixMilli())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE recipes SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))
	res, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update recipe: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetRecipe returns the recipe with the given ID, or nil if there is none.
func (s *Store) GetRecipe(ctx context.Context, id string) (*recipe.Record, error) {
	var rec recipe.Record
	var visibility string
	var createdAt, updatedAt int64
	err := s.db.QueryRow(ctx, getRecipeQuery, id).Scan(
		&rec.ID, &rec.AuthorID, &rec.Title, &rec.Description,
		dbutil.JSON{Data: &rec.Ingredients}, dbutil.JSON{Data: &rec.Steps}, dbutil.JSON{Data: &rec.Tags},
		&visibility, &rec.ImageURL, &rec.WebURL, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	rec.Visibility = recipe.Visibility(visibility)
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &rec, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
