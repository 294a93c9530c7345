package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/cinewave/cinewave-api/internal/database"
)

var ErrNotFound = errors.New("media not found")

// likeEscaper escapes LIKE wildcards with '!'.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// Repository handles media persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns the media matching f
func (r *Repository) List(ctx context.Context, f Filter) ([]*Media, error) {
	var rows []database.Media
	q := r.db.NewSelect().Model(&rows)

	if f.IsMovie != nil {
		q = q.Where("m.is_movie = ?", *f.IsMovie)
	}
	if f.Featured != nil {
		q = q.Where("m.is_featured = ?", *f.Featured)
	}
	if f.Tag != "" {
		q = q.Where("m.tag = ?", f.Tag)
	} else if f.Untagged {
		q = q.Where("m.tag = ''")
	}
	if f.ExcludeID != uuid.Nil {
		q = q.Where("m.id <> ?", f.ExcludeID)
	}
	if f.NameContains != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(f.NameContains)) + "%"
		q = q.Where("LOWER(m.name) LIKE ? ESCAPE '!'", pattern)
	}
	if f.RentMin != nil {
		q = q.Where("m.rent_price >= ?", *f.RentMin)
	}
	if f.RentMax != nil {
		q = q.Where("m.rent_price <= ?", *f.RentMax)
	}
	if f.PurchaseMin != nil {
		q = q.Where("m.purchase_price >= ?", *f.PurchaseMin)
	}
	if f.PurchaseMax != nil {
		q = q.Where("m.purchase_price <= ?", *f.PurchaseMax)
	}
	if f.ReleaseYear != nil {
		q = q.Where("m.release_year = ?", *f.ReleaseYear)
	}

	if f.OrderByName {
		q = q.Order("m.name ASC", "m.id ASC")
	} else {
		q = q.Order("m.created_at ASC", "m.id ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	items := make([]*Media, 0, len(rows))
	for i := range rows {
		items = append(items, mapDBMediaToModel(&rows[i]))
	}
	return items, nil
}

// GetByID retrieves a media item by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Media, error) {
	row := new(database.Media)
	err := r.db.NewSelect().
		Model(row).
		Where("m.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get media by id: %w", err)
	}

	return mapDBMediaToModel(row), nil
}

// Create inserts a new media item
func (r *Repository) Create(ctx context.Context, in Input) (*Media, error) {
	now := time.Now().UTC()
	row := &database.Media{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	applyInput(row, in)

	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create media: %w", err)
	}

	return mapDBMediaToModel(row), nil
}

// Update replaces every writable field of an existing media item
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Input) (*Media, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	row := &database.Media{ID: id, CreatedAt: existing.CreatedAt, UpdatedAt: time.Now().UTC()}
	applyInput(row, in)

	result, err := r.db.NewUpdate().
		Model(row).
		ExcludeColumn("id", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update media: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBMediaToModel(row), nil
}

// Delete removes a media item
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Media)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func applyInput(row *database.Media, in Input) {
	row.Name = strings.TrimSpace(in.Name)
	row.Price = in.Price
	row.Synopsis = strings.TrimSpace(in.Synopsis)
	row.IsMovie = in.IsMovie
	row.SmallPosterPath = in.SmallPosterPath
	row.LargePosterPath = in.LargePosterPath
	row.RentPrice = in.RentPrice
	row.PurchasePrice = in.PurchasePrice
	row.ReleaseYear = in.ReleaseYear
	row.IsFeatured = in.IsFeatured
	row.Tag = in.Tag
}

// mapDBMediaToModel converts database model to domain model
func mapDBMediaToModel(row *database.Media) *Media {
	return &Media{
		ID:              row.ID,
		Name:            row.Name,
		Price:           row.Price,
		Synopsis:        row.Synopsis,
		IsMovie:         row.IsMovie,
		SmallPosterPath: row.SmallPosterPath,
		LargePosterPath: row.LargePosterPath,
		RentPrice:       row.RentPrice,
		PurchasePrice:   row.PurchasePrice,
		ReleaseYear:     row.ReleaseYear,
		IsFeatured:      row.IsFeatured,
		Tag:             row.Tag,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
