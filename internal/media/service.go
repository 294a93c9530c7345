package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultHeroLimit     = 5
	DefaultFeaturedLimit = 8
	MaxLimit             = 100
)

var (
	ErrEmptyQuery   = errors.New("search query must not be empty")
	ErrInvalidRange = errors.New("min must not be greater than max")
)

// Store is the persistence the catalog service needs.
type Store interface {
	List(ctx context.Context, f Filter) ([]*Media, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Media, error)
	Create(ctx context.Context, in Input) (*Media, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service implements catalog queries and admin operations
type Service struct {
	store    Store
	heroYear int
}

// NewService builds a catalog service. Hero items are featured media
// released in heroYear.
func NewService(store Store, heroYear int) *Service {
	return &Service{store: store, heroYear: heroYear}
}

// HeroItems returns featured media from the hero year
func (s *Service) HeroItems(ctx context.Context, limit int) ([]*Media, error) {
	return s.store.List(ctx, Filter{
		Featured:    ptr(true),
		ReleaseYear: ptr(s.heroYear),
		Limit:       clampLimit(limit, DefaultHeroLimit),
	})
}

// FeaturedMovies returns featured movies, or movies with tag when one is given
func (s *Service) FeaturedMovies(ctx context.Context, limit int, tag string) ([]*Media, error) {
	return s.store.List(ctx, featuredFilter(true, limit, tag))
}

// FeaturedTVShows returns featured TV shows, or shows with tag when one is given
func (s *Service) FeaturedTVShows(ctx context.Context, limit int, tag string) ([]*Media, error) {
	return s.store.List(ctx, featuredFilter(false, limit, tag))
}

func (s *Service) AllMovies(ctx context.Context) ([]*Media, error) {
	return s.store.List(ctx, Filter{IsMovie: ptr(true)})
}

func (s *Service) AllTVShows(ctx context.Context) ([]*Media, error) {
	return s.store.List(ctx, Filter{IsMovie: ptr(false)})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Media, error) {
	return s.store.GetByID(ctx, id)
}

// Similar returns other media sharing the tag of id; an untagged item is
// similar to the other untagged ones. With sameTypeOnly the results are
// restricted to the same kind (movie or TV show).
func (s *Service) Similar(ctx context.Context, id uuid.UUID, sameTypeOnly bool) ([]*Media, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []*Media{}, nil
		}
		return nil, err
	}

	f := Filter{Tag: current.Tag, Untagged: current.Tag == "", ExcludeID: current.ID}
	if sameTypeOnly {
		f.IsMovie = ptr(current.IsMovie)
	}
	return s.store.List(ctx, f)
}

// Search matches names case-insensitively
func (s *Service) Search(ctx context.Context, query string) ([]*Media, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.store.List(ctx, Filter{NameContains: query})
}

func (s *Service) RentRange(ctx context.Context, minPrice, maxPrice float64) ([]*Media, error) {
	if minPrice > maxPrice {
		return nil, ErrInvalidRange
	}
	return s.store.List(ctx, Filter{RentMin: &minPrice, RentMax: &maxPrice})
}

func (s *Service) PurchaseRange(ctx context.Context, minPrice, maxPrice float64) ([]*Media, error) {
	if minPrice > maxPrice {
		return nil, ErrInvalidRange
	}
	return s.store.List(ctx, Filter{PurchaseMin: &minPrice, PurchaseMax: &maxPrice})
}

func (s *Service) ByYear(ctx context.Context, year int) ([]*Media, error) {
	return s.store.List(ctx, Filter{ReleaseYear: &year})
}

func (s *Service) ByTag(ctx context.Context, tag string) ([]*Media, error) {
	return s.store.List(ctx, Filter{Tag: tag})
}

func (s *Service) SortedByName(ctx context.Context) ([]*Media, error) {
	return s.store.List(ctx, Filter{OrderByName: true})
}

func (s *Service) Create(ctx context.Context, in Input) (*Media, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return m, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Media, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

func featuredFilter(movies bool, limit int, tag string) Filter {
	f := Filter{IsMovie: ptr(movies), Limit: clampLimit(limit, DefaultFeaturedLimit)}
	if tag != "" {
		f.Tag = tag
	} else {
		f.Featured = ptr(true)
	}
	return f
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func ptr[T any](v T) *T {
	return &v
}
