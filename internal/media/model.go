package media

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrInvalidMedia wraps every validation failure.
var ErrInvalidMedia = errors.New("invalid media")

const (
	maxNameLength     = 100
	maxSynopsisLength = 1000
	maxTagLength      = 50
	maxRentPrice      = 100
	maxPurchasePrice  = 500
	minReleaseYear    = 1900
	maxReleaseYear    = 2100
)

// Media is a movie or TV show in the catalog.
type Media struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Price           *float64  `json:"price,omitempty"`
	Synopsis        string    `json:"synopsis"`
	IsMovie         bool      `json:"isMovie"`
	SmallPosterPath string    `json:"smallPosterPath"`
	LargePosterPath string    `json:"largePosterPath"`
	RentPrice       *float64  `json:"rentPrice,omitempty"`
	PurchasePrice   *float64  `json:"purchasePrice,omitempty"`
	ReleaseYear     *int      `json:"releaseYear,omitempty"`
	IsFeatured      bool      `json:"isFeatured"`
	Tag             string    `json:"tag"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Input is the writable part of a Media, used for create and full update.
type Input struct {
	Name            string   `json:"name"`
	Price           *float64 `json:"price,omitempty"`
	Synopsis        string   `json:"synopsis"`
	IsMovie         bool     `json:"isMovie"`
	SmallPosterPath string   `json:"smallPosterPath"`
	LargePosterPath string   `json:"largePosterPath"`
	RentPrice       *float64 `json:"rentPrice,omitempty"`
	PurchasePrice   *float64 `json:"purchasePrice,omitempty"`
	ReleaseYear     *int     `json:"releaseYear,omitempty"`
	IsFeatured      bool     `json:"isFeatured"`
	Tag             string   `json:"tag"`
}

// Validate returns the first rule in that is broken, wrapped in ErrInvalidMedia.
func (in Input) Validate() error {
	if n := utf8.RuneCountInString(strings.TrimSpace(in.Name)); n == 0 || n > maxNameLength {
		return invalid("name must be between 1 and %d characters", maxNameLength)
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(in.Synopsis)); n == 0 || n > maxSynopsisLength {
		return invalid("synopsis must be between 1 and %d characters", maxSynopsisLength)
	}
	if strings.TrimSpace(in.SmallPosterPath) == "" {
		return invalid("smallPosterPath is required")
	}
	if strings.TrimSpace(in.LargePosterPath) == "" {
		return invalid("largePosterPath is required")
	}
	if in.Price != nil && *in.Price < 0 {
		return invalid("price must not be negative")
	}
	if in.RentPrice != nil && (*in.RentPrice < 0 || *in.RentPrice > maxRentPrice) {
		return invalid("rentPrice must be between 0 and %d", maxRentPrice)
	}
	if in.PurchasePrice != nil && (*in.PurchasePrice < 0 || *in.PurchasePrice > maxPurchasePrice) {
		return invalid("purchasePrice must be between 0 and %d", maxPurchasePrice)
	}
	if in.ReleaseYear != nil && (*in.ReleaseYear < minReleaseYear || *in.ReleaseYear > maxReleaseYear) {
		return invalid("releaseYear must be between %d and %d", minReleaseYear, maxReleaseYear)
	}
	if utf8.RuneCountInString(in.Tag) > maxTagLength {
		return invalid("tag must be at most %d characters", maxTagLength)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMedia, fmt.Sprintf(format, args...))
}

// Filter narrows a catalog listing. Zero values mean "no constraint".
type Filter struct {
	IsMovie      *bool
	Featured     *bool
	Tag          string
	Untagged     bool // only media with an empty tag; ignored when Tag is set
	ExcludeID    uuid.UUID
	NameContains string
	RentMin      *float64
	RentMax      *float64
	PurchaseMin  *float64
	PurchaseMax  *float64
	ReleaseYear  *int
	OrderByName  bool
	Limit        int
}
