package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	FirstName    string    `bun:"first_name,notnull"`
	LastName     string    `bun:"last_name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

type Media struct {
	bun.BaseModel `bun:"table:media,alias:m"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	Name            string    `bun:"name,notnull"`
	Price           *float64  `bun:"price"`
	Synopsis        string    `bun:"synopsis,notnull"`
	IsMovie         bool      `bun:"is_movie,notnull"`
	SmallPosterPath string    `bun:"small_poster_path,notnull"`
	LargePosterPath string    `bun:"large_poster_path,notnull"`
	RentPrice       *float64  `bun:"rent_price"`
	PurchasePrice   *float64  `bun:"purchase_price"`
	ReleaseYear     *int      `bun:"release_year"`
	IsFeatured      bool      `bun:"is_featured,notnull"`
	Tag             string    `bun:"tag,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}
