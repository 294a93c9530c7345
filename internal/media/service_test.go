package media

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinewave/cinewave-api/internal/database/dbtest"
)

type catalog struct {
	dune, arrival, blade, expanse, severance, bakeOff *Media
}

func item(name string, isMovie, featured bool, tag string, year int, rent, purchase float64) Input {
	return Input{
		Name:            name,
		Synopsis:        name + " synopsis",
		IsMovie:         isMovie,
		SmallPosterPath: "/s/" + name,
		LargePosterPath: "/l/" + name,
		RentPrice:       ptr(rent),
		PurchasePrice:   ptr(purchase),
		ReleaseYear:     ptr(year),
		IsFeatured:      featured,
		Tag:             tag,
	}
}

func newTestCatalog(t *testing.T) (*Service, catalog) {
	t.Helper()
	svc := NewService(NewRepository(dbtest.New(t)), 2021)
	ctx := context.Background()

	create := func(in Input) *Media {
		m, err := svc.Create(ctx, in)
		require.NoError(t, err)
		return m
	}

	c := catalog{
		dune:      create(item("Dune", true, true, "scifi", 2021, 3.99, 14.99)),
		arrival:   create(item("Arrival", true, false, "scifi", 2016, 2.99, 9.99)),
		blade:     create(item("Blade Runner 2049", true, true, "scifi", 2017, 3.49, 12.99)),
		expanse:   create(item("The Expanse", false, true, "scifi", 2021, 1.99, 29.99)),
		severance: create(item("Severance", false, true, "thriller", 2022, 2.49, 24.99)),
		bakeOff:   create(item("Bake_Off 100%", false, false, "reality", 2010, 0.99, 4.99)),
	}
	return svc, c
}

func names(items []*Media) []string {
	out := make([]string, 0, len(items))
	for _, m := range items {
		out = append(out, m.Name)
	}
	return out
}

func TestService_HeroItems(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	items, err := svc.HeroItems(ctx, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dune", "The Expanse"}, names(items))

	items, err = svc.HeroItems(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestService_Featured(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	movies, err := svc.FeaturedMovies(ctx, 0, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dune", "Blade Runner 2049"}, names(movies))

	// A tag widens to every movie with that tag, featured or not.
	movies, err = svc.FeaturedMovies(ctx, 0, "scifi")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dune", "Arrival", "Blade Runner 2049"}, names(movies))

	shows, err := svc.FeaturedTVShows(ctx, 0, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"The Expanse", "Severance"}, names(shows))

	shows, err = svc.FeaturedTVShows(ctx, 1, "thriller")
	require.NoError(t, err)
	assert.Equal(t, []string{"Severance"}, names(shows))
}

func TestService_AllByType(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	movies, err := svc.AllMovies(ctx)
	require.NoError(t, err)
	assert.Len(t, movies, 3)

	shows, err := svc.AllTVShows(ctx)
	require.NoError(t, err)
	assert.Len(t, shows, 3)
}

func TestService_Similar(t *testing.T) {
	svc, c := newTestCatalog(t)
	ctx := context.Background()

	similar, err := svc.Similar(ctx, c.dune.ID, true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Arrival", "Blade Runner 2049"}, names(similar))

	similar, err = svc.Similar(ctx, c.dune.ID, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Arrival", "Blade Runner 2049", "The Expanse"}, names(similar))

	similar, err = svc.Similar(ctx, uuid.New(), true)
	require.NoError(t, err)
	assert.Empty(t, similar)
}

func TestService_SimilarUntagged(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	noir, err := svc.Create(ctx, item("Noir", true, false, "", 1950, 1.99, 5.99))
	require.NoError(t, err)
	_, err = svc.Create(ctx, item("Silent", true, false, "", 1927, 0.99, 3.99))
	require.NoError(t, err)
	_, err = svc.Create(ctx, item("Anthology", false, false, "", 1960, 0.99, 3.99))
	require.NoError(t, err)

	similar, err := svc.Similar(ctx, noir.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Silent"}, names(similar))

	similar, err = svc.Similar(ctx, noir.ID, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Silent", "Anthology"}, names(similar))
}

func TestService_Search(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	found, err := svc.Search(ctx, "RUNNER")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blade Runner 2049"}, names(found))

	// LIKE wildcards in the query are literal.
	found, err = svc.Search(ctx, "_")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bake_Off 100%"}, names(found))

	found, err = svc.Search(ctx, "%")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bake_Off 100%"}, names(found))

	_, err = svc.Search(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestService_Ranges(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	rent, err := svc.RentRange(ctx, 2.5, 3.5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Arrival", "Blade Runner 2049"}, names(rent))

	purchase, err := svc.PurchaseRange(ctx, 20, 30)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"The Expanse", "Severance"}, names(purchase))

	_, err = svc.RentRange(ctx, 5, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = svc.PurchaseRange(ctx, 5, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestService_YearTagSorted(t *testing.T) {
	svc, _ := newTestCatalog(t)
	ctx := context.Background()

	byYear, err := svc.ByYear(ctx, 2021)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dune", "The Expanse"}, names(byYear))

	byTag, err := svc.ByTag(ctx, "reality")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bake_Off 100%"}, names(byTag))

	sorted, err := svc.SortedByName(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arrival", "Bake_Off 100%", "Blade Runner 2049", "Dune", "Severance", "The Expanse"}, names(sorted))
}

func TestService_CreateUpdateDelete(t *testing.T) {
	svc, c := newTestCatalog(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Name: "No synopsis"})
	assert.ErrorIs(t, err, ErrInvalidMedia)

	in := item("Dune: Part One", true, false, "scifi", 2021, 4.99, 19.99)
	updated, err := svc.Update(ctx, c.dune.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Dune: Part One", updated.Name)
	assert.False(t, updated.IsFeatured)

	got, err := svc.Get(ctx, c.dune.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune: Part One", got.Name)
	require.NotNil(t, got.RentPrice)
	assert.InDelta(t, 4.99, *got.RentPrice, 1e-9)

	_, err = svc.Update(ctx, uuid.New(), in)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, c.dune.ID))
	_, err = svc.Get(ctx, c.dune.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, c.dune.ID), ErrNotFound)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 5, clampLimit(0, 5))
	assert.Equal(t, 5, clampLimit(-3, 5))
	assert.Equal(t, 7, clampLimit(7, 5))
	assert.Equal(t, MaxLimit, clampLimit(1000, 5))
}
