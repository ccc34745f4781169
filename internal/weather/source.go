package weather

import (
	"context"
	"errors"
)

var (
	// ErrSearch is returned when a query is empty or yields no candidates.
	ErrSearch = errors.New("city search failed")
	// ErrFetch is returned when the weather or forecast retrieval failed.
	ErrFetch = errors.New("weather fetch failed")
	// ErrFavorite is returned when server-side favorite registration failed.
	ErrFavorite = errors.New("favorite registration failed")
)

// Source abstracts the remote weather backend. Every call requires a valid
// session credential; an expired or absent credential surfaces as a plain
// fetch failure.
type Source interface {
	FetchWeather(ctx context.Context, cityID int) (WeatherSnapshot, error)
	FetchForecast(ctx context.Context, cityID int) ([]WeatherSnapshot, error)
	SearchCities(ctx context.Context, query string) ([]CitySearchCandidate, error)
	MarkFavorite(ctx context.Context, cityID int) error
	ListFavoriteIDs(ctx context.Context) ([]int, error)
}

// CityStore is the contract the persistent city store must satisfy. Save
// overwrites the entire stored set; Load never fails, returning an empty
// sequence when nothing usable is stored.
type CityStore interface {
	Save(records []CityRecord) error
	Load() []CityRecord
}
