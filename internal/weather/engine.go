package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"
)

// Engine owns the reconciled view of the current city and the favorite
// cities, orchestrates concurrent fetches against the Source, merges results
// and triggers persistence. All mutation of the working set is serialized
// behind a single mutex; network calls happen outside of it.
type Engine struct {
	source    Source
	cache     CityStore
	suggester *Suggester

	mu          sync.Mutex
	current     *CityRecord
	favorites   []CityRecord
	loading     int
	lastError   string
	suggestions []CitySearchCandidate

	// One monotonically increasing token per target slot ("current" or a
	// favorite id). A completed fetch only applies its mutation if its token
	// is still the latest issued for that slot, so a superseded request
	// cannot resurrect stale data.
	tokens map[string]uint64
}

// NewEngine creates an Engine on top of the given source and city store.
func NewEngine(source Source, cache CityStore) *Engine {
	return &Engine{
		source:    source,
		cache:     cache,
		suggester: NewSuggester(source),
		tokens:    make(map[string]uint64),
	}
}

// Bootstrap seeds the working set from the persistent store: the first
// non-favorite record becomes the current city, favorites keep store order.
// No network call; safe to call repeatedly.
func (e *Engine) Bootstrap() {
	records := e.cache.Load()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.current = nil
	e.favorites = e.favorites[:0]
	for _, r := range records {
		if r.IsFavorite {
			e.favorites = append(e.favorites, r)
		} else if e.current == nil {
			rec := r
			e.current = &rec
		}
	}
}

// ResolveCityByQuery searches for the query text and loads the first
// candidate as the current (non-favorite) city.
func (e *Engine) ResolveCityByQuery(ctx context.Context, text string) (CityRecord, error) {
	if text == "" {
		err := fmt.Errorf("%w: empty query", ErrSearch)
		e.fail(err.Error())
		return CityRecord{}, err
	}

	candidates, err := e.source.SearchCities(ctx, text)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrSearch, err)
		e.fail(wrapped.Error())
		return CityRecord{}, wrapped
	}
	if len(candidates) == 0 {
		err := fmt.Errorf("%w: no candidates for %q", ErrSearch, text)
		e.fail(err.Error())
		return CityRecord{}, err
	}

	first := candidates[0]
	return e.LoadCity(ctx, first.CityID, first.Name, false)
}

// LoadCity fetches weather and forecast for the city concurrently, and on
// joint success replaces the record for the target slot and persists the
// full working set. If either fetch fails the whole operation fails: no
// partial record is ever constructed, and both the working set and the
// durable store are left exactly as they were.
func (e *Engine) LoadCity(ctx context.Context, id int, name string, isFavorite bool) (CityRecord, error) {
	slot := slotKey(id, isFavorite)
	token := e.beginLoad(slot)
	defer e.endLoad()

	var (
		wg          sync.WaitGroup
		snapshot    WeatherSnapshot
		forecast    []WeatherSnapshot
		weatherErr  error
		forecastErr error
	)

	// Two-way join: both fetches must settle before merging.
	wg.Add(2)
	go func() {
		defer wg.Done()
		snapshot, weatherErr = e.source.FetchWeather(ctx, id)
	}()
	go func() {
		defer wg.Done()
		forecast, forecastErr = e.source.FetchForecast(ctx, id)
	}()
	wg.Wait()

	if weatherErr != nil || forecastErr != nil {
		err := fmt.Errorf("%w for %s: %v", ErrFetch, name, errors.Join(weatherErr, forecastErr))
		e.fail("Failed to load weather: " + err.Error())
		return CityRecord{}, err
	}

	record := CityRecord{
		ID:          id,
		Name:        name,
		Weather:     &snapshot,
		Forecast:    forecast,
		LastUpdated: time.Now().UTC(),
		IsFavorite:  isFavorite,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tokens[slot] != token {
		log.Printf("engine: discarding stale result for %s (slot %s)", name, slot)
		return record, nil
	}

	if isFavorite {
		replaced := false
		for i := range e.favorites {
			if e.favorites[i].ID == id {
				e.favorites[i] = record
				replaced = true
				break
			}
		}
		if !replaced {
			e.favorites = append(e.favorites, record)
		}
	} else {
		e.current = &record
	}

	// Full-replace persistence: the stored set always mirrors the working
	// set, so records no longer tracked are dropped on the next save. A
	// failed save keeps the in-memory merge; the next successful save
	// catches the store up.
	if err := e.cache.Save(e.workingSetLocked()); err != nil {
		log.Printf("engine: failed to persist city cache: %v", err)
	}

	return record, nil
}

// AddFavorite registers the city as a favorite server-side, then loads it
// into the favorites slot. A failed registration changes nothing locally.
func (e *Engine) AddFavorite(ctx context.Context, id int, name string) (CityRecord, error) {
	if err := e.source.MarkFavorite(ctx, id); err != nil {
		wrapped := fmt.Errorf("%w for %s: %v", ErrFavorite, name, err)
		e.fail("Failed to add favorite")
		return CityRecord{}, wrapped
	}
	return e.LoadCity(ctx, id, name, true)
}

// RefreshFavorites re-loads every favorite independently. One failed city
// does not abort the others; each failure is reported once in the joined
// error.
func (e *Engine) RefreshFavorites(ctx context.Context) error {
	e.mu.Lock()
	targets := make([]CityRecord, len(e.favorites))
	copy(targets, e.favorites)
	e.mu.Unlock()

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(targets))
	)
	for i, fav := range targets {
		wg.Add(1)
		go func(i int, fav CityRecord) {
			defer wg.Done()
			if _, err := e.LoadCity(ctx, fav.ID, fav.Name, true); err != nil {
				log.Printf("engine: refresh failed for %s: %v", fav.Name, err)
				errs[i] = err
			}
		}(i, fav)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// ServerFavoriteIDs returns the ids the backend has registered as
// favorites, for reconciling the local favorites view against the server.
func (e *Engine) ServerFavoriteIDs(ctx context.Context) ([]int, error) {
	ids, err := e.source.ListFavoriteIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return ids, nil
}

// FetchSuggestions refreshes the observable suggestion list for the query.
// Best-effort: failures and empty queries collapse to an empty list.
func (e *Engine) FetchSuggestions(ctx context.Context, query string) []CitySearchCandidate {
	suggestions := e.suggester.FetchSuggestions(ctx, query)

	e.mu.Lock()
	e.suggestions = suggestions
	e.mu.Unlock()

	return suggestions
}

// CurrentCity returns the tracked non-favorite city, if any.
func (e *Engine) CurrentCity() (CityRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return CityRecord{}, false
	}
	return *e.current, true
}

// FavoriteCities returns a copy of the favorites in insertion order.
func (e *Engine) FavoriteCities() []CityRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]CityRecord, len(e.favorites))
	copy(out, e.favorites)
	return out
}

// Loading reports whether any load is in flight.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading > 0
}

// LastError returns the most recent error message, empty if the last
// operation succeeded.
func (e *Engine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

// Suggestions returns the latest fetched suggestion list.
func (e *Engine) Suggestions() []CitySearchCandidate {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]CitySearchCandidate, len(e.suggestions))
	copy(out, e.suggestions)
	return out
}

func (e *Engine) beginLoad(slot string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading++
	e.lastError = ""
	e.tokens[slot]++
	return e.tokens[slot]
}

func (e *Engine) endLoad() {
	e.mu.Lock()
	e.loading--
	e.mu.Unlock()
}

func (e *Engine) fail(msg string) {
	e.mu.Lock()
	e.lastError = msg
	e.mu.Unlock()
}

// workingSetLocked snapshots favorites plus the current city (if any) as the
// flat set handed to the persistent store. Caller must hold e.mu.
func (e *Engine) workingSetLocked() []CityRecord {
	all := make([]CityRecord, 0, len(e.favorites)+1)
	all = append(all, e.favorites...)
	if e.current != nil {
		all = append(all, *e.current)
	}
	return all
}

func slotKey(id int, isFavorite bool) string {
	if isFavorite {
		return "favorite:" + strconv.Itoa(id)
	}
	return "current"
}
