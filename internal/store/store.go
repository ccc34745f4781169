// Package store persists the full set of cached city records in a single
// durable key-value slot.
package store

import (
	"encoding/json"
	"log"

	"glasscast/internal/weather"
)

// Slot is a single durable key-value slot holding one opaque blob.
type Slot interface {
	// Write replaces the slot contents.
	Write(data []byte) error
	// Read returns the slot contents and whether anything was stored.
	Read() ([]byte, bool, error)
}

// LoadState tags the outcome of reading the city cache.
type LoadState int

const (
	// LoadAbsent means the slot held no data at all.
	LoadAbsent LoadState = iota
	// LoadCorrupt means the slot held data that could not be decoded.
	LoadCorrupt
	// LoadPresent means records were decoded successfully.
	LoadPresent
)

// LoadResult is the tagged outcome of LoadTagged.
type LoadResult struct {
	State   LoadState
	Records []weather.CityRecord
	Err     error
}

// CityStore serializes city records to a slot. Every Save overwrites the
// entire stored set (full-replace, not upsert), so records no longer in the
// caller's working set are dropped on the next save.
type CityStore struct {
	slot Slot
}

var _ weather.CityStore = (*CityStore)(nil)

// New creates a CityStore on top of the given slot.
func New(slot Slot) *CityStore {
	return &CityStore{slot: slot}
}

// Save serializes the full record sequence and overwrites the slot.
func (s *CityStore) Save(records []weather.CityRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.slot.Write(data)
}

// Load returns the stored records, collapsing absence and corruption to an
// empty sequence. Callers that need to tell the two apart use LoadTagged.
func (s *CityStore) Load() []weather.CityRecord {
	result := s.LoadTagged()
	if result.State == LoadCorrupt {
		log.Printf("store: discarding unreadable city cache: %v", result.Err)
	}
	return result.Records
}

// LoadTagged reads the slot and reports whether the cache was absent,
// corrupt, or present.
func (s *CityStore) LoadTagged() LoadResult {
	data, ok, err := s.slot.Read()
	if err != nil {
		return LoadResult{State: LoadCorrupt, Err: err}
	}
	if !ok || len(data) == 0 {
		return LoadResult{State: LoadAbsent}
	}

	var records []weather.CityRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return LoadResult{State: LoadCorrupt, Err: err}
	}
	return LoadResult{State: LoadPresent, Records: records}
}
