package cache

import (
	"database/sql"
	"fmt"

	"github.com/donorlogix/fleetplan/internal/model"
)

// GeocodeCache is an address -> coordinate cache. Each Put writes through
// to the database immediately.
type GeocodeCache struct {
	store   *Store
	pending int
}

const geocodeFlushInterval = 50

func NewGeocodeCache(store *Store) *GeocodeCache {
	return &GeocodeCache{store: store}
}

// Lookup returns the cached coordinate for address, if resolved.
func (c *GeocodeCache) Lookup(address string) (model.Coord, bool, error) {
	var lat, lon float64
	var resolved int
	err := c.store.db.QueryRow(`SELECT lat, lon, resolved FROM geocode_cache WHERE address = ?`, address).
		Scan(&lat, &lon, &resolved)
	if err == sql.ErrNoRows {
		return model.Coord{}, false, nil
	}
	if err != nil {
		return model.Coord{}, false, fmt.Errorf("geocode cache lookup: %w", err)
	}
	if resolved == 0 {
		return model.Coord{}, false, nil
	}
	return model.Coord{Lat: lat, Lon: lon}, true, nil
}

// Put records a resolved (or failed) geocode result. Writes go to the
// database immediately; pending only cycles at geocodeFlushInterval and
// triggers no separate flush.
func (c *GeocodeCache) Put(address string, coord model.Coord, resolved bool, source string) error {
	r := 0
	if resolved {
		r = 1
	}
	_, err := c.store.db.Exec(`
		INSERT INTO geocode_cache (address, lat, lon, resolved, source) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET lat=excluded.lat, lon=excluded.lon, resolved=excluded.resolved, source=excluded.source
	`, address, coord.Lat, coord.Lon, r, source)
	if err != nil {
		return fmt.Errorf("geocode cache put: %w", err)
	}

	c.pending++
	if c.pending >= geocodeFlushInterval {
		c.pending = 0
	}
	return nil
}
