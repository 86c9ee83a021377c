package cache

import (
	"database/sql"
	"fmt"

	"github.com/donorlogix/fleetplan/internal/model"
)

// DistanceCache is a "{lat1:.6f},{lon1:.6f}|{lat2:.6f},{lon2:.6f}" -> (km,
// minutes) cache. Each Put writes through to the database immediately; the
// pending counter only cycles at distanceFlushInterval and triggers no
// separate flush. Both orderings of a pair may be cached independently.
type DistanceCache struct {
	store   *Store
	pending int
}

const distanceFlushInterval = 500

func NewDistanceCache(store *Store) *DistanceCache {
	return &DistanceCache{store: store}
}

func distanceKey(a, b model.Coord) string {
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", a.Lat, a.Lon, b.Lat, b.Lon)
}

// Lookup returns the cached distance/time for the ordered pair (a, b).
func (c *DistanceCache) Lookup(a, b model.Coord) (distKm, timeMin float64, ok bool, err error) {
	row := c.store.db.QueryRow(`SELECT dist_km, time_min FROM distance_cache WHERE key = ?`, distanceKey(a, b))
	if scanErr := row.Scan(&distKm, &timeMin); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return 0, 0, false, nil
		}
		return 0, 0, false, fmt.Errorf("distance cache lookup: %w", scanErr)
	}
	return distKm, timeMin, true, nil
}

// Put records a resolved distance/time for the ordered pair (a, b).
func (c *DistanceCache) Put(a, b model.Coord, distKm, timeMin float64) error {
	_, err := c.store.db.Exec(`
		INSERT INTO distance_cache (key, dist_km, time_min) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET dist_km=excluded.dist_km, time_min=excluded.time_min
	`, distanceKey(a, b), distKm, timeMin)
	if err != nil {
		return fmt.Errorf("distance cache put: %w", err)
	}

	c.pending++
	if c.pending >= distanceFlushInterval {
		c.pending = 0
	}
	return nil
}
