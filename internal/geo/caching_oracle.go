package geo

import (
	"context"
	"log"

	"github.com/donorlogix/fleetplan/internal/cache"
	"github.com/donorlogix/fleetplan/internal/model"
)

// CachingOracle wraps an Oracle with a persistent distance cache, so a
// repeated pipeline run over the same site catalog never re-issues a live
// oracle call for a pair it already resolved. A cache miss on any pair
// in a batch still falls through to the full underlying Matrix call
// (the oracle is already batched 10x10, so this costs no extra round
// trips over the uncached case); fresh cells are written back afterward.
type CachingOracle struct {
	Underlying Oracle
	Cache      *cache.DistanceCache
}

func NewCachingOracle(underlying Oracle, distanceCache *cache.DistanceCache) *CachingOracle {
	return &CachingOracle{Underlying: underlying, Cache: distanceCache}
}

func (o *CachingOracle) Matrix(ctx context.Context, origins, destinations []model.Coord) ([][]OracleCell, error) {
	result := make([][]OracleCell, len(origins))
	for i := range result {
		result[i] = make([]OracleCell, len(destinations))
	}

	allCached := true
	for i, orig := range origins {
		for j, dest := range destinations {
			distKm, timeMin, ok, err := o.Cache.Lookup(orig, dest)
			if err != nil {
				log.Printf("[geo] distance cache lookup failed, treating as miss: %v", err)
				allCached = false
				continue
			}
			if !ok {
				allCached = false
				continue
			}
			result[i][j] = OracleCell{DistKm: distKm, TimeMin: timeMin, OK: true}
		}
	}
	if allCached {
		return result, nil
	}

	fresh, err := o.Underlying.Matrix(ctx, origins, destinations)
	if err != nil {
		return nil, err
	}

	for i, orig := range origins {
		for j, dest := range destinations {
			if result[i][j].OK {
				continue
			}
			cell := fresh[i][j]
			result[i][j] = cell
			if !cell.OK {
				continue
			}
			if err := o.Cache.Put(orig, dest, cell.DistKm, cell.TimeMin); err != nil {
				log.Printf("[geo] failed to cache distance for pair: %v", err)
			}
		}
	}

	return result, nil
}
