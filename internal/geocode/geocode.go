// Package geocode resolves a site address to a coordinate (A3), consulting
// a local cache first and falling back to a rate-limited free service,
// wrapping the external JSON response behind small unwrap helpers the way
// the teacher wraps its FIWARE entity payloads.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/donorlogix/fleetplan/internal/cache"
	"github.com/donorlogix/fleetplan/internal/model"
)

// Resolver resolves addresses to coordinates, cache-first.
type Resolver struct {
	cache       *cache.GeocodeCache
	client      *http.Client
	baseURL     string
	skipGeocode bool
}

func NewResolver(c *cache.GeocodeCache, client *http.Client, baseURL string, skipGeocode bool) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Resolver{cache: c, client: client, baseURL: baseURL, skipGeocode: skipGeocode}
}

// Resolve returns address's coordinate, consulting the cache first. In
// skip-geocode mode a cache miss is a GeocodingFailure (returns ok=false,
// nil error) rather than a live lookup.
func (r *Resolver) Resolve(ctx context.Context, address string) (model.Coord, bool, error) {
	coord, ok, err := r.cache.Lookup(address)
	if err != nil {
		return model.Coord{}, false, fmt.Errorf("geocode cache lookup for %q: %w", address, err)
	}
	if ok {
		return coord, true, nil
	}

	if r.skipGeocode {
		log.Printf("[geocode] cache miss for %q in skip-geocode mode, excluding from routing", address)
		return model.Coord{}, false, nil
	}

	coord, err = r.lookupLive(ctx, address)
	if err != nil {
		log.Printf("[geocode] live lookup failed for %q: %v", address, err)
		if putErr := r.cache.Put(address, model.Coord{}, false, "live"); putErr != nil {
			log.Printf("[geocode] failed to cache negative result for %q: %v", address, putErr)
		}
		return model.Coord{}, false, nil
	}

	if err := r.cache.Put(address, coord, true, "live"); err != nil {
		log.Printf("[geocode] failed to cache result for %q: %v", address, err)
	}
	return coord, true, nil
}

type geocodeResponse struct {
	Lat json.RawMessage `json:"lat"`
	Lon json.RawMessage `json:"lon"`
}

func (r *Resolver) lookupLive(ctx context.Context, address string) (model.Coord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/search?q="+url.QueryEscape(address), nil)
	if err != nil {
		return model.Coord{}, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return model.Coord{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Coord{}, fmt.Errorf("read geocode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return model.Coord{}, fmt.Errorf("geocode service returned status %d", resp.StatusCode)
	}

	var out geocodeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return model.Coord{}, fmt.Errorf("decode geocode response: %w", err)
	}

	lat := unwrapFloat64(out.Lat)
	lon := unwrapFloat64(out.Lon)
	return model.Coord{Lat: lat, Lon: lon}, nil
}

// unwrapFloat64 extracts a float64 from either a bare JSON number or a
// quoted numeric string, matching the teacher's unwrapFloat64 helper.
func unwrapFloat64(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var parsed float64
		if _, err := fmt.Sscanf(s, "%f", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}
