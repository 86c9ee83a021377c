package cache

import (
	"path/filepath"
	"testing"

	"github.com/donorlogix/fleetplan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGeocodeCache_PutThenLookupRoundTrips(t *testing.T) {
	s := openTestStore(t)
	c := NewGeocodeCache(s)

	coord := model.Coord{Lat: 41.15, Lon: -8.61}
	require.NoError(t, c.Put("123 Main St", coord, true, "live"))

	got, ok, err := c.Lookup("123 Main St")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, coord, got)
}

func TestGeocodeCache_UnresolvedEntryIsNotFound(t *testing.T) {
	s := openTestStore(t)
	c := NewGeocodeCache(s)

	require.NoError(t, c.Put("bad address", model.Coord{}, false, "live"))

	_, ok, err := c.Lookup("bad address")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGeocodeCache_MissingAddressIsNotFound(t *testing.T) {
	s := openTestStore(t)
	c := NewGeocodeCache(s)

	_, ok, err := c.Lookup("never seen")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDistanceCache_PutThenLookupRoundTrips(t *testing.T) {
	s := openTestStore(t)
	c := NewDistanceCache(s)

	a := model.Coord{Lat: 1, Lon: 2}
	b := model.Coord{Lat: 3, Lon: 4}
	require.NoError(t, c.Put(a, b, 12.5, 18))

	distKm, timeMin, ok, err := c.Lookup(a, b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 12.5, distKm, 1e-9)
	assert.InDelta(t, 18, timeMin, 1e-9)

	_, _, reverseOK, err := c.Lookup(b, a)
	require.NoError(t, err)
	assert.False(t, reverseOK, "reverse ordering must be cached independently")
}
