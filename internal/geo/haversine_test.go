package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm_ZeroForIdenticalPoints(t *testing.T) {
	d := HaversineKm(41.15, -8.61, 41.15, -8.61)
	assert.InDelta(t, 0.0, d, 1e-9)
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Porto to Lisbon, roughly 274 km great-circle.
	d := HaversineKm(41.1579, -8.6291, 38.7223, -9.1393)
	assert.InDelta(t, 274, d, 15)
}

func TestHaversineKm_Symmetric(t *testing.T) {
	a := HaversineKm(10, 20, 30, 40)
	b := HaversineKm(30, 40, 10, 20)
	assert.InDelta(t, a, b, 1e-9)
}
