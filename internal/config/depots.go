package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/donorlogix/fleetplan/internal/model"
)

type depotRecord struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	MaxTrucks int     `json:"max_trucks"`
}

// LoadDepots parses a JSON depot-topology file into []model.Depot, marking
// the depot whose key matches cfg.WarehouseAnchor as the anchor.
func LoadDepots(path string, cfg Config) ([]model.Depot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading depots file %s: %w", path, err)
	}

	var records []depotRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parsing depots file %s: %w", path, err)
	}

	anchorFound := false
	depots := make([]model.Depot, 0, len(records))
	for _, r := range records {
		if r.MaxTrucks <= 0 {
			return nil, fmt.Errorf("depot %s: max_trucks must be positive", r.Key)
		}
		anchor := r.Key == cfg.WarehouseAnchor
		if anchor {
			anchorFound = true
		}
		depots = append(depots, model.Depot{
			Key:       r.Key,
			Name:      r.Name,
			Address:   r.Address,
			Coord:     model.Coord{Lat: r.Lat, Lon: r.Lon},
			MaxTrucks: r.MaxTrucks,
			Anchor:    anchor,
		})
	}

	if !anchorFound {
		return nil, fmt.Errorf("warehouse_anchor %q does not match any depot key in %s", cfg.WarehouseAnchor, path)
	}

	return depots, nil
}
