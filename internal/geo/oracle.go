package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/donorlogix/fleetplan/internal/model"
)

const oracleBatchSize = 10

// OracleCell is one distance/time pair returned by the driving-distance
// oracle.
type OracleCell struct {
	DistKm  float64
	TimeMin float64
	OK      bool
}

// Oracle resolves driving distance/time between batches of points. Batched
// at most 10x10 pairs per call, matching the collaborator-enforced limit.
type Oracle interface {
	Matrix(ctx context.Context, origins, destinations []model.Coord) ([][]OracleCell, error)
}

// NoOracle always reports failure, forcing every cell to the Haversine
// fallback. Useful when no live distance oracle is configured.
type NoOracle struct{}

func (NoOracle) Matrix(ctx context.Context, origins, destinations []model.Coord) ([][]OracleCell, error) {
	out := make([][]OracleCell, len(origins))
	for i := range out {
		out[i] = make([]OracleCell, len(destinations))
	}
	return out, nil
}

// HTTPOracle calls an external driving-distance service over HTTP, batching
// requests 10x10 and retrying transient failures with exponential backoff,
// the same shape the teacher's refresh job uses against its GraphQL source.
type HTTPOracle struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
}

type oracleRequest struct {
	Origins      []model.Coord `json:"origins"`
	Destinations []model.Coord `json:"destinations"`
}

type oracleResponse struct {
	Cells [][]OracleCell `json:"cells"`
}

func (o *HTTPOracle) Matrix(ctx context.Context, origins, destinations []model.Coord) ([][]OracleCell, error) {
	result := make([][]OracleCell, len(origins))
	for i := range result {
		result[i] = make([]OracleCell, len(destinations))
	}

	for oi := 0; oi < len(origins); oi += oracleBatchSize {
		oEnd := min(oi+oracleBatchSize, len(origins))
		for di := 0; di < len(destinations); di += oracleBatchSize {
			dEnd := min(di+oracleBatchSize, len(destinations))

			batch, err := o.fetchWithRetry(ctx, origins[oi:oEnd], destinations[di:dEnd])
			if err != nil {
				log.Printf("[geo] oracle batch (%d,%d) failed, falling back to haversine: %v", oi, di, err)
				continue
			}
			for ri, row := range batch {
				copy(result[oi+ri][di:dEnd], row)
			}
		}
	}
	return result, nil
}

func (o *HTTPOracle) fetchWithRetry(ctx context.Context, origins, destinations []model.Coord) ([][]OracleCell, error) {
	const maxAttempts = 4
	backoff := 250 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		resp, err := o.doRequest(ctx, origins, destinations)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("oracle request exhausted retries: %w", lastErr)
}

func (o *HTTPOracle) doRequest(ctx context.Context, origins, destinations []model.Coord) ([][]OracleCell, error) {
	body, err := json.Marshal(oracleRequest{Origins: origins, Destinations: destinations})
	if err != nil {
		return nil, fmt.Errorf("marshal oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/matrix", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var out oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode oracle response: %w", err)
	}
	return out.Cells, nil
}
