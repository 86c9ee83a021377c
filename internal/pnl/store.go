package pnl

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func decimalHundred() decimal.Decimal {
	return decimal.NewFromInt(100)
}

// NewPool opens a pgxpool against databaseURL, matching the teacher's
// worker/db.go constructor.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// RouteOutcomeRow is one persisted route, flattened for bulk insert.
type RouteOutcomeRow struct {
	RunID        int64
	DepotKey     string
	Weekday      int
	TotalLbs     int
	TotalKm      float64
	TotalMinutes float64
	CostCents    int64
	RevenueCents int64
	Polyline     string
}

// PersistRun writes one NetworkRun: the summary row (upserted by run
// timestamp) plus a batch of route_outcome child rows via pgx.CopyFrom,
// matching the teacher's cron_aggregate.go upsert idiom and
// collector.go's CopyFrom batch-insert idiom respectively.
func PersistRun(ctx context.Context, pool *pgxpool.Pool, runAt time.Time, net NetworkPNL, routes []RouteOutcomeRow) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin persist run tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO network_run (run_at, revenue_cents, cost_cents, net_cents)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_at) DO UPDATE SET
			revenue_cents = EXCLUDED.revenue_cents,
			cost_cents = EXCLUDED.cost_cents,
			net_cents = EXCLUDED.net_cents
		RETURNING id
	`, runAt, net.Revenue.Mul(decimalHundred()).IntPart(), net.Cost.Mul(decimalHundred()).IntPart(), net.Net.Mul(decimalHundred()).IntPart()).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("upsert network_run: %w", err)
	}

	for _, d := range net.Depots {
		_, err = tx.Exec(ctx, `
			INSERT INTO depot_pnl_weekly
				(run_id, depot_key, driver_cost_cents, variable_cost_cents, fixed_cost_cents, revenue_cents, net_cents, vehicles_used, total_lbs, total_km, total_minutes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		`, runID, d.DepotKey,
			d.DriverCost.Mul(decimalHundred()).IntPart(),
			d.VariableCost.Mul(decimalHundred()).IntPart(),
			d.FixedCost.Mul(decimalHundred()).IntPart(),
			d.Revenue.Mul(decimalHundred()).IntPart(),
			d.Net.Mul(decimalHundred()).IntPart(),
			d.VehiclesUsed, d.TotalLbs, d.TotalKm, d.TotalMinutes,
		)
		if err != nil {
			return 0, fmt.Errorf("insert depot_pnl_weekly for %s: %w", d.DepotKey, err)
		}
	}

	if len(routes) > 0 {
		copyRows := make([][]interface{}, 0, len(routes))
		for _, r := range routes {
			copyRows = append(copyRows, []interface{}{
				runID, r.DepotKey, r.Weekday, r.TotalLbs, r.TotalKm, r.TotalMinutes,
				r.CostCents, r.RevenueCents, r.Polyline,
			})
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"route_outcome"},
			[]string{"run_id", "depot_key", "weekday", "total_lbs", "total_km", "total_minutes", "cost_cents", "revenue_cents", "polyline"},
			pgx.CopyFromRows(copyRows),
		)
		if err != nil {
			return 0, fmt.Errorf("copy route_outcome rows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit persist run tx: %w", err)
	}

	return runID, nil
}
