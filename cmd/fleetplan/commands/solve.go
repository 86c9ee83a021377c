package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/donorlogix/fleetplan/internal/cache"
	"github.com/donorlogix/fleetplan/internal/config"
	"github.com/donorlogix/fleetplan/internal/geo"
	"github.com/donorlogix/fleetplan/internal/pipeline"
	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run one full optimization pass over the network",
	RunE:  runSolve,
}

func init() {
	flags := solveCmd.Flags()
	flags.String("sites", "sites.xlsx", "path to the Site_Table spreadsheet")
	flags.String("depots", "depots.json", "path to the depot topology file")
	flags.Int("day", -1, "restrict to one weekday (0=Mon..6=Sun)")
	flags.String("depot", "", "restrict to one depot key")
	flags.Int("solver-time", 0, "override SOLVER_TIME_LIMIT_SECONDS")
	flags.Bool("skip-geocode", false, "use the geocode cache only; no live geocoding")
	flags.IntSlice("holidays", nil, "weekdays to apply holiday policy on")
	flags.String("database-url", os.Getenv("DATABASE_URL"), "Postgres DSN for persisting the run")
	flags.String("export", "", "path to write the Excel workbook export")
	flags.Bool("archive", false, "archive this run's route detail to S3/R2 as Parquet")
	flags.String("oracle-url", os.Getenv("DISTANCE_ORACLE_URL"), "base URL of the distance oracle service")
	flags.String("oracle-key", os.Getenv("DISTANCE_ORACLE_API_KEY"), "API key for the distance oracle service")
	flags.String("geocode-url", os.Getenv("GEOCODE_URL"), "base URL of the geocoding service")
	flags.String("cache-db", "fleetplan-cache.db", "path to the geocode/distance SQLite cache")
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags(), cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	depots, err := config.LoadDepots(cmd.Flags().Lookup("depots").Value.String(), cfg)
	if err != nil {
		return fmt.Errorf("loading depots: %w", err)
	}

	cacheDB, _ := cmd.Flags().GetString("cache-db")
	store, err := cache.Open(cacheDB)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()

	var oracle geo.Oracle = geo.NoOracle{}
	oracleURL, _ := cmd.Flags().GetString("oracle-url")
	if oracleURL != "" {
		oracleKey, _ := cmd.Flags().GetString("oracle-key")
		oracle = &geo.HTTPOracle{
			Client:  &http.Client{Timeout: 30 * time.Second},
			BaseURL: oracleURL,
			APIKey:  oracleKey,
		}
		oracle = geo.NewCachingOracle(oracle, cache.NewDistanceCache(store))
	}

	geocodeURL, _ := cmd.Flags().GetString("geocode-url")
	cfg.GeocodeURL = geocodeURL

	ctx := context.Background()
	_, err = pipeline.Run(ctx, cfg, pipeline.Depots(depots), oracle, store)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	return nil
}
