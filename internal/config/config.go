// Package config loads fleetplan's injected constants and invocation
// envelope from flags, environment, and an optional config file, layered
// through spf13/viper the way the reference CLI does for its own
// cost-optimization constants.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every constant the core components treat as injected rather
// than hardcoded (spec §6, "Configuration constants").
type Config struct {
	// Money & cost constants.
	VariableCostPerKm   float64 `mapstructure:"variable_cost_per_km"`
	DriverWagePerHour   float64 `mapstructure:"driver_wage_per_hour"`
	TruckFixedWeekly    float64 `mapstructure:"truck_fixed_weekly"`
	TruckFixedCostCents int64   `mapstructure:"truck_fixed_cost_cents"`
	RevenuePerLb        float64 `mapstructure:"revenue_per_lb"`

	OTWeeklyThresholdHours float64 `mapstructure:"ot_weekly_threshold_hours"`
	OTMultiplier           float64 `mapstructure:"ot_multiplier"`

	// Physical / operational constants.
	AverageSpeedKmh            float64 `mapstructure:"average_speed_kmh"`
	TargetDailyPayloadLbs      int     `mapstructure:"target_daily_payload_lbs"`
	MaxLegalPayloadLbs         int     `mapstructure:"max_legal_payload_lbs"`
	EffectiveDrivingMinutes    float64 `mapstructure:"effective_driving_minutes"`
	ServiceMinutesPerBin       float64 `mapstructure:"service_minutes_per_bin"`
	PerNodeTimeSlackMinutes    float64 `mapstructure:"per_node_time_slack_minutes"`
	RoadFactor                 float64 `mapstructure:"road_factor"`

	// Solver tuning.
	SolverTimeLimitSeconds int `mapstructure:"solver_time_limit_seconds"`
	SolverSolutionLimit    int `mapstructure:"solver_solution_limit"`

	// Network topology.
	WarehouseAnchor string `mapstructure:"warehouse_anchor"`

	// Invocation envelope.
	SitesPath    string
	DepotsPath   string
	DatabaseURL  string
	ExportPath   string
	Archive      bool
	SkipGeocode  bool
	SolverTime   int
	Day          int
	Depot        string
	Holidays     []int
	GeocodeURL   string
}

// Defaults matches the constants named throughout spec.md §4 and §6.
func Defaults() Config {
	return Config{
		VariableCostPerKm:       0.39,
		DriverWagePerHour:       24.0,
		TruckFixedWeekly:        636.0,
		TruckFixedCostCents:     9086,
		RevenuePerLb:            0.05,
		OTWeeklyThresholdHours:  40.0,
		OTMultiplier:            1.5,
		AverageSpeedKmh:         40.0,
		TargetDailyPayloadLbs:   4000,
		MaxLegalPayloadLbs:      4500,
		EffectiveDrivingMinutes: 660.0,
		ServiceMinutesPerBin:    3.0,
		PerNodeTimeSlackMinutes: 30.0,
		RoadFactor:              1.3,
		SolverTimeLimitSeconds:  30,
		SolverSolutionLimit:     2000,
		WarehouseAnchor:         "",
		Day:                     -1,
	}
}

// Load layers flags over environment over an optional config file over
// Defaults(), in the order spf13/viper resolves them. flags may be nil when
// called outside a cobra command (e.g. from tests).
func Load(flags *pflag.FlagSet, configFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FLEETPLAN")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("variable_cost_per_km", d.VariableCostPerKm)
	v.SetDefault("driver_wage_per_hour", d.DriverWagePerHour)
	v.SetDefault("truck_fixed_weekly", d.TruckFixedWeekly)
	v.SetDefault("truck_fixed_cost_cents", d.TruckFixedCostCents)
	v.SetDefault("revenue_per_lb", d.RevenuePerLb)
	v.SetDefault("ot_weekly_threshold_hours", d.OTWeeklyThresholdHours)
	v.SetDefault("ot_multiplier", d.OTMultiplier)
	v.SetDefault("average_speed_kmh", d.AverageSpeedKmh)
	v.SetDefault("target_daily_payload_lbs", d.TargetDailyPayloadLbs)
	v.SetDefault("max_legal_payload_lbs", d.MaxLegalPayloadLbs)
	v.SetDefault("effective_driving_minutes", d.EffectiveDrivingMinutes)
	v.SetDefault("service_minutes_per_bin", d.ServiceMinutesPerBin)
	v.SetDefault("per_node_time_slack_minutes", d.PerNodeTimeSlackMinutes)
	v.SetDefault("road_factor", d.RoadFactor)
	v.SetDefault("solver_time_limit_seconds", d.SolverTimeLimitSeconds)
	v.SetDefault("solver_solution_limit", d.SolverSolutionLimit)
	v.SetDefault("warehouse_anchor", d.WarehouseAnchor)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("binding flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if flags != nil {
		cfg.SitesPath, _ = flags.GetString("sites")
		cfg.DepotsPath, _ = flags.GetString("depots")
		cfg.DatabaseURL, _ = flags.GetString("database-url")
		cfg.ExportPath, _ = flags.GetString("export")
		cfg.Archive, _ = flags.GetBool("archive")
		cfg.SkipGeocode, _ = flags.GetBool("skip-geocode")
		cfg.SolverTime, _ = flags.GetInt("solver-time")
		cfg.Day, _ = flags.GetInt("day")
		cfg.Depot, _ = flags.GetString("depot")
		cfg.Holidays, _ = flags.GetIntSlice("holidays")

		if cfg.SolverTime > 0 {
			cfg.SolverTimeLimitSeconds = cfg.SolverTime
		}
	}

	if cfg.WarehouseAnchor == "" {
		return Config{}, fmt.Errorf("config: warehouse_anchor must be set")
	}

	return cfg, nil
}
