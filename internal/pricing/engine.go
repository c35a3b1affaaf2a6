// Package pricing turns route metrics and operator cost assumptions into an itemized trip price.
//
// The engine is a pure function: it performs no I/O, keeps no state and never validates its
// input. Callers run Validate and ValidateOptions first; with a zero KmPerLiter or
// AverageTripsPerDay the result contains non-finite amounts (see IsFinite).
package pricing

import (
	"math"

	"github.com/UnknownOlympus/haulage/internal/models"
)

// Compute returns the cost breakdown of a single trip. Locations in the result are left empty;
// use Quote to echo them.
func Compute(metrics models.RouteMetrics, cfg models.PricingConfig, opts models.TripOptions) models.CostBreakdown {
	return Quote(models.Location{}, models.Location{}, metrics, cfg, opts)
}

// Quote computes the breakdown of a trip from work to disposal.
func Quote(
	work, disposal models.Location,
	metrics models.RouteMetrics,
	cfg models.PricingConfig,
	opts models.TripOptions,
) models.CostBreakdown {
	legs := 1.0
	if opts.RoundTrip {
		legs = 2
	}

	distance := metrics.DistanceKm * legs
	fuel := distance / cfg.KmPerLiter * cfg.DieselPrice
	disposalCost := cfg.DisposalFee

	toll := 0.0
	if opts.HasToll {
		toll = cfg.TollPrice * legs
	}

	driverTime := DriverHourlyRate(cfg) * (metrics.DurationMinutes / 60) * legs
	commission := cfg.DriverCommission
	tracking := (cfg.TrackingMonthly + cfg.TollAccountMonthly + cfg.InsuranceMonthly) / MonthlyTrips(cfg)
	overhead := cfg.GeneralExpenses / MonthlyTrips(cfg)

	subtotal := fuel + disposalCost + toll + driverTime + commission + tracking + overhead
	profit := subtotal * opts.ProfitPercentage / 100

	return models.CostBreakdown{
		WorkLocation:     work,
		DisposalLocation: disposal,
		FuelCost:         fuel,
		DisposalCost:     disposalCost,
		TollCost:         toll,
		DriverHourlyCost: driverTime,
		DriverCommission: commission,
		TrackingCost:     tracking,
		InsuranceCost:    tracking,
		GeneralExpenses:  overhead,
		Subtotal:         subtotal,
		Profit:           profit,
		TotalCost:        subtotal + profit,
	}
}

// DriverHourlyRate is the monthly salary spread over the standard working month.
func DriverHourlyRate(cfg models.PricingConfig) float64 {
	return cfg.DriverSalary / WorkingHoursPerMonth
}

// MonthlyTrips is the assumed number of trips that share the monthly fixed costs.
func MonthlyTrips(cfg models.PricingConfig) float64 {
	return cfg.AverageTripsPerDay * DaysPerMonth
}

// IsFinite reports whether every amount in the breakdown is a finite number.
func IsFinite(b models.CostBreakdown) bool {
	for _, v := range []float64{
		b.FuelCost, b.DisposalCost, b.TollCost, b.DriverHourlyCost, b.DriverCommission,
		b.TrackingCost, b.InsuranceCost, b.GeneralExpenses, b.Subtotal, b.Profit, b.TotalCost,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
