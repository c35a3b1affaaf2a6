package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/UnknownOlympus/haulage/internal/models"
)

// ErrConfigurationInvalid is returned when pricing or trip options break a precondition of the engine.
var ErrConfigurationInvalid = errors.New("invalid pricing configuration")

// Validate checks the preconditions Compute relies on: every amount is finite and non-negative,
// and the two divisors (KmPerLiter, AverageTripsPerDay) are strictly positive.
func Validate(cfg models.PricingConfig) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"diesel_price", cfg.DieselPrice},
		{"disposal_fee", cfg.DisposalFee},
		{"toll_price", cfg.TollPrice},
		{"tracking_monthly", cfg.TrackingMonthly},
		{"toll_account_monthly", cfg.TollAccountMonthly},
		{"insurance_monthly", cfg.InsuranceMonthly},
		{"driver_salary", cfg.DriverSalary},
		{"driver_commission", cfg.DriverCommission},
		{"general_expenses", cfg.GeneralExpenses},
		{"average_trips_per_day", cfg.AverageTripsPerDay},
		{"km_per_liter", cfg.KmPerLiter},
	}

	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrConfigurationInvalid, f.name)
		}
		if f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrConfigurationInvalid, f.name, f.value)
		}
	}

	if cfg.KmPerLiter == 0 {
		return fmt.Errorf("%w: km_per_liter must be greater than zero", ErrConfigurationInvalid)
	}
	if cfg.AverageTripsPerDay == 0 {
		return fmt.Errorf("%w: average_trips_per_day must be greater than zero", ErrConfigurationInvalid)
	}

	return nil
}

// ValidateOptions rejects a negative or non-finite profit percentage. Margins above 100% are allowed.
func ValidateOptions(opts models.TripOptions) error {
	p := opts.ProfitPercentage
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return fmt.Errorf("%w: profit_percentage is not a finite number", ErrConfigurationInvalid)
	}
	if p < 0 {
		return fmt.Errorf("%w: profit_percentage must not be negative, got %g", ErrConfigurationInvalid, p)
	}

	return nil
}
