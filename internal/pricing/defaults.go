package pricing

import "github.com/UnknownOlympus/haulage/internal/models"

const (
	// WorkingHoursPerMonth is the standard labor calendar used to derive the driver's hourly rate
	// (44 hours per week * 4 weeks).
	WorkingHoursPerMonth = 176
	// DaysPerMonth is the number of days monthly costs are spread over.
	DaysPerMonth = 30
	// DefaultProfitPercentage is the margin suggested when the caller does not choose one.
	DefaultProfitPercentage = 20
)

// DefaultConfig returns the baseline operator assumptions. Each call returns a fresh value.
func DefaultConfig() models.PricingConfig {
	return models.PricingConfig{
		DieselPrice:        5.80,
		DisposalFee:        120,
		TollPrice:          16.20,
		TrackingMonthly:    150,
		TollAccountMonthly: 66.90,
		InsuranceMonthly:   800,
		DriverSalary:       3113.08,
		DriverCommission:   15,
		GeneralExpenses:    5000,
		AverageTripsPerDay: 3.5,
		KmPerLiter:         2.5,
	}
}

// DefaultOptions returns the trip options the quote form starts with: round trip, no toll.
func DefaultOptions() models.TripOptions {
	return models.TripOptions{
		HasToll:          false,
		RoundTrip:        true,
		ProfitPercentage: DefaultProfitPercentage,
	}
}
