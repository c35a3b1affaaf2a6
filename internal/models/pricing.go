package models

import "time"

// PricingConfig holds the operator's cost assumptions. Monthly values are amortized
// over AverageTripsPerDay * 30 trips. DisposalFee is charged once per trip regardless of
// distance, TollPrice is the toll for a single direction and DriverCommission is a fixed
// amount per trip, not a percentage.
type PricingConfig struct {
	DieselPrice        float64 `json:"diesel_price"          mapstructure:"diesel_price"`
	DisposalFee        float64 `json:"disposal_fee"          mapstructure:"disposal_fee"`
	TollPrice          float64 `json:"toll_price"            mapstructure:"toll_price"`
	TrackingMonthly    float64 `json:"tracking_monthly"      mapstructure:"tracking_monthly"`
	TollAccountMonthly float64 `json:"toll_account_monthly"  mapstructure:"toll_account_monthly"`
	InsuranceMonthly   float64 `json:"insurance_monthly"     mapstructure:"insurance_monthly"`
	DriverSalary       float64 `json:"driver_salary"         mapstructure:"driver_salary"`
	DriverCommission   float64 `json:"driver_commission"     mapstructure:"driver_commission"`
	GeneralExpenses    float64 `json:"general_expenses"      mapstructure:"general_expenses"`
	AverageTripsPerDay float64 `json:"average_trips_per_day" mapstructure:"average_trips_per_day"`
	KmPerLiter         float64 `json:"km_per_liter"          mapstructure:"km_per_liter"`
}

// PricingOverrides is a partial PricingConfig supplied per request. Nil fields keep the base value.
type PricingOverrides struct {
	DieselPrice        *float64 `json:"diesel_price,omitempty"`
	DisposalFee        *float64 `json:"disposal_fee,omitempty"`
	TollPrice          *float64 `json:"toll_price,omitempty"`
	TrackingMonthly    *float64 `json:"tracking_monthly,omitempty"`
	TollAccountMonthly *float64 `json:"toll_account_monthly,omitempty"`
	InsuranceMonthly   *float64 `json:"insurance_monthly,omitempty"`
	DriverSalary       *float64 `json:"driver_salary,omitempty"`
	DriverCommission   *float64 `json:"driver_commission,omitempty"`
	GeneralExpenses    *float64 `json:"general_expenses,omitempty"`
	AverageTripsPerDay *float64 `json:"average_trips_per_day,omitempty"`
	KmPerLiter         *float64 `json:"km_per_liter,omitempty"`
}

// Apply returns a copy of base with every non-nil override set. base is passed by value
// and never modified.
func (o PricingOverrides) Apply(base PricingConfig) PricingConfig {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	set(&base.DieselPrice, o.DieselPrice)
	set(&base.DisposalFee, o.DisposalFee)
	set(&base.TollPrice, o.TollPrice)
	set(&base.TrackingMonthly, o.TrackingMonthly)
	set(&base.TollAccountMonthly, o.TollAccountMonthly)
	set(&base.InsuranceMonthly, o.InsuranceMonthly)
	set(&base.DriverSalary, o.DriverSalary)
	set(&base.DriverCommission, o.DriverCommission)
	set(&base.GeneralExpenses, o.GeneralExpenses)
	set(&base.AverageTripsPerDay, o.AverageTripsPerDay)
	set(&base.KmPerLiter, o.KmPerLiter)

	return base
}

// TripOptions are the per-trip choices made by whoever asks for a quote.
type TripOptions struct {
	HasToll          bool    `json:"has_toll"`
	RoundTrip        bool    `json:"round_trip"`
	ProfitPercentage float64 `json:"profit_percentage"`
}

// CostBreakdown is an itemized per-trip price. InsuranceCost mirrors TrackingCost:
// insurance is part of the tracking bundle and is not priced separately.
type CostBreakdown struct {
	WorkLocation     Location `json:"work_location"`
	DisposalLocation Location `json:"disposal_location"`
	FuelCost         float64  `json:"fuel_cost"`
	DisposalCost     float64  `json:"disposal_cost"`
	TollCost         float64  `json:"toll_cost"`
	DriverHourlyCost float64  `json:"driver_hourly_cost"`
	DriverCommission float64  `json:"driver_commission"`
	TrackingCost     float64  `json:"tracking_cost"`
	InsuranceCost    float64  `json:"insurance_cost"`
	GeneralExpenses  float64  `json:"general_expenses"`
	Subtotal         float64  `json:"subtotal"`
	Profit           float64  `json:"profit"`
	TotalCost        float64  `json:"total_cost"`
}

// Quote is a finished estimate together with the inputs and derived rates it was computed from.
type Quote struct {
	Breakdown        CostBreakdown `json:"breakdown"`
	Route            RouteMetrics  `json:"route"`
	Pricing          PricingConfig `json:"pricing"`
	Options          TripOptions   `json:"options"`
	DriverHourlyRate float64       `json:"driver_hourly_rate"`
	MonthlyTrips     float64       `json:"monthly_trips"`
	CreatedAt        time.Time     `json:"created_at"`
}
