package main

import (
	"fmt"
	"io"

	"github.com/UnknownOlympus/haulage/internal/models"
)

func printQuote(w io.Writer, q *models.Quote) {
	b := q.Breakdown

	fmt.Fprintln(w, "Trip Estimate")
	fmt.Fprintln(w, "=============")
	if b.WorkLocation.Address != "" {
		fmt.Fprintf(w, "  Work site:          %s\n", b.WorkLocation.Address)
		fmt.Fprintf(w, "  Disposal site:      %s\n", b.DisposalLocation.Address)
	}
	fmt.Fprintf(w, "  Distance (one way): %.2f km\n", q.Route.DistanceKm)
	fmt.Fprintf(w, "  Duration (one way): %.0f min\n", q.Route.DurationMinutes)
	fmt.Fprintf(w, "  Round trip:         %s\n", yesNo(q.Options.RoundTrip))
	fmt.Fprintf(w, "  Toll:               %s\n", yesNo(q.Options.HasToll))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Costs")
	fmt.Fprintln(w, "-----")
	for _, line := range []struct {
		label  string
		amount float64
	}{
		{"Fuel", b.FuelCost},
		{"Disposal", b.DisposalCost},
		{"Toll", b.TollCost},
		{"Driver (hours)", b.DriverHourlyCost},
		{"Driver commission", b.DriverCommission},
		{"Tracking", b.TrackingCost},
		{"Insurance", b.InsuranceCost},
		{"General expenses", b.GeneralExpenses},
	} {
		fmt.Fprintf(w, "  %-20s %12s\n", line.label, formatMoney(line.amount))
	}
	fmt.Fprintf(w, "  %-20s %12s\n", "Subtotal", formatMoney(b.Subtotal))
	fmt.Fprintf(w, "  %-20s %12s\n", fmt.Sprintf("Profit (%.0f%%)", q.Options.ProfitPercentage), formatMoney(b.Profit))
	fmt.Fprintf(w, "  %-20s %12s\n", "TOTAL", formatMoney(b.TotalCost))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Driver hourly rate: %s, monthly trips: %.1f\n", formatMoney(q.DriverHourlyRate), q.MonthlyTrips)
}

func printPricing(w io.Writer, cfg models.PricingConfig) {
	fmt.Fprintln(w, "Pricing Defaults")
	fmt.Fprintln(w, "================")
	for _, line := range []struct {
		label string
		value string
	}{
		{"Diesel price (per liter)", formatMoney(cfg.DieselPrice)},
		{"Disposal fee", formatMoney(cfg.DisposalFee)},
		{"Toll (one way)", formatMoney(cfg.TollPrice)},
		{"Tracking (monthly)", formatMoney(cfg.TrackingMonthly)},
		{"Toll account (monthly)", formatMoney(cfg.TollAccountMonthly)},
		{"Insurance (monthly)", formatMoney(cfg.InsuranceMonthly)},
		{"Driver salary", formatMoney(cfg.DriverSalary)},
		{"Driver commission", formatMoney(cfg.DriverCommission)},
		{"General expenses", formatMoney(cfg.GeneralExpenses)},
		{"Trips per day", fmt.Sprintf("%.1f", cfg.AverageTripsPerDay)},
		{"Km per liter", fmt.Sprintf("%.2f", cfg.KmPerLiter)},
	} {
		fmt.Fprintf(w, "  %-26s %12s\n", line.label, line.value)
	}
}

// formatMoney renders an amount with two decimals and thousands separators, e.g. 12,345.60.
func formatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	s := fmt.Sprintf("%.2f", v)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	out := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i := range len(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i])
	}

	return sign + string(out) + frac
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
