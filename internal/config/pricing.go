package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/UnknownOlympus/haulage/internal/pricing"
	"github.com/spf13/viper"
)

// LoadPricing builds the pricing defaults of the service. Values come, in increasing priority, from the
// built-in defaults, the optional file at path (YAML unless the extension says otherwise) and
// HAULAGE_PRICING_* environment variables, e.g. HAULAGE_PRICING_DIESEL_PRICE. The result is validated.
func LoadPricing(path string) (models.PricingConfig, error) {
	v := viper.New()

	def := pricing.DefaultConfig()
	for key, value := range map[string]float64{
		"diesel_price":          def.DieselPrice,
		"disposal_fee":          def.DisposalFee,
		"toll_price":            def.TollPrice,
		"tracking_monthly":      def.TrackingMonthly,
		"toll_account_monthly":  def.TollAccountMonthly,
		"insurance_monthly":     def.InsuranceMonthly,
		"driver_salary":         def.DriverSalary,
		"driver_commission":     def.DriverCommission,
		"general_expenses":      def.GeneralExpenses,
		"average_trips_per_day": def.AverageTripsPerDay,
		"km_per_liter":          def.KmPerLiter,
	} {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("HAULAGE_PRICING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return models.PricingConfig{}, fmt.Errorf("failed to read pricing file %q: %w", path, err)
		}
	}

	var cfg models.PricingConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return models.PricingConfig{}, fmt.Errorf("failed to decode pricing configuration: %w", err)
	}

	if err := pricing.Validate(cfg); err != nil {
		return models.PricingConfig{}, err
	}

	return cfg, nil
}
