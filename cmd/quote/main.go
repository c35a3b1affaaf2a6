package main

import (
	"os"

	"github.com/spf13/cobra"
)

// tripFlags are shared by the commands that price a trip.
type tripFlags struct {
	toll        bool
	oneWay      bool
	profit      float64
	pricingFile string
}

func (f *tripFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.toll, "toll", false, "Route goes through a toll plaza")
	cmd.Flags().BoolVar(&f.oneWay, "one-way", false, "Price the outbound leg only")
	cmd.Flags().Float64Var(&f.profit, "profit", defaultProfit, "Profit margin in percent")
	cmd.Flags().StringVar(&f.pricingFile, "pricing-file", os.Getenv("HAULAGE_PRICING_FILE"), "YAML or JSON pricing defaults")
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "quote",
		Short:        "Per-trip price estimates for debris hauling",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(estimateCmd())
	rootCmd.AddCommand(computeCmd())
	rootCmd.AddCommand(defaultsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func estimateCmd() *cobra.Command {
	var (
		trip     tripFlags
		provider providerFlags
		work     string
		disposal string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Geocode both addresses, route between them and price the trip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEstimate(cmd.Context(), cmd.OutOrStdout(), work, disposal, trip, provider)
		},
	}

	cmd.Flags().StringVarP(&work, "work", "w", "", "Work site address")
	cmd.Flags().StringVarP(&disposal, "disposal", "d", "", "Disposal site address")
	_ = cmd.MarkFlagRequired("work")
	_ = cmd.MarkFlagRequired("disposal")
	trip.register(cmd)
	provider.register(cmd)

	return cmd
}

func computeCmd() *cobra.Command {
	var (
		trip     tripFlags
		distance float64
		duration float64
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Price a trip from known one-way route metrics, without a provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompute(cmd.OutOrStdout(), distance, duration, trip)
		},
	}

	cmd.Flags().Float64Var(&distance, "distance-km", 0, "One-way distance in kilometers")
	cmd.Flags().Float64Var(&duration, "duration-min", 0, "One-way driving time in minutes")
	_ = cmd.MarkFlagRequired("distance-km")
	_ = cmd.MarkFlagRequired("duration-min")
	trip.register(cmd)

	return cmd
}

func defaultsCmd() *cobra.Command {
	var pricingFile string

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the pricing defaults in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDefaults(cmd.OutOrStdout(), pricingFile)
		},
	}

	cmd.Flags().StringVar(&pricingFile, "pricing-file", os.Getenv("HAULAGE_PRICING_FILE"), "YAML or JSON pricing defaults")

	return cmd
}
