package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alexatafm/solar-hub-sync/internal/config"
)

// ratesCmd prints the labor-rate table the pricing resolver will use, so
// missing or misnamed rates can be spotted before a batch run.
var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "List Simpro labor rates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		creds := config.LoadCredentials()
		if err := creds.Validate(); err != nil {
			return err
		}

		simproClient, _ := buildClients(creds)
		rates, err := simproClient.LaborRates(cmd.Context())
		if err != nil {
			return err
		}

		sort.Slice(rates, func(i, j int) bool { return rates[i].Name < rates[j].Name })

		fmt.Printf("%-40s %12s %10s\n", "NAME", "COST RATE", "MARKUP")
		for _, r := range rates {
			fmt.Printf("%-40s %12.2f %10.4f\n", r.Name, r.CostRate, r.Markup)
		}
		fmt.Printf("\n%d labor rates\n", len(rates))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ratesCmd)
}
