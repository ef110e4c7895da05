// Package cmd implements the solarsync command tree.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexatafm/solar-hub-sync/pkg/logging"
)

var (
	configFile string
	verbose    bool

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "solarsync",
	Short: "Simpro to HubSpot quote sync",
	Long: `Solarsync mirrors Simpro quotes into HubSpot deals: each quote's
sections, cost centers, and priced items become CRM line items, deal
properties are refreshed, and contacts, companies, and sites are linked.

Syncs are idempotent. Re-running a deal replaces its line items with a
freshly computed set, so the batch can be resumed or repeated safely.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logging.ConfigureFromEnv()
		if verbose {
			cfg := logging.DefaultConfig()
			cfg.Level = "debug"
			logging.Configure(cfg)
		}
	},
}

// Execute runs the root command with signal-aware context.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./.solarsync.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".solarsync")
	}

	// Load .env before Viper env binding so both see the same values.
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Ignore a missing config file; env vars alone are a valid setup.
	_ = viper.ReadInConfig()
}
