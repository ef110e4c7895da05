// Package config resolves credentials and settings for the sync from
// environment variables and Viper configuration.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/alexatafm/solar-hub-sync/pkg/errors"
)

// Environment variable names for the two remote services.
const (
	EnvSimproURL    = "SIMPRO_URL"
	EnvSimproAPIKey = "SIMPRO_API_KEY"
	EnvHubSpotToken = "HUBSPOT_TOKEN"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	// Check OS env directly first
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// Credentials holds the API credentials for both remote services.
type Credentials struct {
	// SimproBaseURL is the company-scoped API root, including the
	// /api/v1.0/companies/{id} suffix.
	SimproBaseURL string
	SimproAPIKey  string
	HubSpotToken  string
}

// LoadCredentials reads credentials from the environment and Viper.
func LoadCredentials() Credentials {
	return Credentials{
		SimproBaseURL: strings.TrimRight(GetString(EnvSimproURL), "/"),
		SimproAPIKey:  GetString(EnvSimproAPIKey),
		HubSpotToken:  GetString(EnvHubSpotToken),
	}
}

// Validate reports every missing variable at once so operators fix the
// environment in one pass.
func (c Credentials) Validate() error {
	var missing []string
	if c.SimproBaseURL == "" {
		missing = append(missing, EnvSimproURL)
	}
	if c.SimproAPIKey == "" {
		missing = append(missing, EnvSimproAPIKey)
	}
	if c.HubSpotToken == "" {
		missing = append(missing, EnvHubSpotToken)
	}

	if len(missing) > 0 {
		return &errors.ConfigError{
			Component: "credentials",
			Message:   "missing required environment variables: " + strings.Join(missing, ", "),
		}
	}
	return nil
}
