package config

import (
	"strings"
	"testing"

	"github.com/alexatafm/solar-hub-sync/pkg/errors"
)

func TestLoadCredentials(t *testing.T) {
	t.Setenv(EnvSimproURL, "https://example.simprosuite.com/api/v1.0/companies/0/")
	t.Setenv(EnvSimproAPIKey, "sp-key")
	t.Setenv(EnvHubSpotToken, "hs-token")

	creds := LoadCredentials()
	if creds.SimproBaseURL != "https://example.simprosuite.com/api/v1.0/companies/0" {
		t.Errorf("SimproBaseURL = %q, want trailing slash trimmed", creds.SimproBaseURL)
	}
	if creds.SimproAPIKey != "sp-key" || creds.HubSpotToken != "hs-token" {
		t.Errorf("creds = %+v", creds)
	}
	if err := creds.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateListsAllMissing(t *testing.T) {
	err := Credentials{}.Validate()
	if err == nil {
		t.Fatal("Validate() on empty credentials returned nil")
	}

	var cfgErr *errors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *errors.ConfigError", err)
	}

	// Operators should see every missing variable at once.
	for _, name := range []string{EnvSimproURL, EnvSimproAPIKey, EnvHubSpotToken} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

func TestValidatePartial(t *testing.T) {
	err := Credentials{SimproBaseURL: "https://x", SimproAPIKey: "k"}.Validate()
	if err == nil {
		t.Fatal("Validate() with missing token returned nil")
	}
	if !strings.Contains(err.Error(), EnvHubSpotToken) {
		t.Errorf("error %q does not mention the missing token", err)
	}
	if strings.Contains(err.Error(), EnvSimproAPIKey) {
		t.Errorf("error %q mentions a variable that is set", err)
	}
}

func TestGetStringPrefersEnv(t *testing.T) {
	t.Setenv("SOLARSYNC_TEST_KEY", "from-env")
	if got := GetString("SOLARSYNC_TEST_KEY"); got != "from-env" {
		t.Errorf("GetString() = %q, want from-env", got)
	}
	if got := GetString("SOLARSYNC_TEST_UNSET"); got != "" {
		t.Errorf("GetString(unset) = %q, want empty", got)
	}
}
