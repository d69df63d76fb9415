package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ReviewerOutreach/internal/domain"
)

func TestLoadMergesFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output:
  conferences_csv: out/conferences.csv
email_generation:
  model: gpt-4
  timeout: 12
smtp:
  host: mail.example.org
  port: 2525
  use_tls: false
  min_delay: 0.5
`), 0o644))

	t.Setenv(openAIAPIKeyEnv, "sk-test")
	t.Setenv(emailAddressEnv, "me@example.org")
	t.Setenv(emailPasswordEnv, "pw")

	cfg := Load(path)

	require.Equal(t, "out/conferences.csv", cfg.Output.ConferencesCSV)
	require.Equal(t, "venue_research.csv", cfg.Output.VenueResearchCSV)
	require.Equal(t, "gpt-4", cfg.EmailGeneration.Model)
	require.Equal(t, 12*time.Second, cfg.EmailGeneration.Timeout.Duration())
	require.Equal(t, 450, cfg.EmailGeneration.MaxTokens)
	require.Equal(t, 3, cfg.EmailGeneration.MaxRetries)
	require.Equal(t, "sk-test", cfg.EmailGeneration.APIKey)
	require.Equal(t, "mail.example.org", cfg.SMTP.Host)
	require.Equal(t, 2525, cfg.SMTP.Port)
	require.False(t, cfg.SMTP.UseTLS)
	require.Equal(t, 500*time.Millisecond, cfg.SMTP.MinDelay.Duration())
	require.True(t, cfg.SMTP.HasCredentials())
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.Equal(t, "https://openreview.net", cfg.Scraper.BaseURL)
	require.Equal(t, 1500*time.Millisecond, cfg.Scraper.Delay.Duration())
	require.Equal(t, 5, cfg.Research.NumResults)
	require.InDelta(t, 0.7, cfg.EmailGeneration.Temperature, 1e-9)
}

func TestLoadProfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "user_profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Ada Lovelace
affiliation: Analytical Engine Lab
identity: I study mechanical computation.
email: ada@example.org
publications:
  - Notes on the engine.
expertise:
  - domain: Machine Learning
    focus: optimisation
`), 0o644))

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	require.Equal(t, domain.Profile{
		Name:         "Ada Lovelace",
		Affiliation:  "Analytical Engine Lab",
		Identity:     "I study mechanical computation.",
		Email:        "ada@example.org",
		Publications: []string{"Notes on the engine."},
		Expertise:    []domain.Expertise{{Domain: "Machine Learning", Focus: "optimisation"}},
	}, profile)
}

func TestLoadProfileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadProfileValidates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "user_profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
email: not-an-address
expertise:
  - focus: optimisation
`), 0o644))

	_, err := LoadProfile(path)
	require.ErrorIs(t, err, domain.ErrConfiguration)
	require.Contains(t, err.Error(), "profile.name is required")
	require.Contains(t, err.Error(), "profile.email must be a valid email")
	require.Contains(t, err.Error(), "profile.expertise[0].domain is required")
}

func TestSMTPAuthAllowed(t *testing.T) {
	t.Parallel()

	require.True(t, SMTPConfig{Host: "smtp.gmail.com", UseTLS: true}.AuthAllowed())
	require.True(t, SMTPConfig{Host: "localhost"}.AuthAllowed())
	require.True(t, SMTPConfig{Host: "127.0.0.1"}.AuthAllowed())
	require.False(t, SMTPConfig{Host: "smtp.gmail.com"}.AuthAllowed())
}
