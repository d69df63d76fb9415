package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ReviewerOutreach/internal/domain"
)

const (
	defaultConfigPath  = "config/config.yaml"
	defaultProfilePath = "config/user_profile.yaml"

	configPathEnv    = "OUTREACH_CONFIG"
	profilePathEnv   = "OUTREACH_PROFILE"
	logLevelEnv      = "OUTREACH_LOG_LEVEL"
	exaAPIKeyEnv     = "EXA_API_KEY"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	emailAddressEnv  = "EMAIL_ADDRESS"
	emailPasswordEnv = "EMAIL_PASSWORD"
)

// Seconds is a duration written in YAML as a (possibly fractional) number of seconds.
type Seconds float64

// Duration converts to time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(float64(s) * float64(time.Second))
}

// Config holds every setting the pipeline stages need.
type Config struct {
	Output          OutputConfig     `yaml:"output"`
	Scraper         ScraperConfig    `yaml:"scraper"`
	Research        ResearchConfig   `yaml:"research"`
	EmailGeneration GenerationConfig `yaml:"email_generation"`
	SMTP            SMTPConfig       `yaml:"smtp"`
	Ledger          LedgerConfig     `yaml:"ledger"`
	Logging         LoggingConfig    `yaml:"logging"`
}

// OutputConfig names the CSV files exchanged between stages.
type OutputConfig struct {
	ConferencesCSV   string `yaml:"conferences_csv"`
	VenueResearchCSV string `yaml:"venue_research_csv"`
	EmailsCSV        string `yaml:"emails_csv"`
	MissingEmailsCSV string `yaml:"missing_emails_csv"`
}

// ScraperConfig controls how politely the submissions site is crawled.
type ScraperConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Delay     Seconds `yaml:"delay"`
	Timeout   Seconds `yaml:"timeout"`
	UserAgent string  `yaml:"user_agent"`
}

// ResearchConfig describes the search service used to enrich venues.
type ResearchConfig struct {
	Endpoint              string  `yaml:"endpoint"`
	APIKey                string  `yaml:"api_key"`
	NumResults            int     `yaml:"num_results"`
	HighlightsPerURL      int     `yaml:"highlights_per_url"`
	SentencesPerHighlight int     `yaml:"num_sentences"`
	Timeout               Seconds `yaml:"timeout"`
}

// GenerationConfig defines how to contact the chat-completions API.
type GenerationConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     Seconds `yaml:"timeout"`
	MaxRetries  int     `yaml:"max_retries"`
}

// SMTPConfig wires the outbound mail server.
type SMTPConfig struct {
	Host     string  `yaml:"host"`
	Port     int     `yaml:"port"`
	UseTLS   bool    `yaml:"use_tls"`
	Username string  `yaml:"username"`
	Password string  `yaml:"password"`
	Timeout  Seconds `yaml:"timeout"`
	MinDelay Seconds `yaml:"min_delay"`
}

// HasCredentials reports whether both username and password are set.
func (s SMTPConfig) HasCredentials() bool {
	return s.Username != "" && s.Password != ""
}

// AuthAllowed reports whether credentials may be sent: over STARTTLS, or in
// plain text to a relay on the loopback interface only.
func (s SMTPConfig) AuthAllowed() bool {
	if s.UseTLS {
		return true
	}
	switch s.Host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// LedgerConfig locates the sent-message database; an empty path disables it.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) over the defaults and applies
// environment overrides. An empty path falls back to OUTREACH_CONFIG and then
// config/config.yaml.
func Load(path string) Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	explicit := path != ""
	if path == "" {
		path = defaultConfigPath
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.fillZeroes()
	return cfg
}

// LoadProfile reads the researcher profile. Unlike Load it fails hard: every
// generated message depends on it.
func LoadProfile(path string) (domain.Profile, error) {
	if path == "" {
		path = os.Getenv(profilePathEnv)
	}
	if path == "" {
		path = defaultProfilePath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}

	var profile domain.Profile
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return domain.Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := validateProfile(profile); err != nil {
		return domain.Profile{}, fmt.Errorf("profile %s: %w: %w", path, domain.ErrConfiguration, err)
	}
	return profile, nil
}

var validate = validator.New()

func validateProfile(p domain.Profile) error {
	err := validate.Struct(p)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		field := strings.ToLower(e.Namespace())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(exaAPIKeyEnv); v != "" {
		c.Research.APIKey = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.EmailGeneration.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.EmailGeneration.Model = v
	}

	if v := os.Getenv(emailAddressEnv); v != "" {
		c.SMTP.Username = v
	}

	if v := os.Getenv(emailPasswordEnv); v != "" {
		c.SMTP.Password = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// fillZeroes restores defaults for numeric knobs a YAML file set to zero.
func (c *Config) fillZeroes() {
	def := defaultConfig()

	if c.Research.NumResults <= 0 {
		c.Research.NumResults = def.Research.NumResults
	}
	if c.Research.HighlightsPerURL <= 0 {
		c.Research.HighlightsPerURL = def.Research.HighlightsPerURL
	}
	if c.Research.SentencesPerHighlight <= 0 {
		c.Research.SentencesPerHighlight = def.Research.SentencesPerHighlight
	}
	if c.EmailGeneration.MaxTokens <= 0 {
		c.EmailGeneration.MaxTokens = def.EmailGeneration.MaxTokens
	}
	if c.EmailGeneration.MaxRetries <= 0 {
		c.EmailGeneration.MaxRetries = def.EmailGeneration.MaxRetries
	}
	if c.EmailGeneration.Timeout <= 0 {
		c.EmailGeneration.Timeout = def.EmailGeneration.Timeout
	}
	if c.SMTP.Timeout <= 0 {
		c.SMTP.Timeout = def.SMTP.Timeout
	}
}

func defaultConfig() Config {
	return Config{
		Output: OutputConfig{
			ConferencesCSV:   "conferences.csv",
			VenueResearchCSV: "venue_research.csv",
			EmailsCSV:        "emails.csv",
			MissingEmailsCSV: "missing_emails.csv",
		},
		Scraper: ScraperConfig{
			BaseURL: "https://openreview.net",
			Delay:   1.5,
			Timeout: 30,
		},
		Research: ResearchConfig{
			Endpoint:              "https://api.exa.ai",
			NumResults:            5,
			HighlightsPerURL:      3,
			SentencesPerHighlight: 2,
			Timeout:               30,
		},
		EmailGeneration: GenerationConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-5",
			Temperature: 0.7,
			MaxTokens:   450,
			Timeout:     30,
			MaxRetries:  3,
		},
		SMTP: SMTPConfig{
			Host:     "smtp.gmail.com",
			Port:     587,
			UseTLS:   true,
			Timeout:  30,
			MinDelay: 1.5,
		},
		Ledger:  LedgerConfig{Path: "sent_emails.db"},
		Logging: LoggingConfig{Level: "info"},
	}
}
