package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        string   `envconfig:"PORT" default:"8080"`
	GinMode     string   `envconfig:"GIN_MODE" default:"debug"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	// Auth for the chat API; both empty disables it
	StaticTokens []string `envconfig:"STATIC_TOKENS"`
	JWTSecret    string   `envconfig:"JWT_HMAC_SECRET"`

	// Playtomic
	ClientID        string        `envconfig:"PLAYTOMIC_CLIENT_ID" required:"true"`
	ClientSecret    string        `envconfig:"PLAYTOMIC_CLIENT_SECRET" required:"true"`
	TenantID        string        `envconfig:"PLAYTOMIC_TENANT_ID" required:"true"`
	VenueID         string        `envconfig:"PLAYTOMIC_VENUE_ID"`
	SportID         string        `envconfig:"PLAYTOMIC_SPORT_ID" default:"PADEL"`
	APIURL          string        `envconfig:"PLAYTOMIC_API_URL" default:"https://thirdparty.playtomic.io/api/v1"`
	PublicAPIURL    string        `envconfig:"PLAYTOMIC_PUBLIC_API_URL" default:"https://api.playtomic.io/v1"`
	Timeout         time.Duration `envconfig:"PLAYTOMIC_TIMEOUT" default:"30s"`
	TokenMargin     time.Duration `envconfig:"PLAYTOMIC_TOKEN_MARGIN" default:"60s"`
	PageSize        int           `envconfig:"PLAYTOMIC_PAGE_SIZE" default:"200"`
	PlayersPageSize int           `envconfig:"PLAYTOMIC_PLAYERS_PAGE_SIZE" default:"100"`

	// Language model
	OpenAIKey     string        `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL"`
	OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`

	// Club
	ClubName     string `envconfig:"CLUB_NAME" default:"the club"`
	ClubTimezone string `envconfig:"CLUB_TIMEZONE" default:"America/Cancun"`
	Currency     string `envconfig:"CLUB_CURRENCY" default:"EUR"`

	// Agent
	MaxIterations   int `envconfig:"AGENT_MAX_ITERATIONS" default:"5"`
	ToolConcurrency int `envconfig:"AGENT_TOOL_CONCURRENCY" default:"4"`

	// Optional turn audit log
	DatabaseURL string `envconfig:"DATABASE_URL"`
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	if c.VenueID == "" {
		c.VenueID = c.TenantID
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("AGENT_MAX_ITERATIONS must be at least 1, got %d", c.MaxIterations)
	}
	if c.ToolConcurrency < 1 {
		return fmt.Errorf("AGENT_TOOL_CONCURRENCY must be at least 1, got %d", c.ToolConcurrency)
	}
	if c.PageSize < 1 || c.PlayersPageSize < 1 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.Timeout <= 0 || c.OpenAITimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.TokenMargin < 0 {
		return fmt.Errorf("PLAYTOMIC_TOKEN_MARGIN must not be negative")
	}
	if _, err := time.LoadLocation(c.ClubTimezone); err != nil {
		return fmt.Errorf("CLUB_TIMEZONE: %w", err)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.GinMode, "release")
}

// AuthEnabled reports whether the chat API requires a bearer token.
func (c Config) AuthEnabled() bool {
	for _, t := range c.StaticTokens {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return c.JWTSecret != ""
}
