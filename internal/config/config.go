package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	DataDir        string
	StorageBackend string
	HTTPAddr       string
	PublicBaseURL  string
	CORSOrigins    []string

	EventTimezone  string
	EventZoneLabel string
	PortalName     string

	LogLevel  string
	LogFormat string

	WhatsAppEnabled     bool
	WhatsAppCountryCode string
	ConsoleEnabled      bool

	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	GreetingTimeout time.Duration
	GreetingRPS     float64
}

// LoadConfig loads configuration from environment variables or defaults.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		DataDir:        getEnv("DATA_DIR", "data"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "file")),
		HTTPAddr:       getEnv("HTTP_ADDR", ":3000"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", "http://localhost:3000/"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),

		EventTimezone:  getEnv("EVENT_TIMEZONE", "Local"),
		EventZoneLabel: getEnv("EVENT_ZONE_LABEL", "WIB"),
		PortalName:     getEnv("PORTAL_NAME", "Darul Huda Portal"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "pretty"),

		WhatsAppEnabled:     getBool("WHATSAPP_ENABLED", false),
		WhatsAppCountryCode: getEnv("WHATSAPP_COUNTRY_CODE", "62"),
		ConsoleEnabled:      getBool("CONSOLE_ENABLED", true),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", os.Getenv("API_KEY")),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GreetingTimeout: getDuration("GREETING_TIMEOUT", 5*time.Second),
		GreetingRPS:     getFloat("GREETING_RPS", 1),
	}
}

// Location resolves EventTimezone. "Local" and "" map to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.EventTimezone == "" || strings.EqualFold(c.EventTimezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.EventTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_TIMEZONE %q: %w", c.EventTimezone, err)
	}
	return loc, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "file", "sqlite", "badger", "memory":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.GreetingRPS <= 0 {
		return fmt.Errorf("GREETING_RPS must be positive, got %v", c.GreetingRPS)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
