package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                = "ARENA"
	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultLedgerPath        = "arena-ledger.db"
	defaultLogLevel          = "info"
	defaultPollInterval      = 10 * time.Second
	defaultCreatedEventLimit = 50
	defaultJoinedEventLimit  = 500
	defaultStatusDisplayFor  = 3 * time.Second
)

// AppConfig captures runtime configuration for the arena API server.
type AppConfig struct {
	HTTPAddress          string
	ActorAddress         string
	LedgerPath           string
	LogLevel             string
	PollInterval         time.Duration
	CreatedEventLimit    int
	JoinedEventLimit     int
	StatusDisplayFor     time.Duration
	SessionSigningSecret string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("ledger.path", defaultLedgerPath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("poll.interval", defaultPollInterval)
	configViper.SetDefault("poll.created_limit", defaultCreatedEventLimit)
	configViper.SetDefault("poll.joined_limit", defaultJoinedEventLimit)
	configViper.SetDefault("status.display_for", defaultStatusDisplayFor)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:          configViper.GetString("http.address"),
		ActorAddress:         configViper.GetString("actor.address"),
		LedgerPath:           configViper.GetString("ledger.path"),
		LogLevel:             configViper.GetString("log.level"),
		PollInterval:         configViper.GetDuration("poll.interval"),
		CreatedEventLimit:    configViper.GetInt("poll.created_limit"),
		JoinedEventLimit:     configViper.GetInt("poll.joined_limit"),
		StatusDisplayFor:     configViper.GetDuration("status.display_for"),
		SessionSigningSecret: configViper.GetString("session.signing_secret"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.ActorAddress) == "" {
		return fmt.Errorf("actor.address is required")
	}
	if strings.TrimSpace(c.LedgerPath) == "" {
		return fmt.Errorf("ledger.path is required")
	}
	if strings.TrimSpace(c.SessionSigningSecret) == "" {
		return fmt.Errorf("session.signing_secret is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.CreatedEventLimit <= 0 || c.JoinedEventLimit <= 0 {
		return fmt.Errorf("event query limits must be positive")
	}
	return nil
}
