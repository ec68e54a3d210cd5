package config

import (
	"time"

	"github.com/vovakirdan/callstate/internal/state"
)

// Config holds the inspector and simulator configuration.
type Config struct {
	LogLevel               string        `mapstructure:"log_level" yaml:"log_level"`
	Addr                   string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout      time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout        time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxCallHistory         int           `mapstructure:"max_call_history" yaml:"max_call_history"`
	MaxIncomingCallHistory int           `mapstructure:"max_incoming_call_history" yaml:"max_incoming_call_history"`
	// WSMessageLimit caps inbound websocket messages per client per minute.
	// Zero disables the limit.
	WSMessageLimit int `mapstructure:"ws_message_limit" yaml:"ws_message_limit"`

	Credential Credential `mapstructure:"credential" yaml:"credential"`
	Simulation Simulation `mapstructure:"simulation" yaml:"simulation"`
}

// Credential configures the access token handed to the simulated SDK.
type Credential struct {
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	APISecret   string        `mapstructure:"api_secret" yaml:"api_secret"`
	Identity    string        `mapstructure:"identity" yaml:"identity"`
	DisplayName string        `mapstructure:"display_name" yaml:"display_name"`
	TTL         time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Simulation shapes the scripted session driven against the simulated SDK.
type Simulation struct {
	Calls               int           `mapstructure:"calls" yaml:"calls"`
	ParticipantsPerCall int           `mapstructure:"participants_per_call" yaml:"participants_per_call"`
	Tick                time.Duration `mapstructure:"tick" yaml:"tick"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		LogLevel:               "info",
		Addr:                   ":8080",
		ReadHeaderTimeout:      5 * time.Second,
		ShutdownTimeout:        5 * time.Second,
		MaxCallHistory:         state.MaxCallHistoryLength,
		MaxIncomingCallHistory: state.MaxIncomingCallHistoryLength,
		WSMessageLimit:         120,
		Credential: Credential{
			APIKey:      "devkey",
			APISecret:   "change-me-in-production-secret-0",
			Identity:    "8:acs:local-user",
			DisplayName: "Local User",
			TTL:         time.Hour,
		},
		Simulation: Simulation{
			Calls:               2,
			ParticipantsPerCall: 3,
			Tick:                500 * time.Millisecond,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.MaxCallHistory != 0 {
		c.MaxCallHistory = other.MaxCallHistory
	}
	if other.MaxIncomingCallHistory != 0 {
		c.MaxIncomingCallHistory = other.MaxIncomingCallHistory
	}
	if other.WSMessageLimit != 0 {
		c.WSMessageLimit = other.WSMessageLimit
	}
	if other.Credential.APIKey != "" {
		c.Credential.APIKey = other.Credential.APIKey
	}
	if other.Credential.APISecret != "" {
		c.Credential.APISecret = other.Credential.APISecret
	}
	if other.Credential.Identity != "" {
		c.Credential.Identity = other.Credential.Identity
	}
	if other.Credential.DisplayName != "" {
		c.Credential.DisplayName = other.Credential.DisplayName
	}
	if other.Credential.TTL != 0 {
		c.Credential.TTL = other.Credential.TTL
	}
	if other.Simulation.Calls != 0 {
		c.Simulation.Calls = other.Simulation.Calls
	}
	if other.Simulation.ParticipantsPerCall != 0 {
		c.Simulation.ParticipantsPerCall = other.Simulation.ParticipantsPerCall
	}
	if other.Simulation.Tick != 0 {
		c.Simulation.Tick = other.Simulation.Tick
	}
}
