// Package config defines the npcgate configuration schema and loader.
//
// The config file lives at ~/.npcgate/config.json with camelCase keys.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// ClaudeConfig holds the completion-service endpoint parameters.
type ClaudeConfig struct {
	APIKey         string `json:"apiKey"`
	APIBase        string `json:"apiBase,omitempty"`
	Model          string `json:"model"`
	MaxTokens      int    `json:"maxTokens"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// NPCConfig holds conversation behaviour settings.
type NPCConfig struct {
	// HistoryPairs caps each session's history at 2×HistoryPairs turns.
	HistoryPairs int `json:"historyPairs"`
	// IdleTimeoutMinutes evicts sessions idle longer than this; ≤0 disables.
	IdleTimeoutMinutes int `json:"idleTimeoutMinutes"`
	// DefaultPersonality is the system prompt used when neither the host
	// nor the persona registry supplies one.
	DefaultPersonality string `json:"defaultPersonality"`
	// FallbackReply is sent to the user when a completion call fails.
	FallbackReply string `json:"fallbackReply"`
	// PersonasPath points at the YAML persona registry; empty means
	// ~/.npcgate/personas.yaml.
	PersonasPath string `json:"personasPath,omitempty"`
}

// HostConfig configures the game-host WebSocket bridge channel.
type HostConfig struct {
	Enabled    bool   `json:"enabled"`
	ListenAddr string `json:"listenAddr"`
	AuthToken  string `json:"authToken,omitempty"`
}

// TelegramConfig configures the Telegram channel.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AgentID   string   `json:"agentId"`
	AllowFrom []string `json:"allowFrom"`
}

// SlackConfig configures the Slack Socket Mode channel.
type SlackConfig struct {
	Enabled   bool     `json:"enabled"`
	BotToken  string   `json:"botToken"`
	AppToken  string   `json:"appToken"`
	AgentID   string   `json:"agentId"`
	AllowFrom []string `json:"allowFrom"`
}

// ChannelsConfig groups all channel adapters.
type ChannelsConfig struct {
	Host     HostConfig     `json:"host"`
	Telegram TelegramConfig `json:"telegram"`
	Slack    SlackConfig    `json:"slack"`
}

// AdminConfig configures the admin/metrics HTTP server; empty addr disables it.
type AdminConfig struct {
	ListenAddr string `json:"listenAddr"`
}

// Config is the root configuration object.
type Config struct {
	Claude   ClaudeConfig   `json:"claude"`
	NPC      NPCConfig      `json:"npc"`
	Channels ChannelsConfig `json:"channels"`
	Admin    AdminConfig    `json:"admin"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Claude: ClaudeConfig{
			Model:          "claude-3-5-haiku-20241022",
			MaxTokens:      1024,
			TimeoutSeconds: 30,
		},
		NPC: NPCConfig{
			HistoryPairs:       5,
			IdleTimeoutMinutes: 30,
			DefaultPersonality: "You are a helpful NPC in a game world. Keep responses concise (1-3 sentences).",
			FallbackReply:      "I seem a little confused and can't respond right now.",
		},
		Channels: ChannelsConfig{
			Host: HostConfig{
				Enabled:    true,
				ListenAddr: ":18800",
			},
			Telegram: TelegramConfig{AllowFrom: []string{}},
			Slack:    SlackConfig{AllowFrom: []string{}},
		},
		Admin: AdminConfig{
			ListenAddr: ":18801",
		},
	}
}

// IdleTimeout returns the idle timeout as a duration; zero or negative means
// idle eviction is disabled.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.NPC.IdleTimeoutMinutes) * time.Minute
}

// CompletionTimeout returns the per-request completion timeout.
func (c *Config) CompletionTimeout() time.Duration {
	return time.Duration(c.Claude.TimeoutSeconds) * time.Second
}

// PersonasPath resolves the persona registry path.
func (c *Config) PersonasPath() string {
	if c.NPC.PersonasPath != "" {
		return c.NPC.PersonasPath
	}
	return filepath.Join(DataDir(), "personas.yaml")
}

// ConfigPath returns the default configuration file path: ~/.npcgate/config.json.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// DataDir returns the npcgate data directory: ~/.npcgate.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".npcgate"
	}
	return filepath.Join(home, ".npcgate")
}
