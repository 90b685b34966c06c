package config

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// ReconnectConfig is the transport backoff policy: attempt N waits
// BaseDelayMS * 2^N milliseconds, and no automatic attempt happens after
// MaxAttempts consecutive failures.
type ReconnectConfig struct {
	BaseDelayMS int `json:"base_delay_ms"`
	MaxAttempts int `json:"max_attempts"`
}

// Config holds client configuration. It is loaded from the config file,
// then overridden by environment variables, then by flags.
type Config struct {
	BackendURL string `json:"backend_url"`
	Nickname   string `json:"nickname"`
	Room       string `json:"room,omitempty"`
	LogLevel   string `json:"log_level"`
	LogPath    string `json:"log_path"`

	Reconnect ReconnectConfig `json:"reconnect"`

	// TypingDecayMS is how long a typing indicator stays visible after the
	// last signal; TypingThrottleMS bounds how often the client sends one.
	TypingDecayMS    int `json:"typing_decay_ms"`
	TypingThrottleMS int `json:"typing_throttle_ms"`
}

// DefaultConfig returns the defaults used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		BackendURL: "http://localhost:8080",
		Nickname:   RandomNickname(),
		LogLevel:   "info",
		LogPath:    filepath.Join(defaultStateDir(), "boardsync.log"),
		Reconnect: ReconnectConfig{
			BaseDelayMS: 1500,
			MaxAttempts: 5,
		},
		TypingDecayMS:    1200,
		TypingThrottleMS: 750,
	}
}

// Path returns the config file location.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "boardsync", "config.json")
}

func defaultStateDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "boardsync")
}

// Load reads the config file at path, filling gaps with defaults and
// applying environment overrides. A missing file is not an error: the
// defaults are returned (and a nickname is generated and persisted so the
// user keeps the same identity across sessions, like the original's
// localStorage temp user).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BOARDSYNC_BACKEND_URL"); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv("BOARDSYNC_NICKNAME"); v != "" {
		c.Nickname = v
	}
	if v := os.Getenv("BOARDSYNC_ROOM"); v != "" {
		c.Room = v
	}
	if v := os.Getenv("BOARDSYNC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Nickname == "" {
		c.Nickname = def.Nickname
	}
	if c.Reconnect.BaseDelayMS <= 0 {
		c.Reconnect.BaseDelayMS = def.Reconnect.BaseDelayMS
	}
	if c.Reconnect.MaxAttempts <= 0 {
		c.Reconnect.MaxAttempts = def.Reconnect.MaxAttempts
	}
	if c.TypingDecayMS <= 0 {
		c.TypingDecayMS = def.TypingDecayMS
	}
	if c.TypingThrottleMS <= 0 {
		c.TypingThrottleMS = def.TypingThrottleMS
	}
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

var (
	nickAdjectives = []string{"bright", "swift", "calm", "brave", "mellow", "clever", "quiet", "bold", "eager", "neat"}
	nickAnimals    = []string{"sparrow", "otter", "koala", "lynx", "panda", "falcon", "tiger", "orca", "yak", "gecko"}
)

// RandomNickname generates a throwaway display name like bright_otter_412.
func RandomNickname() string {
	return fmt.Sprintf("%s_%s_%d",
		nickAdjectives[rand.Intn(len(nickAdjectives))],
		nickAnimals[rand.Intn(len(nickAnimals))],
		rand.Intn(900)+100)
}
