// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Learn LearnConfig `toml:"learn"`
	Goal  GoalConfig  `toml:"goal"`
	Shop  ShopConfig  `toml:"shop"`
	API   APIConfig   `toml:"api"`
	Chat  ChatConfig  `toml:"chat"`
}

// LearnConfig maps lesson-related settings.
type LearnConfig struct {
	Source         *string `toml:"source"`
	Pack           *string `toml:"pack"`
	XPPerChallenge *int    `toml:"xp-per-challenge"`
	Distractors    *int    `toml:"distractors"`
	Report         *bool   `toml:"report"`
	Level          *string `toml:"level"`
}

// GoalConfig maps daily goal settings.
type GoalConfig struct {
	XP *int `toml:"xp"`
}

// ShopConfig maps lingot shop settings.
type ShopConfig struct {
	AllowDebt *bool `toml:"allow-debt"`
}

// APIConfig maps backend settings.
type APIConfig struct {
	BaseURL *string   `toml:"base-url"`
	UserID  *int      `toml:"user-id"`
	Timeout *Duration `toml:"timeout"`
}

// ChatConfig maps AI assistant settings.
type ChatConfig struct {
	Model *string `toml:"model"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
