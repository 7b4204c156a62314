// Package config loads the bot configuration from a YAML file, with
// ${VAR} placeholders expanded from the environment so secrets stay out
// of the file itself.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Discord struct {
		Token     string `yaml:"token"`
		AppID     string `yaml:"app_id"`
		PublicKey string `yaml:"public_key"`
		// GuildID restricts command registration to one guild, for
		// testing. Empty registers globally.
		GuildID string `yaml:"guild_id"`
	} `yaml:"discord"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Replace environment variable placeholders in the YAML content
	content := string(data)
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		placeholder := "${" + pair[0] + "}"
		content = strings.ReplaceAll(content, placeholder, pair[1])
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "anniversary.db"
	}
	if cfg.Discord.Token == "" {
		return nil, fmt.Errorf("discord.token must be set")
	}
	if cfg.Discord.AppID == "" {
		return nil, fmt.Errorf("discord.app_id must be set")
	}
	if cfg.Discord.PublicKey == "" {
		return nil, fmt.Errorf("discord.public_key must be set")
	}

	return &cfg, nil
}
