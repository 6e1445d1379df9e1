// Package config provides configuration file parsing.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fgeck/lanwake/internal/models"
	"github.com/spf13/viper"
)

// ErrLoad is returned when the configuration is missing or malformed.
var ErrLoad = errors.New("failed to load configuration")

// DefaultHostsFile is the mapping file used when hostsfile is not set.
const DefaultHostsFile = "in.txt"

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser for properties files.
func NewParser() *Parser {
	return NewParserWithType("properties")
}

// NewParserWithType creates a parser for the given viper config type.
func NewParserWithType(configType string) *Parser {
	v := viper.New()
	v.SetConfigType(configType)
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path. YAML, JSON and TOML files
// are detected by extension; anything else is read as a properties file.
func (p *Parser) LoadFile(path string) (*models.Config, error) {
	p.v.SetConfigFile(path)
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yaml", "yml":
		p.v.SetConfigType("yaml")
	case "json":
		p.v.SetConfigType("json")
	case "toml":
		p.v.SetConfigType("toml")
	default:
		p.v.SetConfigType("properties")
	}

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading config file: %w", ErrLoad, err)
	}

	return p.parse()
}

// LoadReader loads configuration from a string (useful for testing).
func (p *Parser) LoadReader(content string) (*models.Config, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("%w: reading config: %w", ErrLoad, err)
	}

	return p.parse()
}

//nolint:gocyclo // parsing config requires checking many fields
func (p *Parser) parse() (*models.Config, error) {
	cfg := &models.Config{}

	delay, err := p.requiredInt("delay")
	if err != nil {
		return nil, err
	}
	repeat, err := p.requiredInt("repeat")
	if err != nil {
		return nil, err
	}
	if delay < 0 {
		return nil, fmt.Errorf("%w: delay must not be negative", ErrLoad)
	}
	if repeat < 0 {
		return nil, fmt.Errorf("%w: repeat must not be negative", ErrLoad)
	}

	cfg.Send = models.SendConfig{
		Delay:       time.Duration(delay) * time.Millisecond,
		Repeat:      repeat,
		BroadcastIP: p.getString("broadcast"),
		Port:        models.DefaultPort,
	}

	if cfg.Send.BroadcastIP == "" {
		cfg.Send.BroadcastIP = models.DefaultBroadcastIP
	}
	if net.ParseIP(cfg.Send.BroadcastIP) == nil {
		return nil, fmt.Errorf("%w: broadcast %q is not an IP address", ErrLoad, cfg.Send.BroadcastIP)
	}

	if p.v.IsSet("port") {
		port, err := p.requiredInt("port")
		if err != nil {
			return nil, err
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("%w: port must be between 1 and 65535", ErrLoad)
		}
		cfg.Send.Port = port
	}

	cfg.HostsFile = p.getString("hostsfile")
	if cfg.HostsFile == "" {
		cfg.HostsFile = DefaultHostsFile
	}
	cfg.SingleIP = p.getString("singleip")
	cfg.StartIP = p.getString("startip")
	cfg.EndIP = p.getString("endip")
	cfg.MetricsFile = p.getString("metricsfile")

	// Parse optional SSH shutdown config.
	if p.v.IsSet("ssh") { //nolint:nestif // config parsing with defaults
		cfg.SSH = &models.SSHShutdownConfig{
			Username: p.getString("ssh.user"),
			KeyPath:  p.getString("ssh.keypath"),
			OS:       p.getString("ssh.os"),
			Port:     22,
		}

		if p.v.IsSet("ssh.port") {
			if cfg.SSH.Port, err = p.requiredInt("ssh.port"); err != nil {
				return nil, err
			}
		}
		if p.v.IsSet("ssh.delay") {
			if cfg.SSH.ShutdownDelay, err = p.requiredInt("ssh.delay"); err != nil {
				return nil, err
			}
		} else {
			cfg.SSH.ShutdownDelay = 1
		}

		if cfg.SSH.KeyPath == "" {
			return nil, fmt.Errorf("%w: ssh.keypath is required when ssh is configured", ErrLoad)
		}
		if cfg.SSH.Username == "" {
			cfg.SSH.Username = "root"
		}
		if cfg.SSH.OS == "" {
			cfg.SSH.OS = "linux"
		}
		validOS := map[string]bool{"linux": true, "windows": true}
		if !validOS[cfg.SSH.OS] {
			return nil, fmt.Errorf("%w: ssh.os must be one of: linux, windows", ErrLoad)
		}
	}

	// Parse optional Telegram notification config.
	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.getString("telegram.bottoken"),
			ChatID:   p.getString("telegram.chatid"),
		}
		if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("%w: telegram.bottoken and telegram.chatid are required when telegram is configured", ErrLoad)
		}
	}

	return cfg, nil
}

// requiredInt reads key as a base-10 integer. Missing and non-numeric
// values are errors.
func (p *Parser) requiredInt(key string) (int, error) {
	if !p.v.IsSet(key) {
		return 0, fmt.Errorf("%w: %s is required", ErrLoad, key)
	}
	raw := p.getString(key)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrLoad, key, raw)
	}
	return n, nil
}

func (p *Parser) getString(key string) string {
	return strings.TrimSpace(p.expandEnv(p.v.GetString(key)))
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", ErrLoad)
	}

	if cfg.Send.Repeat < 0 {
		return fmt.Errorf("%w: repeat must not be negative", ErrLoad)
	}

	if cfg.Send.Delay < 0 {
		return fmt.Errorf("%w: delay must not be negative", ErrLoad)
	}

	if cfg.Send.Port < 1 || cfg.Send.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535", ErrLoad)
	}

	if net.ParseIP(cfg.Send.BroadcastIP) == nil {
		return fmt.Errorf("%w: broadcast %q is not an IP address", ErrLoad, cfg.Send.BroadcastIP)
	}

	if cfg.HostsFile == "" {
		return fmt.Errorf("%w: hostsfile is required", ErrLoad)
	}

	return nil
}
