package main

import (
	"github.com/fgeck/lanwake/internal/config"
	"github.com/fgeck/lanwake/internal/hosts"
	"github.com/fgeck/lanwake/internal/models"
	"github.com/rs/zerolog/log"
)

// loadConfig reads and validates the config file, applying --hosts.
func loadConfig() (*models.Config, error) {
	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return nil, err
	}

	if hostsFile != "" {
		cfg.HostsFile = hostsFile
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return nil, err
	}

	log.Debug().
		Str("config", configFile).
		Str("hosts", cfg.HostsFile).
		Str("broadcast", cfg.Send.BroadcastIP).
		Int("port", cfg.Send.Port).
		Int("repeat", cfg.Send.Repeat).
		Dur("delay", cfg.Send.Delay).
		Msg("configuration loaded")

	return cfg, nil
}

// loadTable reads the mapping file named by cfg.
func loadTable(cfg *models.Config) (*hosts.Table, error) {
	table, err := hosts.Load(cfg.HostsFile, log.Logger)
	if err != nil {
		log.Error().Err(err).Str("file", cfg.HostsFile).Msg("failed to load hosts file")
		return nil, err
	}
	return table, nil
}
