package config

import (
	"os"
	"time"

	"gamingterminal-server/internal/util"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config provides configuration for the gaming terminal server
type Config struct {
	loaded         bool
	PGDSN          string `yaml:"pgDsn" envconfig:"pg_dsn"`
	MigrationsPath string `yaml:"migrationsPath" envconfig:"migrations_path"`
	JWT            struct {
		PublicKey  string `yaml:"publicKey" envconfig:"public_key"`
		PrivateKey string `yaml:"privateKey" envconfig:"private_key"`
	}
	Log struct {
		Level             string `yaml:"level"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	}
	Floor struct {
		// MaxBetsPerRound is used when a round is opened without maxBets
		MaxBetsPerRound int `yaml:"maxBetsPerRound" envconfig:"max_bets_per_round"`
		// LedgerTimeout bounds ledger writes made from inside a machine call
		LedgerTimeout time.Duration `yaml:"ledgerTimeout" envconfig:"ledger_timeout"`
	}
}

var config Config

// DefaultConfig returns the configuration used when no value is provided
func DefaultConfig() Config {
	c := Config{
		PGDSN:          "postgres://postgres@localhost:5432/postgres?sslmode=disable",
		MigrationsPath: "./sql",
	}

	c.JWT.PublicKey = ".keys/public.pem"
	c.JWT.PrivateKey = ".keys/private.key"
	c.Log.Level = "info"
	c.Floor.LedgerTimeout = time.Second * 5

	return c
}

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration
// A missing configuration file is not an error, the defaults and environment are used instead
func Load() error {
	config = DefaultConfig()

	configFile := util.Getenv("GTS_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	} else {
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return err
		}
	}

	if err := envconfig.Process("gts", &config); err != nil {
		return err
	}

	config.loaded = true
	return nil
}
