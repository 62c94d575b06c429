package config

import (
	"errors"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

const (
	defaultEnv        = "dev"
	defaultDBPath     = "./calculator.db"
	defaultPort       = "8080"
	defaultConfigFile = "config.ini"
)

// Config holds application configuration sourced from an optional INI file
// and environment variables.
type Config struct {
	Env        string
	DBPath     string
	Port       string
	ConfigFile string
}

// IsDev reports whether the process runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}

// Load reads the dotenv file, the INI file and the environment, in that order
// of increasing precedence, and returns a populated Config.
func Load() Config {
	if err := loadDotEnv(".env"); err != nil {
		log.WithError(err).Warn(".env ignored")
	}

	cfg := Config{ConfigFile: os.Getenv("CONFIG_FILE")}
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = defaultConfigFile
	}

	if err := loadINI(cfg.ConfigFile, &cfg); err != nil {
		log.WithFields(log.Fields{
			"file":  cfg.ConfigFile,
			"error": err,
		}).Warn("config file ignored")
	}

	overrideFromEnv(&cfg)

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	return cfg
}

// loadINI fills cfg from sections [app], [server] and [database]. A missing
// file is not an error.
func loadINI(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	file, err := ini.Load(path)
	if err != nil {
		return err
	}

	cfg.Env = file.Section("app").Key("env").MustString(cfg.Env)
	cfg.Port = file.Section("server").Key("port").MustString(cfg.Port)
	cfg.DBPath = file.Section("database").Key("path").MustString(cfg.DBPath)
	return nil
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
}
