package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every server setting read from the environment.
const EnvPrefix = "STICKPLOT_"

// ServerEnv holds settings for the HTTP server, read from STICKPLOT_* variables.
type ServerEnv struct {
	ListenAddr    string        `env:"LISTEN_ADDR" envDefault:"0.0.0.0"`
	Port          int           `env:"PORT" envDefault:"8080"`
	ConfigPath    string        `env:"CONFIG" envDefault:"config.yaml"`
	ConfigBackend string        `env:"CONFIG_BACKEND" envDefault:"yaml"`
	Debug         bool          `env:"DEBUG" envDefault:"false"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" envDefault:"60s"`
	Cert          string        `env:"TLS_CERT"`
	Key           string        `env:"TLS_KEY"`

	// The management API is off unless MANAGEMENT_PORT is set.
	ManagementListenAddr string `env:"MANAGEMENT_LISTEN_ADDR" envDefault:"127.0.0.1"`
	ManagementPort       int    `env:"MANAGEMENT_PORT" envDefault:"0"`
	ManagementToken      string `env:"MANAGEMENT_TOKEN"`
}

// LoadServerEnv reads server settings from the environment, after loading a .env file
// from the working directory if there is one.
func LoadServerEnv() (*ServerEnv, error) {
	_ = godotenv.Load()
	return parseServerEnv(env.Options{Prefix: EnvPrefix})
}

func parseServerEnv(opts env.Options) (*ServerEnv, error) {
	cfg := &ServerEnv{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse server environment: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.ManagementPort < 0 || cfg.ManagementPort > 65535 {
		return nil, fmt.Errorf("invalid management port %d", cfg.ManagementPort)
	}
	if cfg.ManagementPort != 0 && cfg.ManagementPort == cfg.Port {
		return nil, fmt.Errorf("management port %d collides with the server port", cfg.ManagementPort)
	}
	if (cfg.Cert == "") != (cfg.Key == "") {
		return nil, fmt.Errorf("TLS needs both %sTLS_CERT and %sTLS_KEY", EnvPrefix, EnvPrefix)
	}
	return cfg, nil
}

// Addr returns the listen address in host:port form.
func (s *ServerEnv) Addr() string {
	return fmt.Sprintf("%s:%d", s.ListenAddr, s.Port)
}

// ManagementAddr returns the management API listen address in host:port form.
func (s *ServerEnv) ManagementAddr() string {
	return fmt.Sprintf("%s:%d", s.ManagementListenAddr, s.ManagementPort)
}
