package config

import "github.com/caarlos0/env/v11"

type HealthConfig struct {
	Addr    string `env:"HEALTH_ADDR" envDefault:":3000"`
	Enabled bool   `env:"HEALTH_ENABLED" envDefault:"true"`
}

func LoadHealth() (HealthConfig, error) {
	var cfg HealthConfig
	err := env.Parse(&cfg)
	return cfg, err
}
