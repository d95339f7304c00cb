package config

import "github.com/caarlos0/env/v11"

type AgentConfig struct {
	// TargetBotID is the subscriber id of the game bot the agent talks to.
	TargetBotID int64  `env:"TARGET_BOT_ID" envDefault:"80277459"`
	Personality string `env:"PERSONALITY_TYPE" envDefault:"balanced"`
	DBPath      string `env:"DB_PATH" envDefault:"./data/agent.db"`
}

func LoadAgent() (AgentConfig, error) {
	var cfg AgentConfig
	err := env.Parse(&cfg)
	return cfg, err
}
