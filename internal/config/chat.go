package config

import "github.com/caarlos0/env/v11"

type ChatConfig struct {
	GatewayURL string `env:"CHAT_GATEWAY_URL" envDefault:"wss://gateway.wolf.live/ws"`
	Email      string `env:"BOT_EMAIL,required,notEmpty"`
	Password   string `env:"BOT_PASSWORD,required,notEmpty"`
}

func LoadChat() (ChatConfig, error) {
	var cfg ChatConfig
	err := env.Parse(&cfg)
	return cfg, err
}
