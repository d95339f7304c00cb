package config

type AppConfig struct {
	Chat   ChatConfig
	Agent  AgentConfig
	Health HealthConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	chatCfg, err := LoadChat()
	if err != nil {
		return AppConfig{}, err
	}
	agentCfg, err := LoadAgent()
	if err != nil {
		return AppConfig{}, err
	}
	healthCfg, err := LoadHealth()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Chat:   chatCfg,
		Agent:  agentCfg,
		Health: healthCfg,
		Log:    logCfg,
	}, nil
}
