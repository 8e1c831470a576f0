package config

type Config interface {
	EnvConfig
	IamConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	IamVars
}

func New() Config {
	return mainConfig{}
}
