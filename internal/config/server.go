package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	RPCURL        string `env:"CHAIN_RPC_URL" envDefault:"https://api.mainnet-beta.solana.com"`
	CustodyURL    string `env:"CUSTODY_URL"`
	CustodyAPIKey string `env:"CUSTODY_API_KEY"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
