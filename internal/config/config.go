package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	RabbitMQURL       string `env:"RABBITMQ_URL,required=true"`
	GatewayBaseURL    string `env:"GATEWAY_BASE_URL,required=true"`
	CronSecret        string `env:"CRON_SECRET,required=true"`
	SweepIntervalSec  int    `env:"SWEEP_INTERVAL_SEC,default=60"`
	SweepLimit        int    `env:"SWEEP_LIMIT,default=100"`
	FanOutConcurrency int    `env:"FANOUT_CONCURRENCY,default=4"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
