package config

import "time"

type Config struct {
	DailyCreditAllotment int
	ReplyDelay           time.Duration
	SessionTokenTTL      time.Duration
}

func NewConfig() *Config {
	return &Config{
		DailyCreditAllotment: 10,
		ReplyDelay:           2 * time.Second,
		SessionTokenTTL:      72 * time.Hour,
	}
}
