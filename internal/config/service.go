package config

import "time"

type ServiceConfig struct {
	Name        string       `yaml:"name"`
	Environment string       `yaml:"environment"`
	Version     string       `yaml:"version"`
	ClientURL   string       `yaml:"client_url"`
	JWTSecret   string       `yaml:"jwt_secret"`
	TrialDays   int64        `yaml:"trial_days"`
	Stripe      StripeConfig `yaml:"stripe"`
}

type StripeConfig struct {
	SecretKey         string        `yaml:"secret_key"`
	WebhookSecret     string        `yaml:"webhook_secret"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxNetworkRetries int64         `yaml:"max_network_retries"`
}
