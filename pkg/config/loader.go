// Package config parses configuration from the process environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from environment variables using `env` struct tags.
//
// Example:
//
//	type Config struct {
//	    HTTPPort        int    `env:"GATEWAY_HTTP_PORT" envDefault:"8080"`
//	    WalletServiceURL string `env:"WALLET_SERVICE_URL,required"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
