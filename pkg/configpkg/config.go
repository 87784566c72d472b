// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"errors"
	"fmt"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Environments recognized by GO_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerAddress          string `mapstructure:"SERVER_ADDRESS"`
	Environment            string `mapstructure:"GO_ENV"`
	RegularAccountLimit    int    `mapstructure:"REGULAR_ACCOUNT_LIMIT"`
	CorporateAccountLimit  int    `mapstructure:"CORPORATE_ACCOUNT_LIMIT"`
	TransferCommissionRate string `mapstructure:"TRANSFER_COMMISSION_RATE"`
	MetricsEnabled         bool   `mapstructure:"METRICS_ENABLED"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		ServerAddress:          "0.0.0.0:8080",
		Environment:            EnvProduction,
		RegularAccountLimit:    domain.DefaultRegularAccountLimit,
		CorporateAccountLimit:  domain.DefaultCorporateAccountLimit,
		TransferCommissionRate: domain.DefaultCommissionRate.String(),
		MetricsEnabled:         true,
	}
}

// Load read configuration from app.env in path or environment variables.
//
// A missing file is not an error, the defaults and the environment apply.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	def := Default()
	v.SetDefault("SERVER_ADDRESS", def.ServerAddress)
	v.SetDefault("GO_ENV", def.Environment)
	v.SetDefault("REGULAR_ACCOUNT_LIMIT", def.RegularAccountLimit)
	v.SetDefault("CORPORATE_ACCOUNT_LIMIT", def.CorporateAccountLimit)
	v.SetDefault("TRANSFER_COMMISSION_RATE", def.TransferCommissionRate)
	v.SetDefault("METRICS_ENABLED", def.MetricsEnabled)

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	if err := c.Validate(); err != nil {
		return c, err
	}

	return c, nil
}

// Validate checks the values that viper cannot check by type.
func (c Config) Validate() error {
	if c.RegularAccountLimit < 0 || c.CorporateAccountLimit < 0 {
		return fmt.Errorf("account limits must not be negative: regular %d, corporate %d",
			c.RegularAccountLimit, c.CorporateAccountLimit)
	}

	if _, err := c.CommissionRate(); err != nil {
		return err
	}

	return nil
}

// CommissionRate parses TRANSFER_COMMISSION_RATE as an exact decimal.
func (c Config) CommissionRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.TransferCommissionRate)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid TRANSFER_COMMISSION_RATE %q: %w", c.TransferCommissionRate, err)
	}

	if rate.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("invalid TRANSFER_COMMISSION_RATE %q: must not be negative", c.TransferCommissionRate)
	}

	return rate, nil
}
