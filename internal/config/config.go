/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables (with an
 * optional .env file), providing a centralized way to manage application
 * settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the billing service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	PayHeroBaseURL     string `mapstructure:"PAYHERO_BASE_URL"`
	PayHeroAPIUsername string `mapstructure:"PAYHERO_API_USERNAME"`
	PayHeroAPIPassword string `mapstructure:"PAYHERO_API_PASSWORD"`
	PayHeroChannelID   int    `mapstructure:"PAYHERO_CHANNEL_ID"`
	PayHeroProvider    string `mapstructure:"PAYHERO_PROVIDER"`

	// Public base URL of this service; the payment-confirmation callback URL
	// registered with each STK push is derived from it.
	CallbackBaseURL string `mapstructure:"CALLBACK_BASE_URL"`

	MikroTikBaseURL  string `mapstructure:"MIKROTIK_BASE_URL"`
	MikroTikUsername string `mapstructure:"MIKROTIK_USERNAME"`
	MikroTikPassword string `mapstructure:"MIKROTIK_PASSWORD"`

	// "phone_last4" or "client_id"
	CredentialSecretSource string `mapstructure:"CREDENTIAL_SECRET_SOURCE"`

	PendingPurchaseTTLMinutes int    `mapstructure:"PENDING_PURCHASE_TTL_MINUTES"`
	LedgerSweepSchedule       string `mapstructure:"LEDGER_SWEEP_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables and an optional
// .env file in the given path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("PAYHERO_BASE_URL", "https://backend.payhero.co.ke")
	viper.SetDefault("PAYHERO_CHANNEL_ID", 852)
	viper.SetDefault("PAYHERO_PROVIDER", "m-pesa")
	viper.SetDefault("CREDENTIAL_SECRET_SOURCE", "phone_last4")
	viper.SetDefault("PENDING_PURCHASE_TTL_MINUTES", 30)
	viper.SetDefault("LEDGER_SWEEP_SCHEDULE", "*/5 * * * *")

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("PAYHERO_BASE_URL")
	_ = viper.BindEnv("PAYHERO_API_USERNAME")
	_ = viper.BindEnv("PAYHERO_API_PASSWORD")
	_ = viper.BindEnv("PAYHERO_CHANNEL_ID")
	_ = viper.BindEnv("PAYHERO_PROVIDER")
	_ = viper.BindEnv("CALLBACK_BASE_URL")
	_ = viper.BindEnv("MIKROTIK_BASE_URL")
	_ = viper.BindEnv("MIKROTIK_USERNAME")
	_ = viper.BindEnv("MIKROTIK_PASSWORD")
	_ = viper.BindEnv("CREDENTIAL_SECRET_SOURCE")
	_ = viper.BindEnv("PENDING_PURCHASE_TTL_MINUTES")
	_ = viper.BindEnv("LEDGER_SWEEP_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// Platform-provided PORT (e.g. Heroku) takes precedence.
	if port := strings.TrimSpace(viper.GetString("PORT")); port != "" {
		config.ServerPort = port
	}

	config.CallbackBaseURL = strings.TrimRight(strings.TrimSpace(config.CallbackBaseURL), "/")
	config.PayHeroBaseURL = strings.TrimRight(strings.TrimSpace(config.PayHeroBaseURL), "/")
	config.MikroTikBaseURL = strings.TrimRight(strings.TrimSpace(config.MikroTikBaseURL), "/")

	if config.CredentialSecretSource != "phone_last4" && config.CredentialSecretSource != "client_id" {
		log.Printf("level=warn component=config msg=\"unknown credential secret source; using phone_last4\" value=%q", config.CredentialSecretSource)
		config.CredentialSecretSource = "phone_last4"
	}
	if config.PendingPurchaseTTLMinutes <= 0 {
		config.PendingPurchaseTTLMinutes = 30
	}
	if strings.TrimSpace(config.LedgerSweepSchedule) == "" {
		config.LedgerSweepSchedule = "*/5 * * * *"
	}

	return
}

// Validate checks that the credentials both outbound capabilities require are
// present. Called once at boot; a missing credential is fatal there.
func (c Config) Validate() error {
	var missing []string
	if c.PayHeroAPIUsername == "" {
		missing = append(missing, "PAYHERO_API_USERNAME")
	}
	if c.PayHeroAPIPassword == "" {
		missing = append(missing, "PAYHERO_API_PASSWORD")
	}
	if c.CallbackBaseURL == "" {
		missing = append(missing, "CALLBACK_BASE_URL")
	}
	if c.MikroTikBaseURL == "" {
		missing = append(missing, "MIKROTIK_BASE_URL")
	}
	if c.MikroTikUsername == "" {
		missing = append(missing, "MIKROTIK_USERNAME")
	}
	if c.MikroTikPassword == "" {
		missing = append(missing, "MIKROTIK_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
