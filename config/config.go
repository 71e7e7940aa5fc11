// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"verigate/auth-api/service"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers = []string{"sqlite", "postgres"}
)

// Setup prepares everything config-related so that the app can start
// working. Function will return an error if something is critically
// wrong and the application can't run because of that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("auth.max_login_attempts", "auth_max_login_attempts")
	v.BindEnv("auth.max_verification_attempts", "auth_max_verification_attempts")
	v.BindEnv("auth.block_duration_minutes", "auth_block_duration_minutes")
	v.BindEnv("auth.token_expiration_hours", "auth_token_expiration_hours")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.sender", "mail_sender_address")
	v.BindEnv("mail.password", "mail_password")

	v.BindEnv("signup.verify_email_deliverability", "signup_verify_email_deliverability")
	v.BindEnv("signup.abstract_api_key", "abstract_api_key")

	v.BindEnv("cleanup.interval_minutes", "cleanup_interval_minutes")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("auth.max_login_attempts", 3)
	v.SetDefault("auth.max_verification_attempts", 3)
	v.SetDefault("auth.block_duration_minutes", 15)
	v.SetDefault("auth.token_expiration_hours", 24)

	v.SetDefault("mail.port", 587)

	v.SetDefault("signup.verify_email_deliverability", false)

	v.SetDefault("cleanup.interval_minutes", 60)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid db driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	if v.GetInt("auth.max_login_attempts") <= 0 {
		return errors.New("auth.max_login_attempts must be bigger than 0")
	}

	if v.GetInt("auth.max_verification_attempts") <= 0 {
		return errors.New("auth.max_verification_attempts must be bigger than 0")
	}

	if v.GetInt("auth.block_duration_minutes") <= 0 {
		return errors.New("auth.block_duration_minutes must be bigger than 0")
	}

	if v.GetInt("auth.token_expiration_hours") <= 0 {
		return errors.New("auth.token_expiration_hours must be bigger than 0")
	}

	if v.GetInt("cleanup.interval_minutes") <= 0 {
		return errors.New("cleanup.interval_minutes must be bigger than 0")
	}

	if v.GetBool("signup.verify_email_deliverability") &&
		v.GetString("signup.abstract_api_key") == "" {
		return errors.New("signup.abstract_api_key is required when deliverability verification is enabled")
	}

	return nil
}

// AuthConfig assembles the service configuration from the loaded viper
// state. The service itself never touches viper.
func AuthConfig() service.Config {
	scheme := "http"
	if v.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	return service.Config{
		MaxLoginAttempts:          v.GetInt("auth.max_login_attempts"),
		MaxVerificationAttempts:   v.GetInt("auth.max_verification_attempts"),
		BlockDuration:             time.Duration(v.GetInt("auth.block_duration_minutes")) * time.Minute,
		TokenExpiration:           time.Duration(v.GetInt("auth.token_expiration_hours")) * time.Hour,
		VerifyEmailDeliverability: v.GetBool("signup.verify_email_deliverability"),
		ResetLinkBase:             fmt.Sprintf("%s://%s:%d", scheme, v.GetString("host.domain"), v.GetInt("host.port")),
	}
}

// MailConfig assembles the SMTP settings for the mailer.
func MailConfig() service.MailConfig {
	return service.MailConfig{
		Host:     v.GetString("mail.host"),
		Port:     v.GetInt("mail.port"),
		Sender:   v.GetString("mail.sender"),
		Password: v.GetString("mail.password"),
	}
}
