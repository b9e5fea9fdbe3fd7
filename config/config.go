package config

import (
	"tidynest/internal/logger"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`
	JWTSecret            string `mapstructure:"JWT_SECRET"`
	JWTIssuer            string `mapstructure:"JWT_ISSUER"`
	SessionTTLHours      int    `mapstructure:"SESSION_TTL_HOURS"`
	SchedulerEnabled     bool   `mapstructure:"SCHEDULER_ENABLED"`
	RecurringHorizonDays int    `mapstructure:"RECURRING_HORIZON_DAYS"`
	DefaultTaxRate       string `mapstructure:"DEFAULT_TAX_RATE"`
	InvoiceDueDays       int    `mapstructure:"INVOICE_DUE_DAYS"`
	MailFromAddress      string `mapstructure:"MAIL_FROM_ADDRESS"`
	MailFromName         string `mapstructure:"MAIL_FROM_NAME"`
	ProcessorAPIKey      string `mapstructure:"PROCESSOR_API_KEY"`
	ProcessorWebhookKey  string `mapstructure:"PROCESSOR_WEBHOOK_KEY"`
	ProcessorCheckoutURL string `mapstructure:"PROCESSOR_CHECKOUT_URL"`
}

var ConfigInstance Config

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	// Enable automatic environment variable reading first
	viper.AutomaticEnv()

	// Bind environment variables to config keys
	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_CACHE_ADDRESS", "DB_CACHE_PORT",
		"CORS_ALLOW_ORIGINS",
		"JWT_SECRET", "JWT_ISSUER", "SESSION_TTL_HOURS",
		"SCHEDULER_ENABLED", "RECURRING_HORIZON_DAYS",
		"DEFAULT_TAX_RATE", "INVOICE_DUE_DAYS",
		"MAIL_FROM_ADDRESS", "MAIL_FROM_NAME",
		"PROCESSOR_API_KEY", "PROCESSOR_WEBHOOK_KEY", "PROCESSOR_CHECKOUT_URL",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	// Check if key environment variables are already set
	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		// Load base .env file
		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		// Load .env.local overrides if it exists
		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	applyDefaults(&config)

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info("Successfully initialized config", "environment", config.Environment)
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func applyDefaults(config *Config) {
	if config.RecurringHorizonDays <= 0 {
		config.RecurringHorizonDays = 14
	}
	if config.InvoiceDueDays <= 0 {
		config.InvoiceDueDays = 14
	}
	if config.SessionTTLHours <= 0 {
		config.SessionTTLHours = 24
	}
	if config.DefaultTaxRate == "" {
		config.DefaultTaxRate = "0"
	}
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.JWTSecret == "" {
		return log.Error("Fatal error: JWT_SECRET is required")
	}

	if config.ProcessorWebhookKey == "" && config.ProcessorAPIKey != "" {
		return log.Error(
			"Fatal error: PROCESSOR_WEBHOOK_KEY required when PROCESSOR_API_KEY is set",
		)
	}

	ConfigInstance = config
	return nil
}
