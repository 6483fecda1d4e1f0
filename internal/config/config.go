package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // containers ship without zoneinfo

	"github.com/spf13/viper"
)

// The services run in EKS; DB connection, queue URLs and AWS settings come
// from the pod environment.

type Config struct {
	DBHost             string `mapstructure:"DB_HOST"`
	DBPort             string `mapstructure:"DB_PORT"`
	DBUser             string `mapstructure:"DB_USER"`
	DBPassword         string `mapstructure:"DB_PASSWORD"`
	DBName             string `mapstructure:"DB_NAME"`
	ServerPort         string `mapstructure:"SERVER_PORT"`
	AWSRegion          string `mapstructure:"AWS_REGION"`
	PayrollSQSQueueURL string `mapstructure:"PAYROLL_SQS_QUEUE_URL"`
	EmailSQSQueueURL   string `mapstructure:"EMAIL_SQS_QUEUE_URL"`
	AWSEndpoint        string `mapstructure:"AWS_ENDPOINT"`
	PayrollAPIURL      string `mapstructure:"PAYROLL_API_URL"`
	EmailSender        string `mapstructure:"EMAIL_SENDER"`
	Timezone           string `mapstructure:"TIMEZONE"`
	OTelEndpoint       string `mapstructure:"OTEL_ENDPOINT"`
	IsLocalDev         bool   `mapstructure:"IS_LOCAL_DEV"`
	MetricsEnabled     bool   `mapstructure:"METRICS_ENABLED"`
	MetricsPort        string `mapstructure:"METRICS_PORT"`
	WorkerConcurrency  int    `mapstructure:"WORKER_CONCURRENCY"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (config Config, err error) {
	v := viper.New()

	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "fichaje_db")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("AWS_REGION", "eu-west-1")
	v.SetDefault("PAYROLL_SQS_QUEUE_URL", "http://localstack:4566/000000000000/payroll-queue")
	v.SetDefault("EMAIL_SQS_QUEUE_URL", "http://localstack:4566/000000000000/email-queue")
	v.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	v.SetDefault("PAYROLL_API_URL", "http://localhost:8081/")
	v.SetDefault("EMAIL_SENDER", "informes@fichaje.app")
	v.SetDefault("TIMEZONE", "Europe/Madrid")
	v.SetDefault("OTEL_ENDPOINT", "jaeger:4317")
	v.SetDefault("IS_LOCAL_DEV", false)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PORT", "9090")
	v.SetDefault("WORKER_CONCURRENCY", 10)

	// Read in environment variables that match the keys.
	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return config, err
	}

	if _, err = config.Location(); err != nil {
		return config, err
	}
	return config, nil
}

// Location resolves the evaluation timezone used to bucket clock events into
// calendar days.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
