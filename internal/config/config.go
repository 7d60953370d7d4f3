// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataPath        string        `envconfig:"DATA_PATH" default:"data/earthquake_data_tsunami.csv" validate:"required"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"1h" validate:"gt=0"`
	FilterCacheSize int           `envconfig:"FILTER_CACHE_SIZE" default:"128" validate:"min=1"`

	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// Kafka publishing of the enriched catalog.
	KafkaEnabled   bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092" validate:"required_if=KafkaEnabled true,dive,required"`
	KafkaTopic     string   `envconfig:"KAFKA_TOPIC" default:"earthquake-events" validate:"required_if=KafkaEnabled true"`
	KafkaBatchSize int      `envconfig:"KAFKA_BATCH_SIZE" default:"100" validate:"min=1"`
}

// ErrorType classifies a configuration failure.
type ErrorType string

const (
	ErrParsing    ErrorType = "parsing"
	ErrValidation ErrorType = "validation"
)

// Error is returned by Load when the environment cannot be turned into a
// valid Config.
type Error struct {
	Type ErrorType
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Type, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first if
// present; it never overrides variables already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &Error{Type: ErrParsing, Err: err}
	}

	if err := newValidator().Struct(cfg); err != nil {
		return nil, &Error{Type: ErrValidation, Err: err}
	}
	return &cfg, nil
}

// newValidator reports fields by their environment variable name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("envconfig"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}
