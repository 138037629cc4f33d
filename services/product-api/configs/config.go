package configs

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/product-api/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "app"

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Env              string        `mapstructure:"ENV" validate:"required,oneof=local dev qa stage prod"`
	Port             int           `mapstructure:"PORT" validate:"required,min=1,max=65535"`
	Store            string        `mapstructure:"STORE" validate:"required,oneof=memory postgres"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL" validate:"required_if=Store postgres,omitempty,startswith=postgres" mask:"true"`
	DatabaseReadURLs []string      `mapstructure:"DATABASE_READ_URLS" validate:"omitempty,dive,startswith=postgres" mask:"true"`
	DbMaxCons        int32         `mapstructure:"DB_MAX_CONNECTIONS" validate:"min=1"`
	DbMinCons        int32         `mapstructure:"DB_MIN_CONNECTIONS" validate:"min=1"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD" mask:"true"`
	CacheTTL         time.Duration `mapstructure:"CACHE_TTL" validate:"min=0"`
	KafkaBrokers     string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic       string        `mapstructure:"KAFKA_TOPIC" validate:"required_with=KafkaBrokers"`
	KafkaPartitions  int           `mapstructure:"KAFKA_PARTITIONS" validate:"min=1"`
	RateLimitRPS     int           `mapstructure:"RATE_LIMIT_RPS" validate:"min=0"`
	RateLimitBurst   int           `mapstructure:"RATE_LIMIT_BURST" validate:"min=0"`
	ShutdownTimeout  time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"min=0"`
}

var defaults = map[string]any{
	"PORT":               3000,
	"STORE":              StoreMemory,
	"DB_MAX_CONNECTIONS": 10,
	"DB_MIN_CONNECTIONS": 2,
	"CACHE_TTL":          "5m",
	"KAFKA_TOPIC":        "product-events",
	"KAFKA_PARTITIONS":   1,
	"RATE_LIMIT_RPS":     0,
	"RATE_LIMIT_BURST":   0,
	"SHUTDOWN_TIMEOUT":   "5s",
}

// Load reads APP_-prefixed environment variables, optionally overlaid on
// configs/config.<env>.yaml, and validates the result.
func Load(logger *zap.Logger) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix) // Prefix for env vars
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Optional: Read from config.<env>.yaml if exists
	if env := os.Getenv("APP_ENV"); !utils.IsEmpty(env) {
		v.SetConfigName("config." + env)
		v.SetConfigType("yaml")
		v.AddConfigPath("./services/product-api/configs")
		if err := v.ReadInConfig(); err == nil {
			logger.Info("config file loaded", zap.String("file", v.ConfigFileUsed()))
		}
	}

	var cfg Config
	if err := utils.ParseStructEnv(v, &cfg); err != nil {
		logger.Error("config parsing: FAILURE", zap.Error(err))
		return nil, fmt.Errorf("parse config: %w", err)
	}
	logValues(logger, v, cfg)

	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}

// logValues prints every setting, masking secrets, and warns for the ones left at their default.
func logValues(logger *zap.Logger, v *viper.Viper, cfg Config) {
	rv := reflect.ValueOf(cfg)
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("mapstructure")
		value := fmt.Sprint(rv.Field(i).Interface())
		if field.Tag.Get("mask") == "true" {
			value = utils.Mask(value)
		}

		_, fromEnv := os.LookupEnv("APP_" + key)
		_, hasDefault := defaults[key]
		if !fromEnv && !v.InConfig(key) && hasDefault {
			logger.Warn(fmt.Sprintf("%s not set, using default %s", key, value))
			continue
		}
		logger.Info(fmt.Sprintf("%s = %s", key, value))
	}
}
