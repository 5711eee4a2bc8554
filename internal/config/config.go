package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

const (
	sslModeDisable = "disable"
	sslModeRequire = "require"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	envPrefix = "RECIPES"
)

var Module = fx.Provide(NewConfig)

type (
	Config struct {
		Host     string `mapstructure:"HOST"`
		Port     string `mapstructure:"PORT"`
		GRPCPort string `mapstructure:"GRPC_PORT"`

		DBDriver     string        `mapstructure:"DB_DRIVER"`
		DBHost       string        `mapstructure:"DB_HOST"`
		DBPort       string        `mapstructure:"DB_PORT"`
		DBUser       string        `mapstructure:"DB_USER"`
		DBPassword   string        `mapstructure:"DB_PASSWORD"`
		DBName       string        `mapstructure:"DB_NAME"`
		DBSSLMode    string        `mapstructure:"DB_SSL_MODE"`
		DBSQLitePath string        `mapstructure:"DB_SQLITE_PATH"`
		DBWait       time.Duration `mapstructure:"DB_WAIT_TIMEOUT"`
		DBWaitTick   time.Duration `mapstructure:"DB_WAIT_INTERVAL"`

		LogLevel       string `mapstructure:"LOG_LEVEL"`
		LogDevelopment bool   `mapstructure:"LOG_DEVELOPMENT"`

		BcryptCost int `mapstructure:"BCRYPT_COST"`
	}
)

var defaults = map[string]interface{}{
	"HOST":             "0.0.0.0",
	"PORT":             "1323",
	"GRPC_PORT":        "9000",
	"DB_DRIVER":        DriverPostgres,
	"DB_HOST":          "0.0.0.0",
	"DB_PORT":          "5432",
	"DB_USER":          "user",
	"DB_PASSWORD":      "password",
	"DB_NAME":          "db",
	"DB_SSL_MODE":      sslModeDisable,
	"DB_SQLITE_PATH":   "recipes.db",
	"DB_WAIT_TIMEOUT":  "60s",
	"DB_WAIT_INTERVAL": "1s",
	"LOG_LEVEL":        "info",
	"LOG_DEVELOPMENT":  false,
	"BCRYPT_COST":      12,
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)

	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "bind env %s", key)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// PostgresDSN is only meaningful when DBDriver is postgres.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c *Config) HTTPListen() string {
	return c.Host + ":" + c.Port
}

func (c *Config) GRPCListen() string {
	return c.Host + ":" + c.GRPCPort
}

func validate(cfg *Config) error {
	switch cfg.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return errors.New(fmt.Sprintf("DB driver is invalid: %s", cfg.DBDriver))
	}

	validSSLValues := []string{sslModeDisable, sslModeRequire}
	sslOK := false
	for _, validValue := range validSSLValues {
		if cfg.DBSSLMode == validValue {
			sslOK = true
			break
		}
	}
	if !sslOK {
		return errors.New(fmt.Sprintf("DB SSL mode is invalid: %s", cfg.DBSSLMode))
	}

	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return errors.New(fmt.Sprintf("bcrypt cost is out of range: %d", cfg.BcryptCost))
	}
	if cfg.DBWaitTick <= 0 {
		return errors.New("DB wait interval must be positive")
	}

	return nil
}
