/*
Config package
*/
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Logger is our contract for the logger
type Logger interface {
	Warn(msg string, fields ...any)
}

// Config wraps a viper instance populated from .env and ENV variables.
type Config struct {
	v *viper.Viper
}

// New - read .env and ENV variables
func New(log Logger) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("dotenv")
	v.AddConfigPath(".") // look for config in the working directory
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var typeErr viper.ConfigFileNotFoundError
		if !errors.As(err, &typeErr) {
			return nil, err
		}

		if log != nil {
			log.Warn("The .env file has not been found in the current directory")
		}
	}

	return &Config{v: v}, nil
}

// NewFromMap builds a config from explicit values. Map values take precedence
// over ENV variables, which still serve every other key.
func NewFromMap(values map[string]any) *Config {
	v := viper.New()
	v.AutomaticEnv()

	for key, value := range values {
		v.Set(key, value)
	}

	return &Config{v: v}
}

func (c *Config) SetDefault(key string, value any) {
	c.v.SetDefault(key, value)
}

func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func (c *Config) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

// GetStringSlice accepts both list values and ";" or "," separated strings,
// the format used by NAMESRV_ADDR.
func (c *Config) GetStringSlice(key string) []string {
	raw := c.v.Get(key)

	str, ok := raw.(string)
	if !ok {
		return c.v.GetStringSlice(key)
	}

	fields := strings.FieldsFunc(str, func(r rune) bool {
		return r == ';' || r == ',' || r == ' '
	})

	return fields
}
