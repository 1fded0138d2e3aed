// Package config loads finsim settings from an optional file and FINSIM_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmtruffa/finsim/finance"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Solver   SolverConfig   `mapstructure:"solver"`
	Holidays HolidaysConfig `mapstructure:"holidays"`
	Log      LogConfig      `mapstructure:"log"`
	DayCount string         `mapstructure:"daycount"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type SolverConfig struct {
	Guess         float64 `mapstructure:"guess"`
	MaxIterations int     `mapstructure:"max_iterations"`
	Tolerance     float64 `mapstructure:"tolerance"`
}

type HolidaysConfig struct {
	Reload bool `mapstructure:"reload"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "finsim.db")
	v.SetDefault("solver.guess", finance.DefaultGuess)
	v.SetDefault("solver.max_iterations", finance.MaxIterations)
	v.SetDefault("solver.tolerance", finance.Precision)
	v.SetDefault("holidays.reload", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("daycount", "ACT/365")
}

// Load reads path when it is not empty; environment variables override the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FINSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := finance.ParseDayCount(c.DayCount); err != nil {
		return err
	}
	if c.Solver.MaxIterations <= 0 {
		return fmt.Errorf("solver.max_iterations must be positive, got %d", c.Solver.MaxIterations)
	}
	if c.Solver.Tolerance <= 0 {
		return fmt.Errorf("solver.tolerance must be positive, got %g", c.Solver.Tolerance)
	}
	return nil
}

// Valuer builds the engine settings described by the config.
func (c *Config) Valuer() finance.Valuer {
	v := finance.NewValuer()
	v.Solver.Guess = c.Solver.Guess
	v.Solver.MaxIterations = c.Solver.MaxIterations
	v.Solver.Tolerance = c.Solver.Tolerance
	if dc, err := finance.ParseDayCount(c.DayCount); err == nil {
		v.DayCount = dc
	}
	return v
}
