package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// settings is the resolved runtime configuration.
type settings struct {
	Port            int
	DBPath          string
	LogLevel        string
	Development     bool
	RefreshInterval time.Duration
	AllowedOrigins  []string
	MaxMonths       int
	SettleMonths    int
}

// app carries state shared by every subcommand.
type app struct {
	v            *viper.Viper
	settingsFile string
	settings     settings
	logger       *zap.Logger
}

func newApp() *app {
	v := viper.New()

	// defaults
	v.SetDefault("port", 8080)
	v.SetDefault("db", "loyalty.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("criteria.refresh_interval", time.Minute)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("engine.max_months", 0)
	v.SetDefault("engine.settle_months", 0)

	v.SetEnvPrefix("TIERSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &app{v: v}
}

// setup resolves settings and builds the logger. It runs before every
// subcommand.
func (a *app) setup() error {
	if err := loadDotEnv(".env"); err != nil {
		return err
	}

	s, err := loadSettings(a.v, a.settingsFile)
	if err != nil {
		return err
	}
	a.settings = s

	logger, err := newLogger(s.LogLevel, s.Development)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// loadDotEnv loads path into the environment if it exists.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadSettings(v *viper.Viper, file string) (settings, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("failed to read settings %s: %w", file, err)
		}
	}

	s := settings{
		Port:            v.GetInt("port"),
		DBPath:          v.GetString("db"),
		LogLevel:        v.GetString("log.level"),
		Development:     v.GetBool("log.development"),
		RefreshInterval: v.GetDuration("criteria.refresh_interval"),
		AllowedOrigins:  v.GetStringSlice("cors.allowed_origins"),
		MaxMonths:       v.GetInt("engine.max_months"),
		SettleMonths:    v.GetInt("engine.settle_months"),
	}

	switch {
	case s.Port <= 0 || s.Port > 65535:
		return settings{}, fmt.Errorf("invalid port %d", s.Port)
	case s.DBPath == "":
		return settings{}, fmt.Errorf("db path must not be empty")
	case s.RefreshInterval <= 0:
		return settings{}, fmt.Errorf("criteria.refresh_interval must be positive, got %s", s.RefreshInterval)
	case s.MaxMonths < 0 || s.SettleMonths < 0:
		return settings{}, fmt.Errorf("engine months must not be negative")
	}
	return s, nil
}

// newLogger builds a JSON production logger, or a console logger in
// development mode.
func newLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
