package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Port      string `mapstructure:"PORT"`
	DBType    string `mapstructure:"DB_TYPE"` // sqlite or pgx
	DBPath    string `mapstructure:"DB_PATH"`
	DBURL     string `mapstructure:"DATABASE_URL"`
	JWTSecret string `mapstructure:"JWT_SECRET"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"` // empty disables the streak cache
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	FallbackChallenge string  `mapstructure:"FALLBACK_CHALLENGE_TITLE"`
	WeeklyGoalKm      float64 `mapstructure:"WEEKLY_GOAL_KM"`

	RateLimit       int           `mapstructure:"RATE_LIMIT"`
	RateWindow      time.Duration `mapstructure:"RATE_WINDOW"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Load 加载配置
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", ":8080")
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DB_PATH", "./data/runningbuddy.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("FALLBACK_CHALLENGE_TITLE", "The Ten-K")
	v.SetDefault("WEEKLY_GOAL_KM", 25.0)
	v.SetDefault("RATE_LIMIT", 120)
	v.SetDefault("RATE_WINDOW", time.Minute)
	v.SetDefault("SHUTDOWN_TIMEOUT", 5*time.Second)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.RateWindow <= 0 {
		return nil, fmt.Errorf("RATE_WINDOW must be positive, got %v", cfg.RateWindow)
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", cfg.ShutdownTimeout)
	}
	return &cfg, nil
}
