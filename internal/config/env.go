package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey   string `envconfig:"API_KEY" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".skrobakios/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"skrobakios/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-southeast-2"`
}

type ScheduleEnv struct {
	TimelineFallbackDays int     `envconfig:"TIMELINE_FALLBACK_DAYS" default:"30"`
	TimelineWidth        float64 `envconfig:"TIMELINE_WIDTH" default:"0"`
	SaveConcurrency      int     `envconfig:"SAVE_CONCURRENCY" default:"4"`
}

type Env struct {
	BaseEnv
	StorageEnv
	ScheduleEnv
}

const namespace = "SKROBAKIOS"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if env.SaveConcurrency < 1 {
		env.SaveConcurrency = 1
	}
	return &env, nil
}

func (e *BaseEnv) IsLocal() bool {
	return e == nil || e.Env == "local"
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
