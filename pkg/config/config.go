package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	EntryTTL time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig tunes the constraint engine. Values here are engine-wide
// defaults; a ScheduleConfig row can override the constraint parameters.
type SchedulerConfig struct {
	MaxIterations        int
	AttemptBound         int
	ProposalTTL          time.Duration
	WorkerConcurrency    int
	FridayLimitPractical int
	FridayLimitTheory    int
	MinDailyClasses      int
	MaxSubjectsPerDay    int
	SeniorLabReserve     int
}

// ExportConfig controls timetable export output. A zero retention keeps
// old exports forever.
type ExportConfig struct {
	Dir       string
	Format    string
	Retention time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		EntryTTL: parseDuration(v.GetString("REDIS_ENTRY_TTL"), 10*time.Minute),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		MaxIterations:        v.GetInt("SCHEDULER_MAX_ITERATIONS"),
		AttemptBound:         v.GetInt("SCHEDULER_ATTEMPT_BOUND"),
		ProposalTTL:          parseDuration(v.GetString("SCHEDULER_PROPOSAL_TTL"), 30*time.Minute),
		WorkerConcurrency:    v.GetInt("SCHEDULER_WORKER_CONCURRENCY"),
		FridayLimitPractical: v.GetInt("SCHEDULER_FRIDAY_LIMIT_PRACTICAL"),
		FridayLimitTheory:    v.GetInt("SCHEDULER_FRIDAY_LIMIT_THEORY"),
		MinDailyClasses:      v.GetInt("SCHEDULER_MIN_DAILY_CLASSES"),
		MaxSubjectsPerDay:    v.GetInt("SCHEDULER_MAX_SUBJECTS_PER_DAY"),
		SeniorLabReserve:     v.GetInt("SCHEDULER_SENIOR_LAB_RESERVE"),
	}

	cfg.Export = ExportConfig{
		Dir:       v.GetString("EXPORT_DIR"),
		Format:    v.GetString("EXPORT_FORMAT"),
		Retention: parseDuration(v.GetString("EXPORT_RETENTION"), 0),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ENTRY_TTL", "10m")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_MAX_ITERATIONS", 40)
	v.SetDefault("SCHEDULER_ATTEMPT_BOUND", 100)
	v.SetDefault("SCHEDULER_PROPOSAL_TTL", "30m")
	v.SetDefault("SCHEDULER_WORKER_CONCURRENCY", 1)
	v.SetDefault("SCHEDULER_FRIDAY_LIMIT_PRACTICAL", 4)
	v.SetDefault("SCHEDULER_FRIDAY_LIMIT_THEORY", 3)
	v.SetDefault("SCHEDULER_MIN_DAILY_CLASSES", 2)
	v.SetDefault("SCHEDULER_MAX_SUBJECTS_PER_DAY", 4)
	v.SetDefault("SCHEDULER_SENIOR_LAB_RESERVE", 4)

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_FORMAT", "pdf")
	v.SetDefault("EXPORT_RETENTION", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
