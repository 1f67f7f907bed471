package config

import (
	"errors"
	"io/fs"
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
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Cache      CacheConfig
	Migrations MigrationsConfig
	Timetable  TimetableConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify access tokens issued by the identity service.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig toggles Redis-backed response caching.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// MigrationsConfig controls embedded schema migrations.
type MigrationsConfig struct {
	AutoRun bool
}

// TimetableConfig tunes workload ceilings and generation behaviour.
type TimetableConfig struct {
	MaxWeeklyHours     int
	WarningWeeklyHours int
	// CoreSubjects overrides the engine's built-in core subject list when set.
	CoreSubjects  []string
	LockTTL       time.Duration
	JobTTL        time.Duration
	JobWorkers    int
	JobRetries    int
	StatsCacheTTL time.Duration
	AsyncEnabled  bool
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		DefaultTTL: parseDuration(v.GetString("CACHE_DEFAULT_TTL"), 10*time.Minute),
	}

	cfg.Migrations = MigrationsConfig{AutoRun: v.GetBool("MIGRATIONS_AUTO_RUN")}

	cfg.Timetable = TimetableConfig{
		MaxWeeklyHours:     v.GetInt("TIMETABLE_MAX_WEEKLY_HOURS"),
		WarningWeeklyHours: v.GetInt("TIMETABLE_WARNING_WEEKLY_HOURS"),
		CoreSubjects:       splitAndTrim(v.GetString("TIMETABLE_CORE_SUBJECTS")),
		LockTTL:            parseDuration(v.GetString("TIMETABLE_LOCK_TTL"), 2*time.Minute),
		JobTTL:             parseDuration(v.GetString("TIMETABLE_JOB_TTL"), time.Hour),
		JobWorkers:         v.GetInt("TIMETABLE_JOB_WORKERS"),
		JobRetries:         v.GetInt("TIMETABLE_JOB_RETRIES"),
		StatsCacheTTL:      parseDuration(v.GetString("TIMETABLE_STATS_CACHE_TTL"), 5*time.Minute),
		AsyncEnabled:       v.GetBool("ENABLE_ASYNC_GENERATION"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("CACHE_DEFAULT_TTL", "10m")
	v.SetDefault("MIGRATIONS_AUTO_RUN", false)

	v.SetDefault("TIMETABLE_MAX_WEEKLY_HOURS", 25)
	v.SetDefault("TIMETABLE_WARNING_WEEKLY_HOURS", 23)
	v.SetDefault("TIMETABLE_LOCK_TTL", "2m")
	v.SetDefault("TIMETABLE_JOB_TTL", "1h")
	v.SetDefault("TIMETABLE_JOB_WORKERS", 2)
	v.SetDefault("TIMETABLE_JOB_RETRIES", 1)
	v.SetDefault("TIMETABLE_STATS_CACHE_TTL", "5m")
	v.SetDefault("ENABLE_ASYNC_GENERATION", true)
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

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
