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

	Redis  RedisConfig
	JWT    JWTConfig
	CORS   CORSConfig
	Log    LogConfig
	Grades GradesConfig
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret   string
	Required bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GradesConfig tunes the calculator, its result cache and the batch endpoint.
type GradesConfig struct {
	CacheEnabled  bool
	CacheTTL      time.Duration
	MaxIterations int
	Tolerance     float64
	BatchWorkers  int
	BatchMaxItems int
	MaxGroups     int
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Required: v.GetBool("AUTH_REQUIRED"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Grades = GradesConfig{
		CacheEnabled:  v.GetBool("GRADE_CACHE_ENABLED"),
		CacheTTL:      parseDuration(v.GetString("GRADE_CACHE_TTL"), 10*time.Minute),
		MaxIterations: positiveInt(v.GetInt("GRADE_MAX_ITERATIONS"), 100),
		Tolerance:     v.GetFloat64("GRADE_TOLERANCE"),
		BatchWorkers:  positiveInt(v.GetInt("GRADE_BATCH_WORKERS"), 4),
		BatchMaxItems: positiveInt(v.GetInt("GRADE_BATCH_MAX_ITEMS"), 200),
		MaxGroups:     positiveInt(v.GetInt("GRADE_MAX_GROUPS"), 100),
	}
	if cfg.Grades.Tolerance <= 0 {
		cfg.Grades.Tolerance = 1e-9
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("AUTH_REQUIRED", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GRADE_CACHE_ENABLED", true)
	v.SetDefault("GRADE_CACHE_TTL", "10m")
	v.SetDefault("GRADE_MAX_ITERATIONS", 100)
	v.SetDefault("GRADE_TOLERANCE", 1e-9)
	v.SetDefault("GRADE_BATCH_WORKERS", 4)
	v.SetDefault("GRADE_BATCH_MAX_ITEMS", 200)
	v.SetDefault("GRADE_MAX_GROUPS", 100)
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

func positiveInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// isMissingFile reports a missing .env; viper returns an fs error rather than
// ConfigFileNotFoundError when SetConfigFile is used.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
