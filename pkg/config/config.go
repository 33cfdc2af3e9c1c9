package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	ML       MLConfig
	Weather  WeatherConfig
	Admin    AdminConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type MLConfig struct {
	PredictURL   string
	ModelVersion string
	Timeout      time.Duration
	CacheTTL     time.Duration
	CacheSize    int
}

type WeatherConfig struct {
	BaseURL   string
	APIKey    string
	Latitude  float64
	Longitude float64
}

type AdminConfig struct {
	// PasswordHash is a bcrypt hash of the admin password.
	PasswordHash string
	JWTSecret    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database index")
	}

	mlTimeout, err := time.ParseDuration(getEnv("ML_PREDICT_TIMEOUT", "30s"))
	if err != nil {
		return nil, errors.New("invalid ml predict timeout")
	}

	mlCacheTTL, err := time.ParseDuration(getEnv("ML_CACHE_TTL", "2h"))
	if err != nil {
		return nil, errors.New("invalid ml cache ttl")
	}

	mlCacheSize, err := strconv.Atoi(getEnv("ML_CACHE_SIZE", "500"))
	if err != nil {
		return nil, errors.New("invalid ml cache size")
	}

	lat, err := strconv.ParseFloat(getEnv("WEATHER_LAT", "40.7831"), 64)
	if err != nil {
		return nil, errors.New("invalid weather latitude")
	}

	lon, err := strconv.ParseFloat(getEnv("WEATHER_LON", "-73.9662"), 64)
	if err != nil {
		return nil, errors.New("invalid weather longitude")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Atelier Finder API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "atelier_finder"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		ML: MLConfig{
			PredictURL:   getEnv("ML_PREDICT_URL", ""),
			ModelVersion: getEnv("ML_MODEL_VERSION", "3.0"),
			Timeout:      mlTimeout,
			CacheTTL:     mlCacheTTL,
			CacheSize:    mlCacheSize,
		},
		Weather: WeatherConfig{
			BaseURL:   getEnv("WEATHER_BASE_URL", "https://pro.openweathermap.org/data/2.5/forecast/hourly"),
			APIKey:    getEnv("WEATHER_API_KEY", ""),
			Latitude:  lat,
			Longitude: lon,
		},
		Admin: AdminConfig{
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    getEnv("JWT_SECRET", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.ML.PredictURL == "" {
		return nil, errors.New("missing ml predict url")
	}

	if cfg.Admin.JWTSecret == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Admin.PasswordHash == "" {
		return nil, errors.New("missing admin password hash")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
