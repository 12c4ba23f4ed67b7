package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Functions FunctionsConfig
	Session   SessionConfig
}

type AppConfig struct {
	Port          string
	Env           string
	BaseURL       string
	LogLevel      string
	CSRFKey       string
	SecureCookies bool
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// AuthConfig configures the auth provider. ServiceRoleKey is the elevated
// credential only privileged routines may present.
type AuthConfig struct {
	RequireEmailConfirmation bool
	VerificationExpiry       time.Duration
	ServiceRoleKey           string
}

type StorageConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

type FunctionsConfig struct {
	URL string
}

type SessionConfig struct {
	IdleTimeout time.Duration
}

var ErrMissingServiceRoleKey = errors.New("AUTH_SERVICE_ROLE_KEY is required")

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing .env is fine when everything comes from the environment.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isNotExist(err) {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Port:          viper.GetString("APP_PORT"),
			Env:           viper.GetString("APP_ENV"),
			BaseURL:       viper.GetString("APP_BASE_URL"),
			LogLevel:      viper.GetString("APP_LOG_LEVEL"),
			CSRFKey:       viper.GetString("APP_CSRF_KEY"),
			SecureCookies: viper.GetBool("APP_SECURE_COOKIES"),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			Migrate:  viper.GetBool("DB_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  parseDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: parseDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Auth: AuthConfig{
			RequireEmailConfirmation: viper.GetBool("AUTH_REQUIRE_EMAIL_CONFIRMATION"),
			VerificationExpiry:       parseDuration("AUTH_VERIFICATION_EXPIRY", 24*time.Hour),
			ServiceRoleKey:           viper.GetString("AUTH_SERVICE_ROLE_KEY"),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			Region:    viper.GetString("STORAGE_REGION"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			PublicURL: viper.GetString("STORAGE_PUBLIC_URL"),
		},
		Functions: FunctionsConfig{
			URL: viper.GetString("FUNCTIONS_URL"),
		},
		Session: SessionConfig{
			IdleTimeout: parseDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		},
	}

	if config.Functions.URL == "" {
		config.Functions.URL = config.App.BaseURL
	}

	if config.Auth.ServiceRoleKey == "" {
		return nil, ErrMissingServiceRoleKey
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_BASE_URL", "http://localhost:8080")
	viper.SetDefault("APP_LOG_LEVEL", "info")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MIGRATE", true)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("AUTH_REQUIRE_EMAIL_CONFIRMATION", true)
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_BUCKET", "avatars")
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
