package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	MongoURI     string
	Port         string
	DBName       string
	StoreDriver  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// OperationTimeout bounds every service call, storage and credential checks included
	OperationTimeout time.Duration

	JWTSecret  string
	JWTIssuer  string
	TokenTTL   time.Duration
	BcryptCost int

	CORSOrigins []string
	LogLevel    string
}

// LoadConfig reads the environment. A .env file in the working directory, when
// present, fills variables that are not already set.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		Port:             getEnv("PORT", "8080"),
		DBName:           getEnv("DB_NAME", "qc_portal"),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		ReadTimeout:      getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:     getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		OperationTimeout: getEnvDuration("OPERATION_TIMEOUT", 10*time.Second),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTIssuer:        getEnv("JWT_ISSUER", "qc-portal"),
		TokenTTL:         getEnvMinutes("ACCESS_TOKEN_EXPIRE_MINUTES", 480*time.Minute),
		BcryptCost:       getEnvInt("BCRYPT_COST", 12),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMemory, c.StoreDriver)
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("OPERATION_TIMEOUT must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return val
}

// getEnvDuration accepts plain seconds ("10") or a Go duration ("1m30s")
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		d, err := time.ParseDuration(valStr)
		if err == nil {
			return d
		}
		return fallback
	}
	return time.Duration(val) * time.Second
}

func getEnvMinutes(key string, fallback time.Duration) time.Duration {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return time.Duration(val) * time.Minute
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
