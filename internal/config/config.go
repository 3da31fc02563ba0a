package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	// GRPCPort is empty when the gRPC server is disabled
	GRPCPort string

	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBConnectionLimit int
	DBConnMaxLifetime time.Duration

	// RedisAddr is empty when idempotency keys are disabled
	RedisAddr string

	RestockOnDelete bool
	MigrateOnStart  bool
}

// Load reads the configuration from the environment, after loading a
// .env file from the working directory if there is one.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	limit, err := getEnvInt("DB_CONNECTION_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	restock, err := getEnvBool("RESTOCK_ON_DELETE", false)
	if err != nil {
		return nil, err
	}
	migrateOnStart, err := getEnvBool("MIGRATE_ON_START", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPPort:          getEnv("PORT", "3000"),
		GRPCPort:          os.Getenv("GRPC_PORT"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBUser:            getEnv("DB_USER", "root"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBConnectionLimit: limit,
		DBConnMaxLifetime: 5 * time.Minute,
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RestockOnDelete:   restock,
		MigrateOnStart:    migrateOnStart,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.DBHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.DBConnectionLimit < 1 {
		return fmt.Errorf("DB_CONNECTION_LIMIT must be positive, got %d", c.DBConnectionLimit)
	}
	return nil
}

// DSN returns the go-sql-driver DSN. RowsAffected counts matched rows so
// that a patch writing unchanged values still reports the row as found.
func (c *Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DBHost, c.DBPort)
	mc.DBName = c.DBName
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
