package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"go-distribution-ws/pkg/database"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DB       DBConfig
	Redis    RedisConfig
	Schedule ScheduleConfig
	Limits   LimitConfig

	// RootToken guards creation of root pabrik accounts over HTTP. Empty disables the endpoint.
	RootToken string
}

type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	TimeZone string
	Pool     database.Pool
}

type ScheduleConfig struct {
	SweepSpec string
	Location  *time.Location
}

type LimitConfig struct {
	Sell  string
	Login string
}

// DSN prefers DATABASE_URL and falls back to the discrete connection settings.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.TimeZone,
	)
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB := getInt("REDIS_DB", 0)
	tz := getEnv("APP_TIMEZONE", "Asia/Jakarta")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Unknown timezone %q, falling back to UTC", tz)
		loc = time.UTC
	}

	return Config{
		Port: getEnv("PORT", "3000"),
		DB: DBConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "distribution"),
			TimeZone: tz,
			Pool: database.Pool{
				MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 100),
				MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
				ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
				SlowThreshold:   getDuration("DB_SLOW_QUERY", time.Second),
			},
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
			Channel:  getEnv("REDIS_CHANNEL", "notifications"),
		},
		Schedule: ScheduleConfig{
			SweepSpec: getEnv("NOTIFICATION_SWEEP_CRON", "0 0 * * *"),
			Location:  loc,
		},
		Limits: LimitConfig{
			Sell:  getEnv("RATE_LIMIT_SELL", "60-M"),
			Login: getEnv("RATE_LIMIT_LOGIN", "10-M"),
		},
		RootToken: os.Getenv("ROOT_ACCOUNT_TOKEN"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

// getDuration accepts Go duration strings such as "30m" or "1h".
func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}
