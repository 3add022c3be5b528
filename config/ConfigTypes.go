package config

import (
	"fmt"
	"time"
)

type Config struct {
	Exchange ExchangeConfig
	Database DatabaseConfig
	API      APIConfig
	Log      LogConfig
	Sweep    SweepConfig
	Symbols  []string
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
	RateLimit float64 // requests per second
	Burst     int
	Timeout   time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}

// Enabled reports whether enough is set to attempt a connection.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != "" && d.DBName != ""
}

type APIConfig struct {
	Port               string
	Env                string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

type LogConfig struct {
	Level string
}

type SweepConfig struct {
	Workers int // 0 = GOMAXPROCS
}
