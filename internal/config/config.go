package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AuthServer holds all configuration for the authentication server: the
// SRP login handshake and the realm list it advertises (§4.2).
type AuthServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)

	// Realm list advertised by the REALMLIST handler
	Realms []RealmEntry `yaml:"realms"`

	// Flood protection
	FloodProtection      bool `yaml:"flood_protection"`
	FastConnectionLimit  int  `yaml:"fast_connection_limit"`
	NormalConnectionTime int  `yaml:"normal_connection_time"` // ms
	FastConnectionTime   int  `yaml:"fast_connection_time"`   // ms
	MaxConnectionPerIP   int  `yaml:"max_connection_per_ip"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	// Connection pool parameters (optional, defaults from pgxpool apply if not set)
	MaxConns          int32  `yaml:"max_conns"`           // default: max(4, NumCPU)
	MinConns          int32  `yaml:"min_conns"`           // default: 0
	MaxConnLifetime   string `yaml:"max_conn_lifetime"`   // duration, e.g. "1h"
	MaxConnIdleTime   string `yaml:"max_conn_idle_time"`  // duration, e.g. "30m"
	HealthCheckPeriod string `yaml:"health_check_period"` // duration, e.g. "1m"
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	base := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)

	var params []string
	if d.MaxConns > 0 {
		params = append(params, fmt.Sprintf("pool_max_conns=%d", d.MaxConns))
	}
	if d.MinConns > 0 {
		params = append(params, fmt.Sprintf("pool_min_conns=%d", d.MinConns))
	}
	if d.MaxConnLifetime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_lifetime=%s", d.MaxConnLifetime))
	}
	if d.MaxConnIdleTime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_idle_time=%s", d.MaxConnIdleTime))
	}
	if d.HealthCheckPeriod != "" {
		params = append(params, fmt.Sprintf("pool_health_check_period=%s", d.HealthCheckPeriod))
	}

	if len(params) > 0 {
		return base + "&" + strings.Join(params, "&")
	}
	return base
}

// RealmEntry is one realm advertised by the REALMLIST handler: name,
// network address, current population bracket, and category flags (§4.2).
type RealmEntry struct {
	Name       string `yaml:"name"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Population uint8  `yaml:"population"` // 0=low, 1=medium, 2=high
	Category   uint32 `yaml:"category"`   // bitmask: e.g. PvP, new-player recommended
}

// DefaultAuthServer returns AuthServer config with sensible defaults.
func DefaultAuthServer() AuthServer {
	return AuthServer{
		BindAddress:           "0.0.0.0",
		Port:                  3724,
		LogLevel:              "info",
		FloodProtection:       true,
		FastConnectionLimit:   15,
		NormalConnectionTime:  700,
		FastConnectionTime:    350,
		MaxConnectionPerIP:    50,
		Database: DatabaseConfig{
			Host:    "127.0.0.1",
			Port:    5432,
			User:    "aethermoor",
			Password: "aethermoor",
			DBName:  "aethermoor",
			SSLMode: "disable",
		},
		Realms: []RealmEntry{
			{Name: "Aethermoor", Host: "127.0.0.1", Port: 8085, Population: 0, Category: 0},
		},
	}
}

// LoadAuthServer loads auth server config from a YAML file. If the file
// doesn't exist, returns defaults.
func LoadAuthServer(path string) (AuthServer, error) {
	cfg := DefaultAuthServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
