package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WorldServer holds all configuration for the world server: connection
// plumbing shared by every object-replication/chat session (§4.4-4.7).
type WorldServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Write queue / timeouts
	WriteTimeout  time.Duration `yaml:"write_timeout"`   // per-write deadline (default: 5s)
	ReadTimeout   time.Duration `yaml:"read_timeout"`    // idle client disconnect (default: 120s)
	SendQueueSize int           `yaml:"send_queue_size"` // per-client outbox capacity (default: 256)

	// Flood protection
	FloodProtection      bool `yaml:"flood_protection"`
	FastConnectionLimit  int  `yaml:"fast_connection_limit"`
	NormalConnectionTime int  `yaml:"normal_connection_time"` // ms
	FastConnectionTime   int  `yaml:"fast_connection_time"`   // ms
	MaxConnectionPerIP   int  `yaml:"max_connection_per_ip"`
}

// DefaultWorldServer returns WorldServer config with sensible defaults.
func DefaultWorldServer() WorldServer {
	return WorldServer{
		BindAddress:          "0.0.0.0",
		Port:                 8085,
		LogLevel:             "info",
		WriteTimeout:         5 * time.Second,
		ReadTimeout:          120 * time.Second,
		SendQueueSize:        256,
		FloodProtection:      true,
		FastConnectionLimit:  15,
		NormalConnectionTime: 700,
		FastConnectionTime:   350,
		MaxConnectionPerIP:   50,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "aethermoor",
			Password: "aethermoor",
			DBName:   "aethermoor",
			SSLMode:  "disable",
		},
	}
}

// LoadWorldServer loads world server config from a YAML file. If the file
// doesn't exist, returns defaults.
func LoadWorldServer(path string) (WorldServer, error) {
	cfg := DefaultWorldServer()

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
