// Package config loads moviedb settings from defaults, an optional YAML or
// JSON file and the environment, in that order of precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full set of settings. Fields tagged `env` can be overridden
// by the named environment variable.
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Security SecurityConfig `yaml:"security" json:"security"`
	API      APIConfig      `yaml:"api" json:"api"`
}

type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" env:"MOVIEDB_HOST"`
	Port         int           `yaml:"port" json:"port" env:"MOVIEDB_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" env:"MOVIEDB_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"MOVIEDB_WRITE_TIMEOUT"`
	ReleaseMode  bool          `yaml:"release_mode" json:"release_mode" env:"MOVIEDB_RELEASE_MODE"`
}

// DatabaseConfig selects and tunes the backing store. Path is used by
// sqlite, the connection fields by postgres.
type DatabaseConfig struct {
	Type            string        `yaml:"type" json:"type" env:"DATABASE_TYPE"`
	Path            string        `yaml:"path" json:"path" env:"SQLITE_PATH"`
	Host            string        `yaml:"host" json:"host" env:"POSTGRES_HOST"`
	Port            int           `yaml:"port" json:"port" env:"POSTGRES_PORT"`
	Username        string        `yaml:"username" json:"username" env:"POSTGRES_USER"`
	Password        string        `yaml:"password" json:"-" env:"POSTGRES_PASSWORD"`
	Name            string        `yaml:"name" json:"name" env:"POSTGRES_DB"`
	SSLMode         string        `yaml:"ssl_mode" json:"ssl_mode" env:"POSTGRES_SSL_MODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	LogQueries      bool          `yaml:"log_queries" json:"log_queries" env:"DB_LOG_QUERIES"`
}

// PostgresDSN builds the connection string for the postgres driver.
func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.Username, d.Password, d.Name, d.Port, d.SSLMode)
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"MOVIEDB_LOG_LEVEL"`
	Format string `yaml:"format" json:"format" env:"MOVIEDB_LOG_FORMAT"` // text or json
}

// SecurityConfig controls who may call the mutating endpoints.
type SecurityConfig struct {
	// AllowAnonymousWrites opens POST/PUT/PATCH/DELETE to unauthenticated callers.
	AllowAnonymousWrites bool   `yaml:"allow_anonymous_writes" json:"allow_anonymous_writes" env:"ALLOW_ANONYMOUS_WRITES"`
	JWTSecret            string `yaml:"jwt_secret" json:"-" env:"MOVIEDB_JWT_SECRET"`
}

type APIConfig struct {
	DefaultPageSize int `yaml:"default_page_size" json:"default_page_size" env:"MOVIEDB_PAGE_SIZE"`
	MaxPageSize     int `yaml:"max_page_size" json:"max_page_size" env:"MOVIEDB_MAX_PAGE_SIZE"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Type:            "sqlite",
			Path:            "./data/moviedb.db",
			Host:            "localhost",
			Port:            5432,
			Username:        "moviedb",
			Name:            "moviedb",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Security: SecurityConfig{AllowAnonymousWrites: true},
		API:      APIConfig{DefaultPageSize: 100, MaxPageSize: 1000},
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if !c.Security.AllowAnonymousWrites && c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is required when anonymous writes are disabled")
	}

	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("invalid default page size: %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("max page size %d is below default page size %d", c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	return nil
}

// ConfigWatcher is notified after every successful load.
type ConfigWatcher func(oldConfig, newConfig *Config)

// ConfigManager holds the active configuration and reloads it on demand.
type ConfigManager struct {
	mu       sync.RWMutex
	current  *Config
	path     string
	watchers []ConfigWatcher
}

func NewConfigManager() *ConfigManager {
	return &ConfigManager{current: DefaultConfig()}
}

// LoadConfig rebuilds the configuration from path (which may be empty or
// missing) and the environment. On error the active configuration is kept.
func (cm *ConfigManager) LoadConfig(path string) error {
	next, err := build(path)
	if err != nil {
		return err
	}

	cm.mu.Lock()
	prev := cm.current
	cm.current, cm.path = next, path
	notify := append([]ConfigWatcher(nil), cm.watchers...)
	cm.mu.Unlock()

	for _, w := range notify {
		w(prev, next)
	}
	return nil
}

// GetConfig returns a copy of the active configuration.
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	snapshot := *cm.current
	return &snapshot
}

// ConfigPath returns the file the configuration was last loaded from.
func (cm *ConfigManager) ConfigPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.path
}

func (cm *ConfigManager) AddWatcher(w ConfigWatcher) {
	cm.mu.Lock()
	cm.watchers = append(cm.watchers, w)
	cm.mu.Unlock()
}

func build(path string) (*Config, error) {
	// Variables already in the environment win over .env entries.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// decodeFile overlays the file at path onto cfg. A missing file is not an error.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// applyEnv walks the config sections and assigns every `env` tagged field
// whose variable is set and non-empty.
func applyEnv(section reflect.Value) error {
	for _, sf := range reflect.VisibleFields(section.Type()) {
		fv := section.FieldByIndex(sf.Index)
		if sf.Type.Kind() == reflect.Struct {
			if err := applyEnv(fv); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		raw := os.Getenv(name)
		if name == "" || raw == "" {
			continue
		}
		if err := assign(fv, raw); err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", raw, name, err)
		}
	}
	return nil
}

func assign(fv reflect.Value, raw string) error {
	switch {
	case fv.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
	case fv.Kind() == reflect.String:
		fv.SetString(raw)
	case fv.Kind() == reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(n))
	case fv.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", fv.Type())
	}
	return nil
}

var (
	global     *ConfigManager
	globalOnce sync.Once
)

// GetConfigManager returns the process wide manager.
func GetConfigManager() *ConfigManager {
	globalOnce.Do(func() { global = NewConfigManager() })
	return global
}

func Get() *Config { return GetConfigManager().GetConfig() }

func Load(path string) error { return GetConfigManager().LoadConfig(path) }

func AddWatcher(w ConfigWatcher) { GetConfigManager().AddWatcher(w) }
