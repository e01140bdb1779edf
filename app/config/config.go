// Package config loads settings and opens the configured store.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigFile is read when no explicit path is given and it exists.
const DefaultConfigFile = "taskcal.yaml"

// EnvPrefix prefixes every environment override, e.g. TASKCAL_STORE_BACKEND.
const EnvPrefix = "TASKCAL"

// Config holds all runtime settings.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// StoreConfig selects the backend.
type StoreConfig struct {
	Backend      string `mapstructure:"backend"` // memory, sqlite, neo4j or firestore
	PollSchedule string `mapstructure:"poll_schedule"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type FirebaseConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// AuthConfig selects how bearer tokens are verified.
type AuthConfig struct {
	Mode      string        `mapstructure:"mode"` // jwt or firebase
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// Backend names accepted in store.backend.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendNeo4j     = "neo4j"
	BackendFirestore = "firestore"
)

// Auth modes accepted in auth.mode.
const (
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: "0.0.0.0:8080"},
		Store: StoreConfig{
			Backend:      BackendMemory,
			PollSchedule: "@every 10s",
		},
		SQLite: SQLiteConfig{Path: "taskcal.db"},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://neo4j:7687",
			Username: "neo4j",
			Password: "password",
		},
		Auth: AuthConfig{
			Mode:     AuthJWT,
			TokenTTL: 24 * time.Hour,
		},
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.poll_schedule", cfg.Store.PollSchedule)
	v.SetDefault("sqlite.path", cfg.SQLite.Path)
	v.SetDefault("neo4j.uri", cfg.Neo4j.URI)
	v.SetDefault("neo4j.username", cfg.Neo4j.Username)
	v.SetDefault("neo4j.password", cfg.Neo4j.Password)
	v.SetDefault("firebase.project_id", cfg.Firebase.ProjectID)
	v.SetDefault("firebase.credentials_file", cfg.Firebase.CredentialsFile)
	v.SetDefault("auth.mode", cfg.Auth.Mode)
	v.SetDefault("auth.jwt_secret", cfg.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", cfg.Auth.TokenTTL)
}

// Load layers defaults, the YAML file at path (or DefaultConfigFile if present),
// a .env file and TASKCAL_* environment variables, later layers winning.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite, BackendNeo4j, BackendFirestore:
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	switch c.Auth.Mode {
	case AuthJWT, AuthFirebase:
	default:
		return fmt.Errorf("unknown auth.mode %q", c.Auth.Mode)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}
