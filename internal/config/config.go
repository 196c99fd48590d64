package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug       bool   `mapstructure:"debug"`
	Environment string `mapstructure:"environment"`
	SentryDSN   string `mapstructure:"sentry_dsn"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig holds redis configuration for the per-wallet sync lock
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig holds the on-disk content store configuration
type StorageConfig struct {
	// Root is the directory blobs are persisted under, keyed by CID.
	Root string `mapstructure:"root"`
	// MaxUploadSize bounds multipart uploads (bytes).
	MaxUploadSize int64 `mapstructure:"max_upload_size"`
}

// SyncConfig holds replication engine configuration
type SyncConfig struct {
	// MaxExportRange caps the clock window a single /export response covers.
	MaxExportRange int64 `mapstructure:"max_export_range"`
	// LockTTL is the sync lock expiry; it must exceed the longest
	// plausible sync run so crashed holders cannot wedge a wallet.
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	// DebounceInterval is how long a queued sync trigger coalesces
	// further triggers for the same wallet before dispatch.
	DebounceInterval time.Duration `mapstructure:"debounce_interval"`
	// FetchConcurrency bounds parallel blob downloads per sync batch.
	FetchConcurrency int           `mapstructure:"fetch_concurrency"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	Worker           WorkerConfig  `mapstructure:"worker"`
}

// WorkerConfig holds pool sizing shared by the background queues
type WorkerConfig struct {
	PoolSize  int `mapstructure:"pool_size"`
	QueueSize int `mapstructure:"queue_size"`
}

// RegistryConfig holds the service registry mirror configuration
type RegistryConfig struct {
	URL string `mapstructure:"url"`
	// CacheTTL is how long registry reads are served from cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// StaleWindow extends a cached value past its TTL when the mirror
	// is unreachable.
	StaleWindow time.Duration `mapstructure:"stale_window"`
	// ContentGateways are last-resort fetch targets for blobs absent
	// from the user's replica set.
	ContentGateways []string `mapstructure:"content_gateways"`
}

// IdentityConfig identifies this node to its peers
type IdentityConfig struct {
	// SelfEndpoint is the externally reachable base URL of this node.
	SelfEndpoint string `mapstructure:"self_endpoint"`
	// DelegateWallet is the operator wallet registered for this node.
	DelegateWallet string `mapstructure:"delegate_wallet"`
	// DelegateKeyPath points at the RSA private key (PEM) used to sign
	// node-to-node file lookups.
	DelegateKeyPath string `mapstructure:"delegate_key_path"`
}

// SelectorConfig holds replica-set selection configuration
type SelectorConfig struct {
	// NumNodes is the replica set size (primary + secondaries).
	NumNodes        int           `mapstructure:"num_nodes"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	EnableSyncCheck bool          `mapstructure:"enable_sync_check"`
	AllowList       []string      `mapstructure:"allow_list"`
	DenyList        []string      `mapstructure:"deny_list"`
	Worker          WorkerConfig  `mapstructure:"worker"`
}

// NodeConfig holds configuration for the creator-node service
type NodeConfig struct {
	BaseConfig   `mapstructure:",squash"`
	Server       ServerConfig   `mapstructure:"server"`
	Database     DatabaseConfig `mapstructure:"database"`
	Redis        RedisConfig    `mapstructure:"redis"`
	Storage      StorageConfig  `mapstructure:"storage"`
	Sync         SyncConfig     `mapstructure:"sync"`
	Registry     RegistryConfig `mapstructure:"registry"`
	Identity     IdentityConfig `mapstructure:"identity"`
	DenylistPath string         `mapstructure:"denylist_path"`
}

// SelectReplicasConfig holds configuration for the select-replicas utility
type SelectReplicasConfig struct {
	BaseConfig `mapstructure:",squash"`
	Registry   RegistryConfig `mapstructure:"registry"`
	Selector   SelectorConfig `mapstructure:"selector"`
}

// LoadNodeConfig loads configuration for the creator-node service
func LoadNodeConfig(configFile string, envPath string) (*NodeConfig, error) {
	v := configureViper("creator-node", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.read_timeout", 60)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("storage.root", "/var/creator-node/files")
	v.SetDefault("storage.max_upload_size", 500*1024*1024) // 500MB
	v.SetDefault("sync.max_export_range", 10000)
	v.SetDefault("sync.lock_ttl", "30m")
	v.SetDefault("sync.debounce_interval", "5s")
	v.SetDefault("sync.fetch_concurrency", 10)
	v.SetDefault("sync.request_timeout", "45s")
	v.SetDefault("sync.worker.pool_size", 10)
	v.SetDefault("sync.worker.queue_size", 1024)
	v.SetDefault("registry.cache_ttl", "30s")
	v.SetDefault("registry.stale_window", "5m")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg NodeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}
	if cfg.Identity.SelfEndpoint == "" {
		return nil, errors.New("identity.self_endpoint is required")
	}

	return &cfg, nil
}

// LoadSelectReplicasConfig loads configuration for the select-replicas utility
func LoadSelectReplicasConfig(configFile string, envPath string) (*SelectReplicasConfig, error) {
	v := configureViper("select-replicas", configFile, envPath)

	// Set defaults
	v.SetDefault("registry.cache_ttl", "30s")
	v.SetDefault("registry.stale_window", "5m")
	v.SetDefault("selector.num_nodes", 3)
	v.SetDefault("selector.request_timeout", "3s")
	v.SetDefault("selector.enable_sync_check", false)
	v.SetDefault("selector.worker.pool_size", 20)
	v.SetDefault("selector.worker.queue_size", 256)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg SelectReplicasConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Registry.URL == "" {
		return nil, errors.New("registry.url is required")
	}

	return &cfg, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/creator-node/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("CREATOR_NODE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"environment",
		"sentry_dsn",
		"denylist_path",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Redis
		"redis.host",
		"redis.port",
		"redis.password",
		"redis.db",
		// Storage
		"storage.root",
		"storage.max_upload_size",
		// Sync
		"sync.max_export_range",
		"sync.lock_ttl",
		"sync.debounce_interval",
		"sync.fetch_concurrency",
		"sync.request_timeout",
		"sync.worker.pool_size",
		"sync.worker.queue_size",
		// Registry
		"registry.url",
		"registry.cache_ttl",
		"registry.stale_window",
		"registry.content_gateways",
		// Identity
		"identity.self_endpoint",
		"identity.delegate_wallet",
		"identity.delegate_key_path",
		// Selector
		"selector.num_nodes",
		"selector.request_timeout",
		"selector.enable_sync_check",
		"selector.allow_list",
		"selector.deny_list",
		"selector.worker.pool_size",
		"selector.worker.queue_size",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Addr returns the redis address in host:port form
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
