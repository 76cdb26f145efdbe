package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the indexer application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Ethereum      EthereumConfig      `mapstructure:"ethereum"`
	IPFS          IPFSConfig          `mapstructure:"ipfs"`
	Search        SearchConfig        `mapstructure:"search"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Indexer       IndexerConfig       `mapstructure:"indexer"`
	Monitoring    MonitoringConfig    `mapstructure:"monitoring"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// EthereumConfig contains Ethereum client settings
type EthereumConfig struct {
	RPCURL           string        `mapstructure:"rpc_url"`
	ChainID          int64         `mapstructure:"chain_id"`
	RegistryContract string        `mapstructure:"registry_contract"`
	PollingInterval  time.Duration `mapstructure:"polling_interval"`
	StartBlock       int64         `mapstructure:"start_block"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
}

// IPFSConfig contains IPFS API settings for content resolution
type IPFSConfig struct {
	APIURL  string        `mapstructure:"api_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig contains Elasticsearch client settings
type SearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// NotificationsConfig contains push notification fan-out settings
type NotificationsConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// IndexerConfig contains event pipeline settings
type IndexerConfig struct {
	TrackerID  string        `mapstructure:"tracker_id"`
	MaxRetries uint          `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "marketplace")

	// Ethereum defaults
	viper.SetDefault("ethereum.chain_id", 1)
	viper.SetDefault("ethereum.polling_interval", "15s")
	viper.SetDefault("ethereum.start_block", 0)
	viper.SetDefault("ethereum.call_timeout", "10s")

	// IPFS defaults
	viper.SetDefault("ipfs.api_url", "localhost:5001")
	viper.SetDefault("ipfs.timeout", "30s")

	// Search defaults
	viper.SetDefault("search.enabled", true)
	viper.SetDefault("search.addresses", []string{"http://localhost:9200"})
	viper.SetDefault("search.index", "origin")

	// Notifications defaults
	viper.SetDefault("notifications.timeout", "5s")

	// Indexer defaults
	viper.SetDefault("indexer.tracker_id", "ethereum")
	viper.SetDefault("indexer.max_retries", 5)
	viper.SetDefault("indexer.retry_delay", "2s")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Ethereum.RPCURL == "" {
		return fmt.Errorf("ethereum.rpc_url is required")
	}
	if config.Ethereum.RegistryContract == "" {
		return fmt.Errorf("ethereum.registry_contract is required")
	}
	if config.Search.Enabled && len(config.Search.Addresses) == 0 {
		return fmt.Errorf("search.addresses is required when search is enabled")
	}
	if config.Indexer.TrackerID == "" {
		return fmt.Errorf("indexer.tracker_id is required")
	}
	return nil
}
