package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/ff-chain-events/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	LogLevel  string `mapstructure:"log_level"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL             string        `mapstructure:"url"`
	MaxReconnects   int           `mapstructure:"max_reconnects"`
	ReconnectWait   time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName  string        `mapstructure:"connection_name"`
	ConsumerName    string        `mapstructure:"consumer_name"`
	AckWait         time.Duration `mapstructure:"ack_wait"`
	MaxDeliver      int           `mapstructure:"max_deliver"`
	MaxAckPending   int           `mapstructure:"max_ack_pending"`
	StreamMaxAge    time.Duration `mapstructure:"stream_max_age"`
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
}

// Ethereum subscription modes
const (
	ETHEREUM_MODE_HEADERS = "headers"
	ETHEREUM_MODE_LOGS    = "logs"
)

// EthereumConfig holds EVM network configuration
type EthereumConfig struct {
	WebSocketURL         string         `mapstructure:"websocket_url"`
	ChainID              domain.Network `mapstructure:"chain_id"`
	Mode                 string         `mapstructure:"mode"` // "headers" or "logs"
	StartBlock           int64          `mapstructure:"start_block"`
	WatchedAddresses     []string       `mapstructure:"watched_addresses"`
	LogRangeSize         int64          `mapstructure:"log_range_size"`
	BlockHeadTTL         time.Duration  `mapstructure:"block_head_ttl"`
	BlockHeadStaleWindow time.Duration  `mapstructure:"block_head_stale_window"`
	WatchRetryDelay      time.Duration  `mapstructure:"watch_retry_delay"`
	WatchMaxRetries      uint64         `mapstructure:"watch_max_retries"`
}

// TezosConfig holds Tezos-specific configuration
type TezosConfig struct {
	APIURL               string         `mapstructure:"api_url"`
	WebSocketURL         string         `mapstructure:"websocket_url"`
	ChainID              domain.Network `mapstructure:"chain_id"`
	StartLevel           int64          `mapstructure:"start_level"`
	HTTPTimeout          time.Duration  `mapstructure:"http_timeout"`
	BlockHeadTTL         time.Duration  `mapstructure:"block_head_ttl"`
	BlockHeadStaleWindow time.Duration  `mapstructure:"block_head_stale_window"`
	PageSize             int            `mapstructure:"page_size"`
}

// EmitterConfig holds the cursor and supervision settings shared by emitters
type EmitterConfig struct {
	CursorSaveFreq  int64         `mapstructure:"cursor_save_freq"`
	CursorSaveDelay time.Duration `mapstructure:"cursor_save_delay"`
	RestartDelay    time.Duration `mapstructure:"restart_delay"`
	MaxErrors       int           `mapstructure:"max_errors"`
	HealthyPeriod   time.Duration `mapstructure:"healthy_period"`
}

// RedisConfig holds Redis configuration. An empty address disables Redis
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds

	// AllowedOrigins restricts CORS and websocket origins, empty allows all
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// WebhookConfig holds inbound webhook configuration
type WebhookConfig struct {
	Secret             string        `mapstructure:"secret"`
	TimestampTolerance time.Duration `mapstructure:"timestamp_tolerance"`
	MaxBodySize        int64         `mapstructure:"max_body_size"`
	RateLimit          float64       `mapstructure:"rate_limit"` // requests per second per client
	RateBurst          int           `mapstructure:"rate_burst"`
}

// FanoutConfig holds live fan-out configuration
type FanoutConfig struct {
	InactiveThreshold time.Duration `mapstructure:"inactive_threshold"`
	SendBufferSize    int           `mapstructure:"send_buffer_size"`
	SyncTimeout       time.Duration `mapstructure:"sync_timeout"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// RepublishConfig holds configuration for the republish sweeper
type RepublishConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
	Worker    WorkerConfig  `mapstructure:"worker"`
}

// EthereumEmitterConfig holds configuration for ethereum-event-emitter
type EthereumEmitterConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
	Emitter    EmitterConfig  `mapstructure:"emitter"`
}

// TezosEmitterConfig holds configuration for tezos-event-emitter
type TezosEmitterConfig struct {
	BaseConfig `mapstructure:",squash"`
	Worker     WorkerConfig   `mapstructure:"worker"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Tezos      TezosConfig    `mapstructure:"tezos"`
	Emitter    EmitterConfig  `mapstructure:"emitter"`
}

// ConsumerConfig holds configuration for chain-events-consumer
type ConsumerConfig struct {
	BaseConfig  `mapstructure:",squash"`
	Database    DatabaseConfig `mapstructure:"database"`
	NATS        NATSConfig     `mapstructure:"nats"`
	MaxInFlight int            `mapstructure:"max_in_flight"`
}

// SweeperConfig holds configuration for the sweeper program
type SweeperConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig  `mapstructure:"database"`
	NATS       NATSConfig      `mapstructure:"nats"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Republish  RepublishConfig `mapstructure:"republish"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Webhook    WebhookConfig  `mapstructure:"webhook"`
	Fanout     FanoutConfig   `mapstructure:"fanout"`
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
}

func setNATSDefaults(v *viper.Viper) {
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_max_age", "168h")
	v.SetDefault("nats.duplicate_window", "2m")
}

func setEmitterDefaults(v *viper.Viper) {
	v.SetDefault("emitter.cursor_save_freq", 10)
	v.SetDefault("emitter.cursor_save_delay", "30s")
	v.SetDefault("emitter.restart_delay", "5s")
	v.SetDefault("emitter.max_errors", 4)
	v.SetDefault("emitter.healthy_period", "10m")
}

// LoadEthereumEmitterConfig loads configuration for ethereum-event-emitter
func LoadEthereumEmitterConfig(configFile string, envPath string) (*EthereumEmitterConfig, error) {
	v := configureViper("ethereum-event-emitter", configFile, envPath)

	setDatabaseDefaults(v)
	setNATSDefaults(v)
	setEmitterDefaults(v)
	v.SetDefault("nats.connection_name", "ethereum-event-emitter")
	v.SetDefault("ethereum.chain_id", string(domain.NetworkEthereumMainnet))
	v.SetDefault("ethereum.mode", ETHEREUM_MODE_HEADERS)
	v.SetDefault("ethereum.log_range_size", 2000)
	v.SetDefault("ethereum.block_head_ttl", "12s")
	v.SetDefault("ethereum.block_head_stale_window", "60s")
	v.SetDefault("ethereum.watch_retry_delay", "5s")
	v.SetDefault("ethereum.watch_max_retries", 5)

	var config EthereumEmitterConfig
	if err := readConfig(v, &config); err != nil {
		return nil, err
	}

	if config.Ethereum.Mode != ETHEREUM_MODE_HEADERS && config.Ethereum.Mode != ETHEREUM_MODE_LOGS {
		return nil, fmt.Errorf("ethereum.mode must be \"headers\" or \"logs\", got %q", config.Ethereum.Mode)
	}

	return &config, nil
}

// LoadTezosEmitterConfig loads configuration for tezos-event-emitter
func LoadTezosEmitterConfig(configFile string, envPath string) (*TezosEmitterConfig, error) {
	v := configureViper("tezos-event-emitter", configFile, envPath)

	setDatabaseDefaults(v)
	setNATSDefaults(v)
	setEmitterDefaults(v)
	v.SetDefault("nats.connection_name", "tezos-event-emitter")
	v.SetDefault("tezos.api_url", "https://api.tzkt.io")
	v.SetDefault("tezos.websocket_url", "https://api.tzkt.io/v1/ws")
	v.SetDefault("tezos.chain_id", string(domain.NetworkTezosMainnet))
	v.SetDefault("tezos.http_timeout", "30s")
	v.SetDefault("tezos.block_head_ttl", "10s")
	v.SetDefault("tezos.block_head_stale_window", "60s")
	v.SetDefault("tezos.page_size", 500)
	// one worker keeps operations in chain order
	v.SetDefault("worker.pool_size", 1)
	v.SetDefault("worker.queue_size", 2048)

	var config TezosEmitterConfig
	if err := readConfig(v, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConsumerConfig loads configuration for chain-events-consumer
func LoadConsumerConfig(configFile string, envPath string) (*ConsumerConfig, error) {
	v := configureViper("chain-events-consumer", configFile, envPath)

	setDatabaseDefaults(v)
	setNATSDefaults(v)
	v.SetDefault("nats.connection_name", "chain-events-consumer")
	v.SetDefault("nats.consumer_name", "chain-events-consumer")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 5)
	v.SetDefault("nats.max_ack_pending", 256)
	v.SetDefault("max_in_flight", 32)

	var config ConsumerConfig
	if err := readConfig(v, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadSweeperConfig loads configuration for the sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	setDatabaseDefaults(v)
	setNATSDefaults(v)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("nats.connection_name", "sweeper")
	v.SetDefault("republish.interval", "5m")
	v.SetDefault("republish.batch_size", 500)
	v.SetDefault("republish.lock_ttl", "10m")
	v.SetDefault("republish.worker.pool_size", 10)
	v.SetDefault("republish.worker.queue_size", 1000)

	var cfg SweeperConfig
	if err := readConfig(v, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}

	return &cfg, nil
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	setDatabaseDefaults(v)
	setNATSDefaults(v)
	v.SetDefault("nats.connection_name", "chain-events-api")
	v.SetDefault("webhook.timestamp_tolerance", "5m")
	v.SetDefault("webhook.max_body_size", 1<<20)
	v.SetDefault("webhook.rate_limit", 20)
	v.SetDefault("webhook.rate_burst", 40)
	v.SetDefault("fanout.inactive_threshold", "5m")
	v.SetDefault("fanout.send_buffer_size", 64)
	v.SetDefault("fanout.sync_timeout", "10s")

	var config APIConfig
	if err := readConfig(v, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// readConfig reads the config file, tolerating a missing one, and unmarshals into out
func readConfig(v *viper.Viper, out interface{}) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search order: current directory, service directory, config directory
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("FF_CHAIN_EVENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"log_level",
		"sentry_dsn",
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
		// NATS
		"nats.url",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.consumer_name",
		"nats.ack_wait",
		"nats.max_deliver",
		"nats.max_ack_pending",
		"nats.stream_max_age",
		"nats.duplicate_window",
		// Ethereum
		"ethereum.websocket_url",
		"ethereum.chain_id",
		"ethereum.mode",
		"ethereum.start_block",
		"ethereum.watched_addresses",
		"ethereum.log_range_size",
		"ethereum.block_head_ttl",
		"ethereum.block_head_stale_window",
		"ethereum.watch_retry_delay",
		"ethereum.watch_max_retries",
		// Tezos
		"tezos.api_url",
		"tezos.websocket_url",
		"tezos.chain_id",
		"tezos.start_level",
		"tezos.http_timeout",
		"tezos.block_head_ttl",
		"tezos.block_head_stale_window",
		"tezos.page_size",
		// Emitter
		"emitter.cursor_save_freq",
		"emitter.cursor_save_delay",
		"emitter.restart_delay",
		"emitter.max_errors",
		"emitter.healthy_period",
		// Consumer
		"max_in_flight",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.allowed_origins",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Webhook
		"webhook.secret",
		"webhook.timestamp_tolerance",
		"webhook.max_body_size",
		"webhook.rate_limit",
		"webhook.rate_burst",
		// Fanout
		"fanout.inactive_threshold",
		"fanout.send_buffer_size",
		"fanout.sync_timeout",
		// Workers
		"worker.pool_size",
		"worker.queue_size",
		// Republish sweeper
		"republish.interval",
		"republish.batch_size",
		"republish.lock_ttl",
		"republish.worker.pool_size",
		"republish.worker.queue_size",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Shared base first, then local, then optional per-service local
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // later files override earlier ones
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
