package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	config "github.com/0xsj/overwatch-pkg/config"
)

// Registry drivers.
const (
	RegistrySQLite   = "sqlite"
	RegistryPostgres = "postgres"
	RegistryMemory   = "memory"
)

// Lock backends.
const (
	LockMemory   = "memory"
	LockRedis    = "redis"
	LockPostgres = "postgres"
)

// Mail transports.
const (
	MailLog  = "log"
	MailSMTP = "smtp"
	MailNATS = "nats"
)

// Config holds all configuration for the NickServ bot.
type Config struct {
	IRC      IRCConfig
	NickServ NickServConfig
	Registry RegistryConfig
	Lock     LockConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Mail     MailConfig
	Server   ServerConfig
	Metrics  MetricsConfig
}

// IRCConfig holds the IRC connection settings.
type IRCConfig struct {
	Server         string        `env:"IRC_SERVER" default:"localhost"`
	Port           int           `env:"IRC_PORT" default:"6667"`
	UseTLS         bool          `env:"IRC_TLS" default:"false"`
	User           string        `env:"IRC_USER" default:"nickserv"`
	RealName       string        `env:"IRC_REAL_NAME" default:"NickServ"`
	Password       string        `env:"IRC_PASSWORD" default:"" sensitive:"true"`
	Channels       string        `env:"IRC_CHANNELS" default:""`
	Workers        int           `env:"IRC_WORKERS" default:"8"`
	QueueDepth     int           `env:"IRC_QUEUE_DEPTH" default:"4"`
	CommandTimeout time.Duration `env:"IRC_COMMAND_TIMEOUT" default:"1m"`
}

// NickServConfig holds the registration policy.
type NickServConfig struct {
	BotNick          string        `env:"BOT_NICK" default:"NickServ"`
	NickTimeoutDays  int           `env:"NICK_TIMEOUT_DAYS" default:"90"`
	AuthTimeoutHours int           `env:"AUTH_TIMEOUT_HOURS" default:"24"`
	MailFrom         string        `env:"MAIL_FROM" default:"noreply@nano.li"`
	MailSubject      string        `env:"MAIL_SUBJECT" default:"NickServ Confirmation Email"`
	MailTimeout      time.Duration `env:"MAIL_TIMEOUT" default:"30s"`
}

// RegistryConfig selects where nick records live.
type RegistryConfig struct {
	Driver     string `env:"REGISTRY_DRIVER" default:"sqlite"`
	SQLitePath string `env:"REGISTRY_SQLITE_PATH" default:"nickserv.db"`
}

// LockConfig selects how concurrent commands for one nick are serialized.
type LockConfig struct {
	Backend   string        `env:"LOCK_BACKEND" default:"memory"`
	TTL       time.Duration `env:"LOCK_TTL" default:"30s"`
	RetryWait time.Duration `env:"LOCK_RETRY_WAIT" default:"25ms"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host              string        `env:"DATABASE_HOST" default:"localhost"`
	Port              int           `env:"DATABASE_PORT" default:"5450"`
	User              string        `env:"DATABASE_USER" default:"overwatch"`
	Password          string        `env:"DATABASE_PASSWORD" default:"overwatch" sensitive:"true"`
	Database          string        `env:"DATABASE_NAME" default:"nickserv"`
	SSLMode           string        `env:"DATABASE_SSL_MODE" default:"disable"`
	MaxConns          int           `env:"DATABASE_MAX_CONNS" default:"25"`
	MinConns          int           `env:"DATABASE_MIN_CONNS" default:"5"`
	MaxConnLifetime   time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime   time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" default:"30m"`
	HealthCheckPeriod time.Duration `env:"DATABASE_HEALTH_CHECK_PERIOD" default:"1m"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host         string        `env:"REDIS_HOST" default:"localhost"`
	Port         int           `env:"REDIS_PORT" default:"6390"`
	Password     string        `env:"REDIS_PASSWORD" default:"" sensitive:"true"`
	DB           int           `env:"REDIS_DB" default:"0"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" default:"5"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// NATSConfig holds NATS configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL           string        `env:"NATS_URL" default:""`
	SubjectPrefix string        `env:"NATS_SUBJECT_PREFIX" default:"irc"`
	MaxReconnects int           `env:"NATS_MAX_RECONNECTS" default:"10"`
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" default:"2s"`
}

// MailConfig selects the confirmation mail transport.
type MailConfig struct {
	Transport    string `env:"MAIL_TRANSPORT" default:"log"`
	SMTPHost     string `env:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" default:"25"`
	SMTPUsername string `env:"SMTP_USERNAME" default:""`
	SMTPPassword string `env:"SMTP_PASSWORD" default:"" sensitive:"true"`
	SMTPStartTLS bool   `env:"SMTP_STARTTLS" default:"false"`
}

// ServerConfig holds gRPC health server configuration.
type ServerConfig struct {
	Enabled           bool          `env:"SERVER_ENABLED" default:"true"`
	Host              string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port              int           `env:"SERVER_PORT" default:"50051"`
	EnableReflection  bool          `env:"SERVER_ENABLE_REFLECTION" default:"true"`
	EnableHealthCheck bool          `env:"SERVER_ENABLE_HEALTH_CHECK" default:"true"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// MetricsConfig holds the HTTP metrics endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" default:"true"`
	Address string `env:"METRICS_ADDRESS" default:"0.0.0.0:9090"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.WithPrefix("NICKSERV_")); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks cross-field constraints the struct tags cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.NickServ.BotNick) == "" {
		return fmt.Errorf("bot nick is required")
	}
	if c.NickServ.AuthTimeoutHours <= 0 {
		return fmt.Errorf("auth timeout must be positive, got %d hours", c.NickServ.AuthTimeoutHours)
	}
	if c.NickServ.NickTimeoutDays <= 0 {
		return fmt.Errorf("nick timeout must be positive, got %d days", c.NickServ.NickTimeoutDays)
	}
	if c.IRC.Port <= 0 || c.IRC.Port > 65535 {
		return fmt.Errorf("invalid IRC port: %d", c.IRC.Port)
	}

	switch c.Registry.Driver {
	case RegistrySQLite:
		if c.Registry.SQLitePath == "" {
			return fmt.Errorf("sqlite registry requires a path")
		}
	case RegistryPostgres, RegistryMemory:
	default:
		return fmt.Errorf("unknown registry driver %q", c.Registry.Driver)
	}

	switch c.Lock.Backend {
	case LockMemory:
	case LockRedis:
		if c.Lock.TTL < time.Second || c.Lock.RetryWait <= 0 {
			return fmt.Errorf("redis lock needs a TTL of at least 1s and a positive retry wait")
		}
	case LockPostgres:
		if c.Registry.Driver != RegistryPostgres {
			return fmt.Errorf("postgres lock backend requires the postgres registry")
		}
	default:
		return fmt.Errorf("unknown lock backend %q", c.Lock.Backend)
	}

	switch c.Mail.Transport {
	case MailLog, MailSMTP:
	case MailNATS:
		if c.NATS.URL == "" {
			return fmt.Errorf("nats mail transport requires a NATS URL")
		}
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}

	return nil
}

// ChannelList returns the configured channels to join.
func (c *IRCConfig) ChannelList() []string {
	var channels []string
	for _, ch := range strings.Split(c.Channels, ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			channels = append(channels, ch)
		}
	}
	return channels
}

// Address returns the gRPC server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Address returns the Redis address.
func (c *RedisConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NATSEnabled reports whether a NATS server is configured.
func (c *Config) NATSEnabled() bool {
	return c.NATS.URL != ""
}

// NeedsPostgres reports whether any component uses the database.
func (c *Config) NeedsPostgres() bool {
	return c.Registry.Driver == RegistryPostgres || c.Lock.Backend == LockPostgres
}
