package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool
	SnowflakeNode    int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis     RedisConfig
	Storage   StorageConfig
	Email     EmailConfig
	Kafka     KafkaConfig
	Scheduler SchedulerConfig
	Bootstrap BootstrapConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis endpoint is configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type StorageConfig struct {
	LocalDir        string
	PublicBaseURL   string
	MaxUploadBytes  int64
	OSSEndpoint     string
	OSSAccessKey    string
	OSSAccessSecret string
	OSSBucket       string
	OSSPrefix       string
	WebPQuality     int
	MaxImageWidth   int
	MaxImageHeight  int
}

// OSSEnabled reports whether Aliyun OSS credentials are complete.
func (c StorageConfig) OSSEnabled() bool {
	return c.OSSEndpoint != "" && c.OSSAccessKey != "" && c.OSSAccessSecret != "" && c.OSSBucket != ""
}

type EmailConfig struct {
	Provider    string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	FromAddress string
	FromName    string
}

type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

// Enabled reports whether at least one broker is configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type SchedulerConfig struct {
	Enabled            bool
	SessionPurgeSpec   string
	AuditPurgeSpec     string
	AuditRetentionDays int
	JobTimeout         time.Duration
}

type BootstrapConfig struct {
	Seed          bool
	AdminEmail    string
	AdminPassword string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "cicilan"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		SnowflakeNode:    getenvInt64("SNOWFLAKE_NODE", 1),
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "cicilan"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			LocalDir:        getenv("UPLOAD_DIR", "./public/uploads"),
			PublicBaseURL:   strings.TrimRight(getenv("UPLOAD_PUBLIC_BASE_URL", "/uploads"), "/"),
			MaxUploadBytes:  getenvInt64("UPLOAD_MAX_BYTES", 5*1024*1024),
			OSSEndpoint:     strings.TrimSpace(getenv("ALI_OSS_ENDPOINT", "")),
			OSSAccessKey:    strings.TrimSpace(getenv("ALI_OSS_ACCESS_KEY", "")),
			OSSAccessSecret: strings.TrimSpace(getenv("ALI_OSS_SECRET_KEY", "")),
			OSSBucket:       strings.TrimSpace(getenv("ALI_OSS_BUCKET", "")),
			OSSPrefix:       strings.Trim(getenv("ALI_OSS_PREFIX", "cicilan"), "/"),
			WebPQuality:     getenvInt("IMAGE_WEBP_QUALITY", 80),
			MaxImageWidth:   getenvInt("IMAGE_MAX_W", 1600),
			MaxImageHeight:  getenvInt("IMAGE_MAX_H", 1600),
		},
		Email: EmailConfig{
			Provider:    strings.ToLower(getenv("EMAIL_PROVIDER", "noop")),
			SMTPHost:    getenv("SMTP_HOST", ""),
			SMTPPort:    getenvInt("SMTP_PORT", 587),
			SMTPUser:    getenv("SMTP_USER", ""),
			SMTPPass:    getenv("SMTP_PASSWORD", ""),
			FromAddress: getenv("EMAIL_FROM_ADDRESS", "no-reply@cicilan.local"),
			FromName:    getenv("EMAIL_FROM_NAME", "Cicilan"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(getenv("KAFKA_BROKERS", "")),
			TopicPrefix: strings.Trim(getenv("KAFKA_TOPIC_PREFIX", "cicilan"), "."),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getenvBool("SCHEDULER_ENABLED", true),
			SessionPurgeSpec:   getenv("SCHEDULER_SESSION_PURGE", "@every 1h"),
			AuditPurgeSpec:     getenv("SCHEDULER_AUDIT_PURGE", "@daily"),
			AuditRetentionDays: getenvInt("AUDIT_RETENTION_DAYS", 365),
			JobTimeout:         time.Duration(getenvInt("SCHEDULER_JOB_TIMEOUT_SECONDS", 120)) * time.Second,
		},
		Bootstrap: BootstrapConfig{
			Seed:          getenvBool("BOOTSTRAP_SEED", environment != "production"),
			AdminEmail:    strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", "admin@example.com")),
			AdminPassword: getenv("BOOTSTRAP_ADMIN_PASSWORD", "admin123"),
		},
	}

	return cfg
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
