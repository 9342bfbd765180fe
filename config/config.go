package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	App      AppSection      `mapstructure:"app"`
	Database DatabaseSection `mapstructure:"database"`
	Redis    RedisSection    `mapstructure:"redis"`
	Log      LogSection      `mapstructure:"log"`
	Storage  StorageSection  `mapstructure:"storage"`
	Kafka    KafkaSection    `mapstructure:"kafka"`
}

type AppSection struct {
	Port               string   `mapstructure:"port"`
	JWTSecret          string   `mapstructure:"jwt_secret"`
	AdminPassword      string   `mapstructure:"admin_password"`
	TokenTTLHours      int      `mapstructure:"token_ttl_hours"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	GinMode            string   `mapstructure:"gin_mode"`
	GinPath            string   `mapstructure:"gin_path"`
}

type DatabaseSection struct {
	// Driver is either "mysql" or "postgres".
	Driver   string `mapstructure:"driver"`
	URI      string `mapstructure:"uri"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisSection struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

type LogSection struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type StorageSection struct {
	// Driver is either "local" or "minio".
	Driver            string `mapstructure:"driver"`
	Root              string `mapstructure:"root"`
	TempDir           string `mapstructure:"temp_dir"`
	BaseURL           string `mapstructure:"base_url"`
	MaxUploadMB       int    `mapstructure:"max_upload_mb"`
	StagingMaxAgeMins int    `mapstructure:"staging_max_age_mins"`
	MinioEndpoint     string `mapstructure:"minio_endpoint"`
	MinioAccessKey    string `mapstructure:"minio_access_key"`
	MinioSecretKey    string `mapstructure:"minio_secret_key"`
	MinioBucket       string `mapstructure:"minio_bucket"`
	MinioUseSSL       bool   `mapstructure:"minio_use_ssl"`
}

type KafkaSection struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
)

// envBindings keeps the historical environment variable names working.
var envBindings = map[string]string{
	"app.port":                     "APP_PORT",
	"app.jwt_secret":               "JWT_SECRET",
	"app.admin_password":           "ADMIN_PASSWORD",
	"app.token_ttl_hours":          "TOKEN_TTL_HOURS",
	"app.rate_limit_per_minute":    "RATE_LIMIT_PER_MINUTE",
	"app.allowed_origins":          "CORS_ALLOWED_ORIGINS",
	"app.gin_mode":                 "GIN_MODE",
	"app.gin_path":                 "GIN_PATH",
	"database.driver":              "DB_DRIVER",
	"database.uri":                 "DATABASE_URI",
	"database.host":                "DB_HOST",
	"database.port":                "DB_PORT",
	"database.user":                "DB_USER",
	"database.password":            "DB_PASSWORD",
	"database.name":                "DB_NAME",
	"redis.host":                   "REDIS_HOST",
	"redis.port":                   "REDIS_PORT",
	"redis.db":                     "REDIS_DB",
	"redis.password":               "REDIS_PASSWORD",
	"log.level":                    "LOG_LEVEL",
	"log.path":                     "LOG_PATH",
	"log.max_size_mb":              "LOG_MAX_SIZE_MB",
	"log.max_backups":              "LOG_MAX_BACKUPS",
	"log.max_age_days":             "LOG_MAX_AGE_DAYS",
	"log.compress":                 "LOG_COMPRESS",
	"storage.driver":               "STORAGE_DRIVER",
	"storage.root":                 "STORAGE_ROOT",
	"storage.temp_dir":             "STORAGE_TEMP_DIR",
	"storage.base_url":             "STORAGE_BASE_URL",
	"storage.max_upload_mb":        "STORAGE_MAX_UPLOAD_MB",
	"storage.staging_max_age_mins": "STORAGE_STAGING_MAX_AGE_MINS",
	"storage.minio_endpoint":       "MINIO_ENDPOINT",
	"storage.minio_access_key":     "MINIO_ACCESS_KEY",
	"storage.minio_secret_key":     "MINIO_SECRET_KEY",
	"storage.minio_bucket":         "MINIO_BUCKET",
	"storage.minio_use_ssl":        "MINIO_USE_SSL",
	"kafka.brokers":                "KAFKA_BROKERS",
	"kafka.topic":                  "KAFKA_TOPIC",
}

// Load loads the application configuration once during boot.
// Precedence: defaults -> config/config.json -> .env -> environment variables.
func Load() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()

	_ = godotenv.Load()

	c, err := LoadFrom(filepath.Join("config", "config.json"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if c.App.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	Set(c)
	return c
}

// LoadFrom reads the given JSON file (missing file is fine) and applies defaults and env overrides.
func LoadFrom(path string) (AppConfig, error) {
	v := viper.New()
	applyDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return AppConfig{}, err
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	var out AppConfig
	if err := v.Unmarshal(&out); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	out.App.AllowedOrigins = splitAndTrim(out.App.AllowedOrigins)
	out.Kafka.Brokers = splitAndTrim(out.Kafka.Brokers)
	return out, nil
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()
	return Load()
}

// Set installs c as the process configuration.
func Set(c AppConfig) {
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.token_ttl_hours", 72)
	v.SetDefault("app.rate_limit_per_minute", 60)
	v.SetDefault("app.allowed_origins", []string{"*"})
	v.SetDefault("app.gin_mode", "release")
	v.SetDefault("app.gin_path", "logs/go_gin.log")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "rsvblog")

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.root", "genFiles")
	v.SetDefault("storage.temp_dir", filepath.Join("tmp", "staging"))
	v.SetDefault("storage.max_upload_mb", 50)
	v.SetDefault("storage.staging_max_age_mins", 60)
	v.SetDefault("storage.minio_bucket", "rsvblog")

	v.SetDefault("kafka.topic", "rsvblog.events")
}

// splitAndTrim flattens comma separated entries coming from env vars.
func splitAndTrim(raw []string) []string {
	items := []string{}
	for _, entry := range raw {
		for _, item := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	return items
}
