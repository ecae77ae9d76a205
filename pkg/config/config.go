package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Overlay persistence backends.
const (
	OverlayBackendFile     = "file"
	OverlayBackendPostgres = "postgres"
	OverlayBackendRedis    = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Data     DataConfig
	Overlay  OverlayConfig
	Admin    AdminConfig
	Metrics  MetricsConfig
	Reports  ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	PingTimeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password    string
	DB          int
	PingTimeout time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DataConfig locates the records workbook and the upload area.
type DataConfig struct {
	SourcePath     string
	UploadsDir     string
	UploadMaxBytes int64
}

// OverlayConfig selects where the runtime overlay snapshot is persisted.
type OverlayConfig struct {
	Backend  string
	FilePath string
	RedisKey string
}

// AdminConfig holds the synthetic administrator credentials added on every import.
type AdminConfig struct {
	Username string
	Password string
	Name     string
}

// ReportsConfig shapes CSV downloads.
type ReportsConfig struct {
	CSVDelimiter rune
	CSVBOM       bool
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		PingTimeout:  parseDuration(v.GetString("DB_PING_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		PingTimeout: parseDuration(v.GetString("REDIS_PING_TIMEOUT"), 5*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 8*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_BYTES")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Data = DataConfig{
		SourcePath:     v.GetString("DATA_SOURCE_PATH"),
		UploadsDir:     v.GetString("UPLOADS_DIR"),
		UploadMaxBytes: maxUpload,
	}

	cfg.Overlay = OverlayConfig{
		Backend:  strings.ToLower(strings.TrimSpace(v.GetString("OVERLAY_BACKEND"))),
		FilePath: v.GetString("OVERLAY_FILE"),
		RedisKey: v.GetString("OVERLAY_REDIS_KEY"),
	}

	cfg.Admin = AdminConfig{
		Username: v.GetString("ADMIN_USERNAME"),
		Password: v.GetString("ADMIN_PASSWORD"),
		Name:     v.GetString("ADMIN_NAME"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Reports = ReportsConfig{
		CSVDelimiter: parseDelimiter(v.GetString("CSV_DELIMITER")),
		CSVBOM:       v.GetBool("CSV_BOM"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "journey_records")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_PING_TIMEOUT", "5s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PING_TIMEOUT", "5s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "8h")
	v.SetDefault("JWT_ISSUER", "journey-records-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DATA_SOURCE_PATH", "./data/journey.xlsx")
	v.SetDefault("UPLOADS_DIR", "./data/uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", 10*1024*1024)

	v.SetDefault("OVERLAY_BACKEND", OverlayBackendFile)
	v.SetDefault("OVERLAY_FILE", "./data/overlay.json")
	v.SetDefault("OVERLAY_REDIS_KEY", "journey:overlay")

	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin2024")
	v.SetDefault("ADMIN_NAME", "Administrador del Sistema")

	v.SetDefault("ENABLE_METRICS", true)

	v.SetDefault("CSV_DELIMITER", ",")
	v.SetDefault("CSV_BOM", true)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func parseDelimiter(raw string) rune {
	raw = strings.TrimSpace(raw)
	if raw == `\t` {
		return '\t'
	}
	runes := []rune(raw)
	if len(runes) != 1 {
		return ','
	}
	return runes[0]
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
