package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	OTP      OTPConfig
	WhatsApp WhatsAppConfig
	Sheets   SheetsConfig
	Storage  StorageConfig
	Import   ImportConfig
}

type AppConfig struct {
	Port       string
	Env        string
	CORSOrigin string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN is the key/value connection string used by gorm.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

// URL is the postgres:// form used by the migrator.
func (c DBConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type OTPConfig struct {
	TTL            time.Duration
	ResendInterval time.Duration
	MaxAttempts    int
	// Global ceiling on outbound OTP messages per second.
	SendRate float64
}

type WhatsAppConfig struct {
	URL      string
	APIKey   string
	DeviceID string
	Timeout  time.Duration
}

type SheetsConfig struct {
	WebhookURL   string
	Secret       string
	QueueKey     string
	PollInterval time.Duration
	// Submissions per second towards the webhook.
	Rate float64
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	PublicURL string
}

type ImportConfig struct {
	ChunkSize   int
	MaxUploadMB int64
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Environment-only deployments have no .env file.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Port:       viper.GetString("APP_PORT"),
			Env:        viper.GetString("APP_ENV"),
			CORSOrigin: viper.GetString("CORS_ORIGIN"),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  durationOr("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: durationOr("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		OTP: OTPConfig{
			TTL:            durationOr("OTP_TTL", 5*time.Minute),
			ResendInterval: durationOr("OTP_RESEND_INTERVAL", time.Minute),
			MaxAttempts:    viper.GetInt("OTP_MAX_ATTEMPTS"),
			SendRate:       viper.GetFloat64("OTP_SEND_RATE"),
		},
		WhatsApp: WhatsAppConfig{
			URL:      viper.GetString("WHATSAPP_URL"),
			APIKey:   viper.GetString("WHATSAPP_API_KEY"),
			DeviceID: viper.GetString("WHATSAPP_DEVICE_ID"),
			Timeout:  durationOr("WHATSAPP_TIMEOUT", 10*time.Second),
		},
		Sheets: SheetsConfig{
			WebhookURL:   viper.GetString("SHEETS_WEBHOOK_URL"),
			Secret:       viper.GetString("SHEETS_SECRET"),
			QueueKey:     viper.GetString("SHEETS_QUEUE_KEY"),
			PollInterval: durationOr("SHEETS_POLL_INTERVAL", 2*time.Minute),
			Rate:         viper.GetFloat64("SHEETS_RATE"),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: viper.GetString("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
			PublicURL: viper.GetString("MINIO_PUBLIC_URL"),
		},
		Import: ImportConfig{
			ChunkSize:   viper.GetInt("IMPORT_CHUNK_SIZE"),
			MaxUploadMB: viper.GetInt64("IMPORT_MAX_UPLOAD_MB"),
		},
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("OTP_MAX_ATTEMPTS", 5)
	viper.SetDefault("OTP_SEND_RATE", 5)
	viper.SetDefault("SHEETS_QUEUE_KEY", "sheet:jobs")
	viper.SetDefault("SHEETS_RATE", 1)
	viper.SetDefault("MINIO_BUCKET", "crm-documents")
	viper.SetDefault("IMPORT_CHUNK_SIZE", 5000)
	viper.SetDefault("IMPORT_MAX_UPLOAD_MB", 10)
}

func durationOr(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
