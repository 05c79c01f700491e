package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port           int           `yaml:"port"`
	Mode           string        `yaml:"mode"` // debug | release
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	PublicBaseURL  string        `yaml:"public_base_url"`
}

type DatabaseConfig struct {
	DSN          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

type EmailConfig struct {
	Provider     string        `yaml:"provider"` // smtp | resend
	SMTPHost     string        `yaml:"smtp_host"`
	SMTPPort     int           `yaml:"smtp_port"`
	SMTPUser     string        `yaml:"smtp_user"`
	SMTPPassword string        `yaml:"smtp_password"`
	FromEmail    string        `yaml:"from_email"`
	ResendAPIKey string        `yaml:"resend_api_key"`
	ResendURL    string        `yaml:"resend_url"`
	SendTimeout  time.Duration `yaml:"send_timeout"`
}

type VerificationConfig struct {
	CodeTTL        time.Duration `yaml:"code_ttl"`
	ResendCooldown time.Duration `yaml:"resend_cooldown"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

type StorageConfig struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	Bucket       string `yaml:"bucket"`
	UseSSL       bool   `yaml:"use_ssl"`
	MaxPhotoSize int64  `yaml:"max_photo_size"`
}

type DokuConfig struct {
	ClientID     string `yaml:"client_id"`
	SecretKey    string `yaml:"secret_key"`
	IsProduction bool   `yaml:"is_production"`
}

type GeneratorConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type PaginationConfig struct {
	DefaultPerPage int `yaml:"default_per_page"`
	MaxPerPage     int `yaml:"max_per_page"`
}

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	JWT          JWTConfig          `yaml:"jwt"`
	Email        EmailConfig        `yaml:"email"`
	Verification VerificationConfig `yaml:"verification"`
	Redis        RedisConfig        `yaml:"redis"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Storage      StorageConfig      `yaml:"storage"`
	Doku         DokuConfig         `yaml:"doku"`
	Generator    GeneratorConfig    `yaml:"generator"`
	Pagination   PaginationConfig   `yaml:"pagination"`
	Files        struct {
		FontPath string `yaml:"font_path"`
	} `yaml:"files"`
}

// LoadConfig читает .env (если есть), YAML-файл и переменные окружения.
// Путь к YAML берётся из CONFIG_PATH, по умолчанию config/config.yaml.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad keeps the old panic-on-error behaviour for main.
func MustLoad() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

// secrets never live in the YAML committed to the repo
func (c *Config) applyEnv() {
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.Email.Provider, "EMAIL_PROVIDER")
	setString(&c.Email.SMTPHost, "SMTP_HOST")
	setInt(&c.Email.SMTPPort, "SMTP_PORT")
	setString(&c.Email.SMTPUser, "SMTP_USER")
	setString(&c.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&c.Email.FromEmail, "EMAIL_FROM")
	setString(&c.Email.ResendAPIKey, "RESEND_API_KEY")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Storage.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Storage.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Doku.ClientID, "DOKU_CLIENT_ID")
	setString(&c.Doku.SecretKey, "DOKU_SECRET_KEY")
	setBool(&c.Doku.IsProduction, "DOKU_IS_PRODUCTION")
	setString(&c.Generator.APIKey, "GENERATOR_API_KEY")
	setInt(&c.Server.Port, "PORT")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.JWT.AccessTTL <= 0 {
		c.JWT.AccessTTL = 24 * time.Hour
	}
	if c.JWT.RefreshTTL <= 0 {
		c.JWT.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.Email.Provider == "" {
		c.Email.Provider = "smtp"
	}
	if c.Email.ResendURL == "" {
		c.Email.ResendURL = "https://api.resend.com/emails"
	}
	if c.Email.SendTimeout <= 0 {
		c.Email.SendTimeout = 10 * time.Second
	}
	if c.Verification.CodeTTL <= 0 {
		c.Verification.CodeTTL = 15 * time.Minute
	}
	if c.Verification.ResendCooldown <= 0 {
		c.Verification.ResendCooldown = time.Minute
	}
	if c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = 5
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = 10 * time.Minute
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "profile-photos"
	}
	if c.Storage.MaxPhotoSize <= 0 {
		c.Storage.MaxPhotoSize = 5 * 1024 * 1024
	}
	if c.Generator.Timeout <= 0 {
		c.Generator.Timeout = 15 * time.Second
	}
	if c.Pagination.DefaultPerPage <= 0 {
		c.Pagination.DefaultPerPage = 20
	}
	if c.Pagination.MaxPerPage <= 0 {
		c.Pagination.MaxPerPage = 100
	}
	if c.Files.FontPath == "" {
		c.Files.FontPath = "assets/fonts/DejaVuSans.ttf"
	}
}

func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Database.DSN) == "" {
		missing = append(missing, "database.url (DATABASE_URL)")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		missing = append(missing, "jwt.secret (JWT_SECRET)")
	}
	switch c.Email.Provider {
	case "smtp":
		if c.Email.SMTPHost == "" {
			missing = append(missing, "email.smtp_host (SMTP_HOST)")
		}
	case "resend":
		if c.Email.ResendAPIKey == "" {
			missing = append(missing, "email.resend_api_key (RESEND_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) IsRelease() bool { return c.Server.Mode == "release" }

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
