package config

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DBConfig struct {
	Username string
	Password string
	Host     string
	Port     string
	DBName   string
	SSLMode  string
}

func (c DBConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

type ServerConfig struct {
	Port           string
	Handler        http.Handler
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type EmailConfig struct {
	APIURL     string
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
}

type AuthConfig struct {
	AccessSecret   []byte
	AccessTokenTTL time.Duration
	SessionSecret  []byte
	// Federated sign-in is disabled when Issuer is empty.
	Issuer   string
	Audience string
	JWKSURL  string
	Provider string
}

type NewsletterConfig struct {
	Concurrency int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// AppConfig is everything the service layer and router need, resolved once at startup.
type AppConfig struct {
	PublicOrigin    string
	ClientOrigin    string
	FeedRetryDelay  time.Duration
	Auth            AuthConfig
	Email           EmailConfig
	Newsletter      NewsletterConfig
	RateLimit       RateLimitConfig
	RabbitMQConnStr string
	RedisAddr       string
	RedisPassword   string
	DB              DBConfig
}

func LoadEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}

func InitConfig(path string) error {
	setDefaults()
	viper.AddConfigPath(path)
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")
	return viper.ReadInConfig()
}

func setDefaults() {
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.public-origin", "http://localhost:5173")
	viper.SetDefault("client.origin", "http://localhost:5173")
	viper.SetDefault("feed.reconnect-delay", 5*time.Second)
	viper.SetDefault("auth.access-token-ttl", 24*time.Hour)
	viper.SetDefault("auth.federated.provider", "google")
	viper.SetDefault("email.api", "https://api.emailjs.com")
	viper.SetDefault("newsletter.concurrency", 10)
	viper.SetDefault("ratelimit.rps", 1.0)
	viper.SetDefault("ratelimit.burst", 10)
}

// Load assembles AppConfig from viper keys and environment secrets.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		PublicOrigin:   viper.GetString("app.public-origin"),
		ClientOrigin:   viper.GetString("client.origin"),
		FeedRetryDelay: viper.GetDuration("feed.reconnect-delay"),
		Auth: AuthConfig{
			AccessSecret:   []byte(os.Getenv("ACCESS_SECRET")),
			AccessTokenTTL: viper.GetDuration("auth.access-token-ttl"),
			SessionSecret:  []byte(os.Getenv("SESSION_SECRET")),
			Issuer:         viper.GetString("auth.federated.issuer"),
			Audience:       viper.GetString("auth.federated.audience"),
			JWKSURL:        viper.GetString("auth.federated.jwks-url"),
			Provider:       viper.GetString("auth.federated.provider"),
		},
		Email: EmailConfig{
			APIURL:     viper.GetString("email.api"),
			ServiceID:  os.Getenv("EMAILJS_SERVICE_ID"),
			TemplateID: os.Getenv("EMAILJS_TEMPLATE_ID"),
			PublicKey:  os.Getenv("EMAILJS_PUBLIC_KEY"),
			PrivateKey: os.Getenv("EMAILJS_PRIVATE_KEY"),
		},
		Newsletter: NewsletterConfig{
			Concurrency: viper.GetInt("newsletter.concurrency"),
		},
		RateLimit: RateLimitConfig{
			RPS:   viper.GetFloat64("ratelimit.rps"),
			Burst: viper.GetInt("ratelimit.burst"),
		},
		RabbitMQConnStr: os.Getenv("RABBITMQ_CONN_STRING"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		DB: DBConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     os.Getenv("POSTGRES_PORT"),
			DBName:   os.Getenv("POSTGRES_DATABASE"),
			SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) validate() error {
	if len(c.Auth.AccessSecret) == 0 {
		return fmt.Errorf("ACCESS_SECRET is required")
	}
	if len(c.Auth.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.Newsletter.Concurrency < 1 {
		return fmt.Errorf("newsletter.concurrency must be at least 1")
	}
	if c.Auth.Issuer != "" && c.Auth.JWKSURL == "" {
		return fmt.Errorf("auth.federated.jwks-url is required when an issuer is set")
	}
	return nil
}
