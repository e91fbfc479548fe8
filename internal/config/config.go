package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type SiteConfig struct {
	URL         string `yaml:"url"`          // public site base, e.g. https://liliadubita.md
	SuccessPath string `yaml:"success_path"` // redirect target after payment
}

type BotConfig struct {
	Token       string `yaml:"token"`
	Mode        string `yaml:"mode"` // polling | webhook
	Username    string `yaml:"username"`
	Workers     int    `yaml:"workers"`      // update workers
	WebhookPath string `yaml:"webhook_path"` // served by the API server in webhook mode
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type AdminConfig struct {
	Password   string        `yaml:"password"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	WebhookKey string        `yaml:"webhook_key"` // legacy set-webhook guard, unused when JWT is configured
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PaynetConfig struct {
	Env          string `yaml:"env"` // test | live
	APIHostTest  string `yaml:"api_host_test"`
	APIHostLive  string `yaml:"api_host_live"`
	PortalHost   string `yaml:"portal_host"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	MerchantCode string `yaml:"merchant_code"`
	SaleAreaCode string `yaml:"sale_area_code"`
	CallbackURL  string `yaml:"callback_url"`
	SecretTest   string `yaml:"notify_secret_test"`
	SecretLive   string `yaml:"notify_secret_live"`
}

// APIHost returns the env-specific gateway host.
func (p PaynetConfig) APIHost() string {
	if p.Env == "live" {
		return p.APIHostLive
	}
	return p.APIHostTest
}

// NotifySecret returns the env-specific callback signing secret.
func (p PaynetConfig) NotifySecret() string {
	if p.Env == "live" {
		return p.SecretLive
	}
	return p.SecretTest
}

type PaymentConfig struct {
	Mode   string       `yaml:"mode"` // paynet | mock
	Paynet PaynetConfig `yaml:"paynet"`
}

type ProductConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Amount      int64  `yaml:"amount"` // minor units are computed by the gateway
	Currency    string `yaml:"currency"`
}

type CheckoutConfig struct {
	OrderTTL time.Duration `yaml:"order_ttl"` // pending orders older than this are failed
}

type Config struct {
	Site     SiteConfig               `yaml:"site"`
	Bot      BotConfig                `yaml:"bot"`
	Log      LogConfig                `yaml:"log"`
	Server   ServerConfig             `yaml:"server"`
	Admin    AdminConfig              `yaml:"admin"`
	Database DatabaseConfig           `yaml:"database"`
	Redis    RedisConfig              `yaml:"redis"`
	Payment  PaymentConfig            `yaml:"payment"`
	Products map[string]ProductConfig `yaml:"products"`
	Checkout CheckoutConfig           `yaml:"checkout"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.WebhookPath == "" {
		cfg.Bot.WebhookPath = "/api/telegram/webhook"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Site.SuccessPath == "" {
		cfg.Site.SuccessPath = "/plata/success"
	}
	if cfg.Payment.Mode == "" {
		cfg.Payment.Mode = "mock"
	}
	if cfg.Payment.Paynet.Env == "" {
		cfg.Payment.Paynet.Env = "test"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Checkout.OrderTTL <= 0 {
		cfg.Checkout.OrderTTL = 24 * time.Hour
	}
	if cfg.Products == nil {
		cfg.Products = map[string]ProductConfig{}
	}
	if _, ok := cfg.Products["relatia360"]; !ok {
		cfg.Products["relatia360"] = ProductConfig{
			Name:        "RELAȚIA 360 – De la conflict la conectare",
			Description: "Curs practic de comunicare în relații",
			Amount:      990,
			Currency:    "MDL",
		}
	}

	// Minimal validation. An absent bot token is tolerated in developer mode,
	// where a logging stand-in replaces the real bot.
	if cfg.Bot.Token == "" && !dev {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Payment.Mode == "paynet" {
		pn := cfg.Payment.Paynet
		if pn.APIHost() == "" || pn.Username == "" || pn.Password == "" || pn.MerchantCode == "" {
			return nil, errors.New("payment.paynet credentials are incomplete")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
