package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	Kafka struct {
		Brokers     []string `koanf:"brokers"`
		TopicStatus string   `koanf:"topic_status"`
	} `koanf:"kafka"`

	Rabbit struct {
		URL string `koanf:"url"`
	} `koanf:"rabbitmq"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`

	Shipping struct {
		FlatCents int64 `koanf:"flat_cents"`
	} `koanf:"shipping"`

	Checkout struct {
		// DefaultProvider is used when the client does not name one.
		DefaultProvider string `koanf:"default_provider"`
		FrontendURL     string `koanf:"frontend_url"`
		BackendURL      string `koanf:"backend_url"`
		Currency        string `koanf:"currency"`
	} `koanf:"checkout"`

	Stripe struct {
		SecretKey     string `koanf:"secret_key"`
		WebhookSecret string `koanf:"webhook_secret"`
		APIBase       string `koanf:"api_base"`
	} `koanf:"stripe"`

	MercadoPago struct {
		AccessToken   string `koanf:"access_token"`
		WebhookSecret string `koanf:"webhook_secret"`
		APIBase       string `koanf:"api_base"`
	} `koanf:"mercadopago"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix SHOPAPI_, nested with __)
	// e.g. SHOPAPI_MYSQL__DSN, SHOPAPI_STRIPE__SECRET_KEY
	if err := k.Load(env.Provider("SHOPAPI_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "SHOPAPI_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.Checkout.FrontendURL == "" || c.Checkout.BackendURL == "" {
		return fmt.Errorf("checkout.frontend_url and checkout.backend_url required")
	}
	switch c.Checkout.DefaultProvider {
	case "stripe", "mercadopago":
	default:
		return fmt.Errorf("checkout.default_provider must be stripe or mercadopago")
	}
	return nil
}
