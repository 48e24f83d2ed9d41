package config

import (
	"fmt"
	"os"
	"time"

	"signal_bot/internal/models"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	defaultConfigFile = "config.yaml"
)

// Config: снимок конфигурации, читается один раз при старте.
type Config struct {
	System struct {
		UpdateInterval int    `yaml:"update_interval"` // секунды между циклами
		LogLevel       string `yaml:"log_level"`
		Development    bool   `yaml:"development"`
	} `yaml:"system"`

	Data struct {
		CandleLimit        int           `yaml:"candle_limit"`
		MaxParallelFetches int           `yaml:"max_parallel_fetches"` // 0: все ключи цикла сразу
		EquityWorkers      int           `yaml:"equity_workers"`
		RequestTimeout     time.Duration `yaml:"request_timeout"`
		BinanceWSURL       string        `yaml:"binance_ws_url"`
		YahooURL           string        `yaml:"yahoo_url"`
	} `yaml:"data"`

	Alerts struct {
		WebhookURL string        `yaml:"webhook_url"`
		Timeout    time.Duration `yaml:"timeout"`
		Stdout     bool          `yaml:"stdout"`
		Telegram   struct {
			Token    string `yaml:"token"`
			ChatID   int64  `yaml:"chat_id"`
			Endpoint string `yaml:"endpoint"` // self-hosted Bot API, формат tgbot.APIEndpoint
		} `yaml:"telegram"`
	} `yaml:"alerts"`

	// DSN журнала алертов; пусто: журнал выключен.
	DB string `yaml:"db_dsn"`

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"tracing"`

	Bots []models.BotConfig `yaml:"bots"`
}

func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.System.UpdateInterval) * time.Second
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	return Load(configFileName)
}

// Load читает YAML-файл, накладывает env и валидирует.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg, newEnv())
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return cfg, nil
}

// Parse декодирует документ и проставляет дефолты, env не трогает.
func Parse(b []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.System.UpdateInterval = 60
	cfg.System.LogLevel = "info"
	cfg.Data.CandleLimit = 100
	cfg.Data.EquityWorkers = 4
	cfg.Data.RequestTimeout = 10 * time.Second
	cfg.Data.BinanceWSURL = "wss://ws-api.binance.com:443/ws-api/v3"
	cfg.Data.YahooURL = "https://query1.finance.yahoo.com"
	cfg.Alerts.Timeout = 5 * time.Second
	cfg.Alerts.Stdout = true
	return cfg
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	_ = v.BindEnv("webhook_url", "WEBHOOK_URL", "DISCORD_WEBHOOK_URL")
	_ = v.BindEnv("telegram_token", "TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram_chat_id", "TELEGRAM_CHAT_ID")
	_ = v.BindEnv("db_dsn", "DATABASE_DSN")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("health_addr", "HEALTH_ADDR")
	_ = v.BindEnv("jaeger_host", "JAEGER_HOST")
	_ = v.BindEnv("jaeger_port", "JAEGER_PORT")
	_ = v.BindEnv("update_interval", "UPDATE_INTERVAL")
	return v
}

// applyEnv: env перекрывает значения из файла.
func applyEnv(cfg *Config, v *viper.Viper) {
	if s := v.GetString("webhook_url"); s != "" {
		cfg.Alerts.WebhookURL = s
	}
	if s := v.GetString("telegram_token"); s != "" {
		cfg.Alerts.Telegram.Token = s
	}
	if id := v.GetInt64("telegram_chat_id"); id != 0 {
		cfg.Alerts.Telegram.ChatID = id
	}
	if s := v.GetString("db_dsn"); s != "" {
		cfg.DB = s
	}
	if s := v.GetString("log_level"); s != "" {
		cfg.System.LogLevel = s
	}
	if s := v.GetString("health_addr"); s != "" {
		cfg.Health.Addr = s
	}
	if s := v.GetString("jaeger_host"); s != "" {
		cfg.Tracing.Host = s
	}
	if p := v.GetInt("jaeger_port"); p > 0 {
		cfg.Tracing.Port = p
	}
	if n := v.GetInt("update_interval"); n > 0 {
		cfg.System.UpdateInterval = n
	}
}

func (c *Config) Validate() error {
	if c.System.UpdateInterval <= 0 {
		return fmt.Errorf("system.update_interval must be > 0, got %d", c.System.UpdateInterval)
	}
	if c.Data.CandleLimit <= 0 {
		return fmt.Errorf("data.candle_limit must be > 0")
	}
	if len(c.Bots) == 0 {
		return fmt.Errorf("bots cannot be empty")
	}
	seen := make(map[string]struct{}, len(c.Bots))
	for i, b := range c.Bots {
		if b.ID == "" {
			return fmt.Errorf("bots[%d]: id is required", i)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("bots[%d]: duplicate id %q", i, b.ID)
		}
		seen[b.ID] = struct{}{}
		if b.Pair == "" || b.Timeframe == "" {
			return fmt.Errorf("bot %s: pair and timeframe are required", b.ID)
		}
		if b.Strategy == "" {
			return fmt.Errorf("bot %s: strategy is required", b.ID)
		}
	}
	return nil
}
