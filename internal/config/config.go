package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockPicker/internal/model"
	"StockPicker/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	ETFs          []string `yaml:"etfs"`
	HoldingsLimit int      `yaml:"holdings_limit"`
	Workers       int      `yaml:"workers"`

	MarketData struct {
		Provider          string  `yaml:"provider"`
		BaseURL           string  `yaml:"base_url"`
		APIKey            string  `yaml:"api_key"`
		StartDate         string  `yaml:"start_date"`
		Interval          string  `yaml:"interval"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Fundamentals      string  `yaml:"fundamentals"` // auto, always, never
	} `yaml:"market_data"`
	Holdings struct {
		Provider    string `yaml:"provider"`
		URLTemplate string `yaml:"url_template"`
	} `yaml:"holdings"`
	Screening struct {
		Rule   string           `yaml:"rule"`
		Custom []strategy.Group `yaml:"custom"`
	} `yaml:"screening"`
	Opinion struct {
		Provider string `yaml:"provider"`
		APIKey   string `yaml:"api_key"`
		Model    string `yaml:"model"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"opinion"`
	Notify struct {
		Subject string `yaml:"subject"`

		Telegram struct {
			Enabled  bool   `yaml:"enabled"`
			BotToken string `yaml:"bot_token"`
			ChatID   string `yaml:"chat_id"`
			Commands bool   `yaml:"commands"`
		} `yaml:"telegram"`
		Email struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			From     string `yaml:"from"`
			To       string `yaml:"to"`
			TLS      string `yaml:"tls"` // starttls, opportunistic, ssl or none
		} `yaml:"email"`
		WhatsApp struct {
			Enabled       bool   `yaml:"enabled"`
			Token         string `yaml:"token"`
			PhoneNumberID string `yaml:"phone_number_id"`
			To            string `yaml:"to"`
			APIVersion    string `yaml:"api_version"`
		} `yaml:"whatsapp"`
		AMQP struct {
			Enabled bool   `yaml:"enabled"`
			URL     string `yaml:"url"`
			Queue   string `yaml:"queue"`
		} `yaml:"amqp"`
	} `yaml:"notify"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env (if present), then the YAML file, then applies environment
// variable overrides and defaults. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ETFS"); v != "" {
		c.ETFs = splitList(v)
	}
	setString(&c.Opinion.APIKey, "OPINION_API_KEY")
	switch strings.ToLower(c.Opinion.Provider) {
	case "huggingface":
		setString(&c.Opinion.APIKey, "HF_API_KEY")
	case "openai":
		setString(&c.Opinion.APIKey, "OPENAI_API_KEY")
	}
	setString(&c.Notify.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Notify.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Notify.WhatsApp.Token, "WHATSAPP_TOKEN")
	setString(&c.Notify.WhatsApp.PhoneNumberID, "WHATSAPP_PHONE_NUMBER_ID")
	setString(&c.Notify.WhatsApp.To, "MY_WHATSAPP_NUMBER")
	setString(&c.Notify.WhatsApp.APIVersion, "GRAPH_API_VERSION")
	setString(&c.Notify.Email.Host, "SMTP_HOST")
	setString(&c.Notify.Email.Username, "SMTP_USERNAME")
	setString(&c.Notify.Email.Password, "SMTP_PASSWORD")
	setString(&c.Notify.Email.From, "EMAIL_FROM")
	setString(&c.Notify.Email.To, "EMAIL_TO")
	setString(&c.Notify.Email.TLS, "SMTP_TLS")
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Notify.Email.Port = port
		}
	}
	setString(&c.Notify.AMQP.URL, "AMQP_URL")
	setString(&c.MarketData.BaseURL, "RELAY_BASE_URL")
	setString(&c.MarketData.APIKey, "RELAY_API_KEY")
	setString(&c.Schedule.Cron, "CRON_SCHEDULE")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Proxy, "HTTPS_PROXY")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Server.Addr, "SERVER_ADDR")
}

func (c *Config) applyDefaults() {
	if len(c.ETFs) == 0 {
		c.ETFs = []string{"VII", "SCHD", "DGRO"}
	}
	if c.HoldingsLimit == 0 {
		c.HoldingsLimit = 10
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.MarketData.Provider == "" {
		c.MarketData.Provider = "yahoo"
	}
	if c.MarketData.StartDate == "" {
		c.MarketData.StartDate = "2015-01-01"
	}
	if c.MarketData.Interval == "" {
		c.MarketData.Interval = string(model.IntervalMonthly)
	}
	if c.MarketData.RequestsPerSecond == 0 {
		c.MarketData.RequestsPerSecond = 2
	}
	if c.MarketData.Fundamentals == "" {
		c.MarketData.Fundamentals = "auto"
	}
	if c.Holdings.Provider == "" {
		c.Holdings.Provider = "yahoo"
	}
	if c.Screening.Rule == "" {
		c.Screening.Rule = "lenient"
	}
	if c.Opinion.Provider == "" {
		c.Opinion.Provider = "none"
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = "Stock Picker"
	}
	if c.Notify.Email.Port == 0 {
		c.Notify.Email.Port = 587
	}
	if c.Notify.Email.TLS == "" {
		c.Notify.Email.TLS = "starttls"
	}
	if c.Notify.WhatsApp.APIVersion == "" {
		c.Notify.WhatsApp.APIVersion = "v21.0"
	}
	if c.Notify.AMQP.Queue == "" {
		c.Notify.AMQP.Queue = "stock_reports"
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 0 8 * * 1"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate checks that all required fields are set. Every error wraps
// model.ErrFatalConfiguration.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrFatalConfiguration, err)
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.ETFs) == 0 {
		return fmt.Errorf("etfs must not be empty")
	}
	if c.HoldingsLimit <= 0 {
		return fmt.Errorf("holdings_limit must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}

	switch c.MarketData.Provider {
	case "yahoo", "mock":
	case "relay":
		if c.MarketData.BaseURL == "" {
			return fmt.Errorf("market_data.base_url is required for the relay provider")
		}
	default:
		return fmt.Errorf("unknown market_data.provider %q", c.MarketData.Provider)
	}
	if !model.Interval(c.MarketData.Interval).Valid() {
		return fmt.Errorf("unknown market_data.interval %q", c.MarketData.Interval)
	}
	if _, err := c.StartDate(); err != nil {
		return fmt.Errorf("market_data.start_date: %v", err)
	}
	switch c.MarketData.Fundamentals {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("market_data.fundamentals must be auto, always or never")
	}

	switch c.Holdings.Provider {
	case "yahoo", "mock":
	case "relay":
		if c.MarketData.BaseURL == "" {
			return fmt.Errorf("market_data.base_url is required for relay holdings")
		}
	case "html":
		if !strings.Contains(c.Holdings.URLTemplate, "%s") {
			return fmt.Errorf("holdings.url_template must contain %%s")
		}
	default:
		return fmt.Errorf("unknown holdings.provider %q", c.Holdings.Provider)
	}

	rs, err := c.RuleSet()
	if err != nil {
		return err
	}
	if err := rs.Validate(); err != nil {
		return err
	}

	switch c.Opinion.Provider {
	case "none":
	case "huggingface", "openai":
		if c.Opinion.APIKey == "" {
			return fmt.Errorf("opinion.api_key is required for provider %s", c.Opinion.Provider)
		}
	default:
		return fmt.Errorf("unknown opinion.provider %q", c.Opinion.Provider)
	}

	tg := c.Notify.Telegram
	if tg.Enabled && (tg.BotToken == "" || tg.ChatID == "") {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id")
	}
	em := c.Notify.Email
	if em.Enabled && (em.Host == "" || em.From == "" || em.To == "") {
		return fmt.Errorf("notify.email requires host, from and to")
	}
	switch em.TLS {
	case "starttls", "opportunistic", "ssl", "none":
	default:
		return fmt.Errorf("notify.email.tls must be starttls, opportunistic, ssl or none, got %q", em.TLS)
	}
	wa := c.Notify.WhatsApp
	if wa.Enabled && (wa.Token == "" || wa.PhoneNumberID == "" || wa.To == "") {
		return fmt.Errorf("notify.whatsapp requires token, phone_number_id and to")
	}
	if c.Notify.AMQP.Enabled && c.Notify.AMQP.URL == "" {
		return fmt.Errorf("notify.amqp requires url")
	}
	if c.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron is required")
	}
	return nil
}

// RuleSet resolves the configured screening rule.
func (c *Config) RuleSet() (strategy.RuleSet, error) {
	if strings.EqualFold(c.Screening.Rule, "custom") {
		if len(c.Screening.Custom) == 0 {
			return strategy.RuleSet{}, fmt.Errorf("screening.custom must define at least one group")
		}
		return strategy.RuleSet{Name: "custom", Groups: c.Screening.Custom}, nil
	}
	return strategy.Named(c.Screening.Rule)
}

// StartDate parses market_data.start_date.
func (c *Config) StartDate() (time.Time, error) {
	return time.Parse("2006-01-02", c.MarketData.StartDate)
}

// Interval returns the configured sampling interval.
func (c *Config) Interval() model.Interval {
	return model.Interval(c.MarketData.Interval)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
