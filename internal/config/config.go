package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Bot    BotConfig    `yaml:"bot"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
	Market MarketConfig `yaml:"market"`
}

type BotConfig struct {
	Token          string `yaml:"token"`
	PollTimeoutSec int    `yaml:"poll_timeout_sec"`
	SnapshotTTLSec int    `yaml:"snapshot_ttl_sec"`
	Timezone       string `yaml:"timezone"`
	BugReportURL   string `yaml:"bug_report_url"`
	HelpFooter     string `yaml:"help_footer"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type MarketConfig struct {
	CoinGecko CoinGeckoConfig `yaml:"coingecko"`
	Coinbase  CoinbaseConfig  `yaml:"coinbase"`
}

type CoinGeckoConfig struct {
	BaseURL            string `yaml:"base_url"`
	APIKey             string `yaml:"api_key"`
	TimeoutMs          int    `yaml:"timeout_ms"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

type CoinbaseConfig struct {
	BaseURL            string `yaml:"base_url"`
	UserAgent          string `yaml:"user_agent"`
	TimeoutMs          int    `yaml:"timeout_ms"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

func Default() Config {
	return Config{
		Bot: BotConfig{
			PollTimeoutSec: 10,
			SnapshotTTLSec: 180,
			Timezone:       "Local",
			BugReportURL:   "https://t.me/xiaogarpu",
			HelpFooter:     "✨ Powered by MbotixTECH 🚀",
		},
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Enabled: true, Port: 8080},
		Market: MarketConfig{
			CoinGecko: CoinGeckoConfig{
				BaseURL:            "https://api.coingecko.com/api/v3",
				TimeoutMs:          10000,
				InsecureSkipVerify: true,
			},
			Coinbase: CoinbaseConfig{
				BaseURL:            "https://api.coinbase.com/v2",
				TimeoutMs:          10000,
				InsecureSkipVerify: true,
			},
		},
	}
}

// LoadDotEnv loads environment variables from .env style files. Variables
// already set in the process environment win.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("BOT_TIMEZONE"); v != "" {
		cfg.Bot.Timezone = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.Market.CoinGecko.APIKey = v
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Bot.Token) == "" {
		errs = append(errs, errors.New("bot.token is required (or set BOT_TOKEN)"))
	}
	if c.Bot.PollTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("bot.poll_timeout_sec must be positive, got %d", c.Bot.PollTimeoutSec))
	}
	if c.Bot.SnapshotTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("bot.snapshot_ttl_sec must be positive, got %d", c.Bot.SnapshotTTLSec))
	}
	if _, err := c.Bot.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Market.CoinGecko.TimeoutMs <= 0 || c.Market.Coinbase.TimeoutMs <= 0 {
		errs = append(errs, errors.New("market timeouts must be positive"))
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location resolves the zone used for "Updated at" timestamps.
func (b BotConfig) Location() (*time.Location, error) {
	if b.Timezone == "" || b.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("bot.timezone: %w", err)
	}
	return loc, nil
}

func (b BotConfig) PollTimeout() time.Duration {
	return time.Duration(b.PollTimeoutSec) * time.Second
}

func (b BotConfig) SnapshotTTL() time.Duration {
	return time.Duration(b.SnapshotTTLSec) * time.Second
}

func (c CoinGeckoConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c CoinbaseConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
