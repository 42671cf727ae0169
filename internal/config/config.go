package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// MaxTickInterval keeps time_update granularity at whole seconds
const MaxTickInterval = time.Second

type Config struct {
	Port                    string
	BidIncrement            decimal.Decimal
	DefaultExtensionMinutes int
	TickInterval            time.Duration
	SchedulerWorkers        int
	RecentBidsLimit         int
	AllowedOrigins          []string
	RedisAddr               string
	RedisChannelPrefix      string
	LogLevel                string
	SeedDemoAuctions        bool
}

// Addr returns the HTTP listen address
func (c Config) Addr() string {
	return ":" + c.Port
}

// OriginAllowed reports whether a browser origin may call the API or open a socket
func (c Config) OriginAllowed(origin string) bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("BID_INCREMENT", "10.00")
	v.SetDefault("DEFAULT_EXTENSION_MINUTES", 1)
	v.SetDefault("TICK_INTERVAL", "1s")
	v.SetDefault("SCHEDULER_WORKERS", 8)
	v.SetDefault("RECENT_BIDS_LIMIT", 50)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_CHANNEL_PREFIX", "auction")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_DEMO_AUCTIONS", true)
}

// Load reads .env files (optional) and the environment
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	increment, err := decimal.NewFromString(v.GetString("BID_INCREMENT"))
	if err != nil {
		return Config{}, fmt.Errorf("config: BID_INCREMENT: %w", err)
	}

	tick, err := time.ParseDuration(v.GetString("TICK_INTERVAL"))
	if err != nil {
		return Config{}, fmt.Errorf("config: TICK_INTERVAL: %w", err)
	}

	cfg := Config{
		Port:                    v.GetString("PORT"),
		BidIncrement:            increment,
		DefaultExtensionMinutes: v.GetInt("DEFAULT_EXTENSION_MINUTES"),
		TickInterval:            tick,
		SchedulerWorkers:        v.GetInt("SCHEDULER_WORKERS"),
		RecentBidsLimit:         v.GetInt("RECENT_BIDS_LIMIT"),
		AllowedOrigins:          splitCSV(v.GetString("ALLOWED_ORIGINS")),
		RedisAddr:               v.GetString("REDIS_ADDR"),
		RedisChannelPrefix:      v.GetString("REDIS_CHANNEL_PREFIX"),
		LogLevel:                v.GetString("LOG_LEVEL"),
		SeedDemoAuctions:        v.GetBool("SEED_DEMO_AUCTIONS"),
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges
func (c Config) Validate() error {
	switch {
	case c.Port == "":
		return errors.New("config: PORT must not be empty")
	case !c.BidIncrement.IsPositive():
		return fmt.Errorf("config: BID_INCREMENT must be positive, got %s", c.BidIncrement)
	case c.DefaultExtensionMinutes < 0:
		return fmt.Errorf("config: DEFAULT_EXTENSION_MINUTES must not be negative, got %d", c.DefaultExtensionMinutes)
	case c.TickInterval <= 0 || c.TickInterval > MaxTickInterval:
		return fmt.Errorf("config: TICK_INTERVAL must be in (0, %s], got %s", MaxTickInterval, c.TickInterval)
	case c.SchedulerWorkers <= 0:
		return fmt.Errorf("config: SCHEDULER_WORKERS must be positive, got %d", c.SchedulerWorkers)
	case c.RecentBidsLimit <= 0:
		return fmt.Errorf("config: RECENT_BIDS_LIMIT must be positive, got %d", c.RecentBidsLimit)
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
