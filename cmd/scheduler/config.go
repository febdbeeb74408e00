package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type GatewayConfig struct {
	BaseURL         string        `json:"base_url" validate:"required,url"`
	Token           string        `json:"token"`
	TimeoutStr      string        `json:"timeout"`
	Timeout         time.Duration `json:"-"`
	MaxRetry        int           `json:"max_retry" validate:"gte=1"`
	RetryBackoffStr string        `json:"retry_backoff"`
	RetryBackoff    time.Duration `json:"-" validate:"gt=0,lt=32s"`
}

type SchedulerConfig struct {
	StartIntervalStr  string        `json:"start_interval"`
	EndIntervalStr    string        `json:"end_interval"`
	RouteIntervalStr  string        `json:"route_interval"`
	ReportIntervalStr string        `json:"report_interval"`
	LockTTLStr        string        `json:"lock_ttl"`
	StartInterval     time.Duration `json:"-" validate:"gt=0"`
	EndInterval       time.Duration `json:"-" validate:"gt=0"`
	RouteInterval     time.Duration `json:"-" validate:"gt=0"`
	ReportInterval    time.Duration `json:"-" validate:"gt=0"`
	LockTTL           time.Duration `json:"-" validate:"gt=0"`
	Workers           int           `json:"workers" validate:"gte=1"`
}

type ReportConfig struct {
	Recipients   []string `json:"recipients" validate:"dive,email"`
	SMTPHost     string   `json:"smtp_host" validate:"required_with=Recipients"`
	SMTPPort     int      `json:"smtp_port" validate:"omitempty,gte=1,lte=65535"`
	SMTPUser     string   `json:"smtp_user"`
	SMTPPassword string   `json:"smtp_password"`
	From         string   `json:"from" validate:"required_with=Recipients,omitempty,email"`
}

type LogConfig struct {
	Level      string `json:"level" validate:"omitempty,oneof=debug info warn warning error"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

type Config struct {
	HttpPort      int             `json:"http_port" validate:"gte=1,lte=65535"`
	DbConnString  string          `json:"db_conn_string" validate:"required"`
	RedisAddr     string          `json:"redis_addr"`
	LocalTimezone string          `json:"local_timezone" validate:"required"`
	Gateway       GatewayConfig   `json:"gateway"`
	Scheduler     SchedulerConfig `json:"scheduler"`
	Report        ReportConfig    `json:"report"`
	Log           LogConfig       `json:"log"`
}

func defaultConfig() *Config {
	return &Config{
		HttpPort:      6060,
		LocalTimezone: "UTC",
		Gateway:       GatewayConfig{TimeoutStr: "5s", MaxRetry: 3, RetryBackoffStr: "1s"},
		Scheduler: SchedulerConfig{
			StartIntervalStr:  "60s",
			EndIntervalStr:    "60s",
			RouteIntervalStr:  "60s",
			ReportIntervalStr: "24h",
			LockTTLStr:        "5m",
			Workers:           16,
		},
		Report: ReportConfig{SMTPPort: 587},
	}
}

// ReadConfigJson reads json formatted configuration from the given file. Values
// from the environment (optionally loaded from envFile) override secrets.
func ReadConfigJson(configFile, envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()

	if err = json.Unmarshal(content, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err = cfg.parseDurations(); err != nil {
		return nil, err
	}

	if err = validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"DB_CONN_STRING": &cfg.DbConnString,
		"REDIS_ADDR":     &cfg.RedisAddr,
		"GATEWAY_TOKEN":  &cfg.Gateway.Token,
		"SMTP_PASSWORD":  &cfg.Report.SMTPPassword,
	}
	for key, dst := range overrides {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
}

func (cfg *Config) parseDurations() error {
	durations := []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{"gateway.timeout", cfg.Gateway.TimeoutStr, &cfg.Gateway.Timeout},
		{"gateway.retry_backoff", cfg.Gateway.RetryBackoffStr, &cfg.Gateway.RetryBackoff},
		{"scheduler.start_interval", cfg.Scheduler.StartIntervalStr, &cfg.Scheduler.StartInterval},
		{"scheduler.end_interval", cfg.Scheduler.EndIntervalStr, &cfg.Scheduler.EndInterval},
		{"scheduler.route_interval", cfg.Scheduler.RouteIntervalStr, &cfg.Scheduler.RouteInterval},
		{"scheduler.report_interval", cfg.Scheduler.ReportIntervalStr, &cfg.Scheduler.ReportInterval},
		{"scheduler.lock_ttl", cfg.Scheduler.LockTTLStr, &cfg.Scheduler.LockTTL},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}
