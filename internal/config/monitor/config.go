package monitor_config

import (
	"time"

	"github.com/probeworks/vigil/internal/obs"
	pginfra "github.com/probeworks/vigil/internal/repository/postgres"
	"github.com/probeworks/vigil/internal/services/alerts"
)

type MonitorCfg struct {
	Interval      time.Duration `mapstructure:"interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	AlertCooldown time.Duration `mapstructure:"alert_cooldown"`
	RetentionDays int           `mapstructure:"retention_days"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`
	APIAddr       string        `mapstructure:"api_addr"`
}

func (c MonitorCfg) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

type EndpointCfg struct {
	Service  string `mapstructure:"service"`
	Path     string `mapstructure:"path"`
	Method   string `mapstructure:"method"`
	Category string `mapstructure:"category"`
	Expected []int  `mapstructure:"expected"`
}

type ProbesCfg struct {
	BaseURL         string        `mapstructure:"base_url"`
	LoginPath       string        `mapstructure:"login_path"`
	SubmitPath      string        `mapstructure:"submit_path"`
	SearchPath      string        `mapstructure:"search_path"`
	AdminPath       string        `mapstructure:"admin_path"`
	Timeout         time.Duration `mapstructure:"timeout"`
	WarnLatency     time.Duration `mapstructure:"warn_latency"`
	UserAgent       string        `mapstructure:"user_agent"`
	FollowRedirects bool          `mapstructure:"follow_redirects"`
	VerifyTLS       bool          `mapstructure:"verify_tls"`
	Endpoints       []EndpointCfg `mapstructure:"endpoints"`
}

type KafkaCfg struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LogCfg struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (c LogCfg) AsLoggerConfig(app, env, ver string) obs.LogConfig {
	return obs.LogConfig{Level: c.Level, Pretty: c.Pretty, App: app, Env: env, Ver: ver}
}

type OTELCfg struct {
	Enable      bool    `mapstructure:"enable"`
	Endpoint    string  `mapstructure:"otlp_endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

func (c OTELCfg) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      c.Enable,
		Endpoint:    c.Endpoint,
		ServiceName: c.ServiceName,
		SampleRatio: c.SampleRatio,
	}
}

type Config struct {
	DB      pginfra.Config        `mapstructure:"db"`
	Monitor MonitorCfg            `mapstructure:"monitor"`
	Probes  ProbesCfg             `mapstructure:"probes"`
	Alerts  alerts.ChannelsConfig `mapstructure:"alerts"`
	Kafka   KafkaCfg              `mapstructure:"kafka"`
	OTEL    OTELCfg               `mapstructure:"otel"`
	Log     LogCfg                `mapstructure:"log"`
	Env     string                `mapstructure:"env"`
}
