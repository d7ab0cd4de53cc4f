package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"weather_relay/internal/ai"
	"weather_relay/internal/classifier"

	"github.com/spf13/viper"
)

// Scheduler modes.
const (
	ModeAutoReport = "auto-report"
	ModeAlert      = "alert"
)

type Config struct {
	Port       string           `mapstructure:"port"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Line       LineConfig       `mapstructure:"line"`
	AI         AIConfig         `mapstructure:"ai"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Report     ReportConfig     `mapstructure:"report"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Webhook    WebhookConfig    `mapstructure:"webhook"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LineConfig struct {
	ChannelToken  string        `mapstructure:"channel_token"`
	ChannelSecret string        `mapstructure:"channel_secret"` // empty disables signature checks
	APIBase       string        `mapstructure:"api_base"`
	BroadcastTo   string        `mapstructure:"broadcast_to"` // group id; empty means every known user
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxParallel   int           `mapstructure:"max_parallel"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SchedulerConfig struct {
	Mode     string              `mapstructure:"mode"`
	Interval time.Duration       `mapstructure:"interval"`
	Tick     time.Duration       `mapstructure:"tick"`
	Baseline map[string][]string `mapstructure:"baseline"` // channel -> band keys considered normal
	WithAI   bool                `mapstructure:"with_ai"`
}

type ReportConfig struct {
	MaxAIRunes int `mapstructure:"max_ai_runes"`
}

// ClassifierConfig overrides built-in tables per channel.
type ClassifierConfig map[string]TableConfig

type TableConfig struct {
	Bands []classifier.Band `mapstructure:"bands"`
	Floor classifier.Band   `mapstructure:"floor"`
}

type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      byte   `mapstructure:"qos"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type AuthConfig struct {
	SigningKey  string        `mapstructure:"signing_key"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	AllowSignUp bool          `mapstructure:"allow_sign_up"`
}

type WebhookConfig struct {
	Greetings []string `mapstructure:"greetings"`
}

var (
	errInvalidMode     = errors.New("scheduler.mode must be auto-report or alert")
	errInvalidProvider = errors.New("ai.provider must be ollama, openai or none")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "app.db")

	v.SetDefault("line.channel_token", "")
	v.SetDefault("line.channel_secret", "")
	v.SetDefault("line.api_base", "https://api.line.me")
	v.SetDefault("line.broadcast_to", "")
	v.SetDefault("line.timeout", 5*time.Second)
	v.SetDefault("line.max_parallel", 4)

	v.SetDefault("ai.provider", ai.ProviderOllama)
	v.SetDefault("ai.base_url", "http://localhost:11434")
	v.SetDefault("ai.model", "deepseek-r1:14b-qwen-distill-q4_K_M")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.timeout", 8*time.Second)

	v.SetDefault("scheduler.mode", ModeAutoReport)
	v.SetDefault("scheduler.interval", 5*time.Minute)
	v.SetDefault("scheduler.tick", 10*time.Second)
	v.SetDefault("scheduler.with_ai", true)
	v.SetDefault("scheduler.baseline", map[string][]string{
		string(classifier.Temperature): {"comfortable", "warm"},
		string(classifier.Humidity):    {"comfortable", "damp"},
	})

	v.SetDefault("report.max_ai_runes", 1000)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "weather/readings")
	v.SetDefault("mqtt.client_id", "weather-relay")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 1)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "weather.readings")

	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.allow_sign_up", true)

	v.SetDefault("webhook.greetings", []string{"hello", "hi", "สวัสดี"})
}

// Load reads <dir>/config.yml when present and overlays environment
// variables (LINE_CHANNEL_TOKEN overrides line.channel_token, etc.).
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Scheduler.Mode {
	case ModeAutoReport, ModeAlert:
	default:
		return fmt.Errorf("%w, got %q", errInvalidMode, c.Scheduler.Mode)
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive, got %s", c.Scheduler.Interval)
	}
	if c.Scheduler.Tick <= 0 {
		return fmt.Errorf("scheduler.tick must be positive, got %s", c.Scheduler.Tick)
	}
	for ch := range c.Scheduler.Baseline {
		if !knownChannel(ch) {
			return fmt.Errorf("scheduler.baseline: unknown channel %q", ch)
		}
	}
	switch c.AI.Provider {
	case ai.ProviderOllama, ai.ProviderOpenAI, ai.ProviderNone:
	default:
		return fmt.Errorf("%w, got %q", errInvalidProvider, c.AI.Provider)
	}
	if c.Line.MaxParallel < 1 {
		return fmt.Errorf("line.max_parallel must be >= 1, got %d", c.Line.MaxParallel)
	}
	if _, err := c.ClassifierSet(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	return nil
}

// ClassifierSet returns the built-in tables with configured overrides applied.
func (c *Config) ClassifierSet() (*classifier.Set, error) {
	tables := make([]classifier.Table, 0, len(classifier.Channels))
	for _, ch := range classifier.Channels {
		override, ok := c.Classifier[string(ch)]
		if !ok || len(override.Bands) == 0 {
			def, _ := classifier.DefaultTable(ch)
			tables = append(tables, def)
			continue
		}
		t, err := classifier.NewTable(ch, override.Bands, override.Floor)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	for name := range c.Classifier {
		if !knownChannel(name) {
			return nil, fmt.Errorf("%w: %q", classifier.ErrUnknownChannel, name)
		}
	}
	return classifier.NewSet(tables...)
}

// BaselineKeys converts the configured baseline into classifier channels.
func (c *Config) BaselineKeys() map[classifier.Channel][]string {
	out := make(map[classifier.Channel][]string, len(c.Scheduler.Baseline))
	for ch, keys := range c.Scheduler.Baseline {
		out[classifier.Channel(ch)] = keys
	}
	return out
}

func knownChannel(name string) bool {
	for _, ch := range classifier.Channels {
		if string(ch) == name {
			return true
		}
	}
	return false
}
