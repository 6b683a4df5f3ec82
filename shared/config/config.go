package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel          = "models/gemini-2.0-flash"
	DefaultOutputPath     = "data.json"
	DefaultRequestTimeout = 5 * time.Minute
	DefaultHealthPort     = 8080
	defaultConfigFile     = "config.yaml"
)

type Config struct {
	AI         AIConfig         `yaml:"ai"`
	Output     OutputConfig     `yaml:"output"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
}

type AIConfig struct {
	GeminiAPIKey   string        `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model          string        `yaml:"model" env:"VIDEO_ANALYST_MODEL"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"VIDEO_ANALYST_TIMEOUT"`

	// timeoutSet separates an explicit 0 (no timeout) from an absent key.
	timeoutSet bool
}

func (a *AIConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain AIConfig
	if err := value.Decode((*plain)(a)); err != nil {
		return err
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "request_timeout" {
			a.timeoutSet = true
		}
	}
	return nil
}

type OutputConfig struct {
	Path string `yaml:"path" env:"VIDEO_ANALYST_OUTPUT"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Load reads .env, then the YAML file named by CONFIG_FILE (config.yaml by
// default), then fills anything still empty from the environment.
// The default config file is optional; an explicitly named one is not.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFile
	}

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// env-only setup
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.AI.Model == "" {
		c.AI.Model = os.Getenv("VIDEO_ANALYST_MODEL")
	}
	if !c.AI.timeoutSet {
		if raw := os.Getenv("VIDEO_ANALYST_TIMEOUT"); raw != "" {
			timeout, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid VIDEO_ANALYST_TIMEOUT %q: %w", raw, err)
			}
			c.AI.RequestTimeout = timeout
			c.AI.timeoutSet = true
		}
	}
	if c.Output.Path == "" {
		c.Output.Path = os.Getenv("VIDEO_ANALYST_OUTPUT")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = DefaultModel
	}
	if !c.AI.timeoutSet {
		c.AI.RequestTimeout = DefaultRequestTimeout
	}
	if c.Output.Path == "" {
		c.Output.Path = DefaultOutputPath
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = DefaultHealthPort
	}
}

// The API key is deliberately not checked here: a missing key is reported by
// the AI client as a credential error when the model handle is created.
func (c *Config) validate() error {
	if c.AI.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative (ai.request_timeout)")
	}
	if c.Monitoring.HealthPort < 0 || c.Monitoring.HealthPort > 65535 {
		return fmt.Errorf("health port %d out of range (monitoring.health_port)", c.Monitoring.HealthPort)
	}
	if c.Schedule != "" {
		if _, err := ParseSchedule(c.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
	}
	return nil
}

// ParseSchedule parses a six-field cron expression (seconds first) or a
// descriptor such as "@hourly".
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(spec)
}
