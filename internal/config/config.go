// Package config handles configuration loading and validation for the
// miner.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/krist-network/krist-miner/internal/krist"
)

// Config holds all miner configuration.
type Config struct {
	Address   string          `mapstructure:"address"`
	Node      NodeConfig      `mapstructure:"node"`
	CPU       CPUConfig       `mapstructure:"cpu"`
	GPU       GPUConfig       `mapstructure:"gpu"`
	API       APIConfig       `mapstructure:"api"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Log       LogConfig       `mapstructure:"log"`
}

// NodeConfig defines the Krist node connection.
type NodeConfig struct {
	URL string `mapstructure:"url"`
}

// CPUConfig defines the CPU worker set.
type CPUConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Threads int    `mapstructure:"threads"`
	Kernel  string `mapstructure:"kernel"`
}

// GPUConfig defines the GPU worker set.
type GPUConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Devices     []int         `mapstructure:"devices"`
	TargetRate  time.Duration `mapstructure:"target_rate"`
	MaxWorkSize uint32        `mapstructure:"max_worksize"`
}

// APIConfig defines the stats API server.
type APIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bind    string `mapstructure:"bind"`
}

// ProfilingConfig defines the pprof server.
type ProfilingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bind    string `mapstructure:"bind"`
}

// NotifyConfig defines webhook notifications for mined blocks.
type NotifyConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/krist-miner")
	}

	v.SetEnvPrefix("KRIST_MINER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("address")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("node.url", "wss://krist.dev/ws/gateway")

	v.SetDefault("cpu.enabled", true)
	v.SetDefault("cpu.threads", 0) // 0 = auto
	v.SetDefault("cpu.kernel", "auto")

	v.SetDefault("gpu.enabled", true)
	v.SetDefault("gpu.target_rate", "100ms")
	v.SetDefault("gpu.max_worksize", uint32(1<<30))

	v.SetDefault("api.enabled", true)
	v.SetDefault("api.bind", "127.0.0.1:8081")

	v.SetDefault("profiling.enabled", false)
	v.SetDefault("profiling.bind", "127.0.0.1:6061")

	v.SetDefault("notify.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	if _, err := krist.ParseAddress(c.Address); err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	if c.Node.URL == "" {
		return fmt.Errorf("node.url is required")
	}

	switch c.CPU.Kernel {
	case "", "auto", "portable", "sha":
	default:
		return fmt.Errorf("unknown cpu.kernel %q", c.CPU.Kernel)
	}

	if c.CPU.Threads < 0 {
		return fmt.Errorf("cpu.threads must be >= 0")
	}

	if c.GPU.TargetRate <= 0 {
		return fmt.Errorf("gpu.target_rate must be positive")
	}
	if c.GPU.MaxWorkSize == 0 {
		return fmt.Errorf("gpu.max_worksize must be > 0")
	}
	for _, d := range c.GPU.Devices {
		if d < 0 {
			return fmt.Errorf("gpu.devices entries must be >= 0")
		}
	}

	if c.Notify.Enabled && c.Notify.WebhookURL == "" {
		return fmt.Errorf("notify.webhook_url is required when notify is enabled")
	}

	return nil
}

// MiningAddress returns the validated address.
func (c *Config) MiningAddress() (krist.Address, error) {
	return krist.ParseAddress(c.Address)
}
