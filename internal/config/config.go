// Package config loads service settings from configs/config.yml, a .env file
// and THERMAL_PRINTER_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. THERMAL_PRINTER_DB_PATH.
const EnvPrefix = "THERMAL_PRINTER"

type Config struct {
	Port      string            `mapstructure:"port"`
	DB        DBConfig          `mapstructure:"db"`
	Log       LogConfig         `mapstructure:"log"`
	Printer   PrinterConfig     `mapstructure:"printer"`
	Poll      PollConfig        `mapstructure:"poll"`
	Auth      AuthConfig        `mapstructure:"auth"`
	MQTT      MQTTConfig        `mapstructure:"mqtt"`
	Emulator  EmulatorConfig    `mapstructure:"emulator"`
	Templates map[string]string `mapstructure:"templates"`
	Printers  []PrinterEndpoint `mapstructure:"printers"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PrinterConfig struct {
	DefaultPort int           `mapstructure:"default_port"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	QoS         int    `mapstructure:"qos"`
}

type EmulatorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// PrinterEndpoint is a printer to configure at startup if it is not known yet.
type PrinterEndpoint struct {
	IPAddress string `mapstructure:"ip_address"`
	Port      int    `mapstructure:"port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "thermal_printer.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("printer.default_port", 9100)
	v.SetDefault("printer.timeout", 5*time.Second)
	v.SetDefault("poll.interval", 5*time.Minute)
	v.SetDefault("poll.concurrency", 8)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "thermal-printer")
	v.SetDefault("mqtt.topic_prefix", "thermal_printer")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("emulator.enabled", false)
	v.SetDefault("emulator.address", "127.0.0.1:9100")
}

// LoadDotEnv loads path (".env" when empty) into the process environment.
// A missing file is not an error; existing variables are not overwritten.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the config file at path, or configs/config.yml when path is
// empty (a missing default file is fine), and applies env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
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
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is empty"))
	}
	if c.Printer.DefaultPort < 1 || c.Printer.DefaultPort > 65535 {
		errs = append(errs, fmt.Errorf("printer.default_port %d out of range", c.Printer.DefaultPort))
	}
	if c.Printer.Timeout <= 0 {
		errs = append(errs, errors.New("printer.timeout must be positive"))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("poll.interval must be positive"))
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos %d out of range 0..2", c.MQTT.QoS))
	}
	for i, p := range c.Printers {
		if strings.TrimSpace(p.IPAddress) == "" {
			errs = append(errs, fmt.Errorf("printers[%d].ip_address is empty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
