package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment variables overriding the config, e.g.
// SIMPLEHTTP_SERVER_ADDR or SIMPLEHTTP_NET_MAX_REQUEST_SIZE.
const EnvPrefix = "SIMPLEHTTP"

type (
	Server struct {
		// Addr is host:port to listen at. An empty host means all interfaces.
		Addr string `mapstructure:"addr" yaml:"addr" validate:"required,hostname_port"`
	}

	NET struct {
		// MaxRequestSize is the maximal size of a request, including its body. The
		// whole request must arrive in a single read, so it also defines the size
		// of the read buffer.
		MaxRequestSize int `mapstructure:"max_request_size" yaml:"max_request_size" validate:"gt=0,lte=1048576"`
		// ReuseAddr sets SO_REUSEADDR on the listening socket, so the server can be
		// restarted right away without waiting for TIME_WAIT to pass.
		ReuseAddr bool `mapstructure:"reuse_addr" yaml:"reuse_addr" test:"nullable"`
	}

	Logging struct {
		// Level is one of DEBUG, INFO, WARN, ERROR. Case-insensitive.
		Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
		// Format is either text or json.
		Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`
		// Output is stdout, stderr or a path to a file.
		Output string `mapstructure:"output" yaml:"output" validate:"required"`
	}

	Metrics struct {
		Enabled bool `mapstructure:"enabled" yaml:"enabled" test:"nullable"`
		// Addr is where /metrics is served. Must differ from Server.Addr.
		Addr string `mapstructure:"addr" yaml:"addr" validate:"required,hostname_port"`
	}

	Handler struct {
		// Type selects the handler: static serves files, inspect echoes requests.
		Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=static inspect"`
		// Public is the directory served by the static handler.
		Public string `mapstructure:"public" yaml:"public" validate:"required"`
		// Options are specific for the selected handler type.
		Options map[string]any `mapstructure:"options" yaml:"options,omitempty" test:"nullable"`
	}
)

// Config is everything the server can be tuned with. Start from Default() and
// modify only what's needed.
type Config struct {
	Server  Server  `mapstructure:"server" yaml:"server"`
	NET     NET     `mapstructure:"net" yaml:"net"`
	Logging Logging `mapstructure:"logging" yaml:"logging"`
	Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`
	Handler Handler `mapstructure:"handler" yaml:"handler"`
}

// Default returns the config the server runs with when nothing is set.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr: "127.0.0.1:8080",
		},
		NET: NET{
			MaxRequestSize: 1024,
			ReuseAddr:      true,
		},
		Logging: Logging{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Metrics: Metrics{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
		Handler: Handler{
			Type:   "static",
			Public: "public",
		},
	}
}

// Load reads the config from the file at path, if it's set, and environment
// variables. Environment takes precedence over the file, and the file over
// defaults. A missing file is an error only if the path was set explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	setupViper(v, path)

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setupViper(v *viper.Viper, path string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// keys unknown to viper are ignored by AutomaticEnv, so all of them are
	// registered via defaults
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("net.max_request_size", d.NET.MaxRequestSize)
	v.SetDefault("net.reuse_addr", d.NET.ReuseAddr)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("handler.type", d.Handler.Type)
	v.SetDefault("handler.public", d.Handler.Public)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("simplehttp")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper, path string) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && path == "" {
			return nil
		}

		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// Write dumps the config as YAML, in the form Load accepts.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return enc.Close()
}
