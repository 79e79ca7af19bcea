// Package config provides the merged file/env/flag configuration for the
// tdlink command.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dmora/tdlink/client"
)

// Config is the tdlink command configuration, merged from defaults, an
// optional config file, TDLINK_* environment variables, and CLI flags, in
// ascending priority.
type Config struct {
	Telegram      client.Settings     `mapstructure:"telegram"`
	Runtime       RuntimeConfig       `mapstructure:"runtime"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// RuntimeConfig tunes the client runtime.
type RuntimeConfig struct {
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	UpdateBuffer int           `mapstructure:"update_buffer"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// DefaultDataDir returns the default database directory (~/.tdlink).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tdlink"
	}
	return filepath.Join(home, ".tdlink")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.database_directory", DefaultDataDir())
	v.SetDefault("telegram.system_language_code", "en")
	v.SetDefault("telegram.device_model", "tdlink")
	v.SetDefault("telegram.application_version", "dev")

	v.SetDefault("runtime.poll_timeout", 2*time.Second)
	v.SetDefault("runtime.update_buffer", 1024)

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "text")
}

// BindRootFlags binds cobra flags to viper for the root command.
func BindRootFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.PersistentFlags()
	f.Int32("api-id", 0, "Telegram API id (my.telegram.org)")
	f.String("api-hash", "", "Telegram API hash")
	f.String("database-dir", "", "component database directory (default ~/.tdlink)")
	f.String("config", "", "config file path")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (json, text)")
	f.Duration("poll-timeout", 0, "dispatch loop receive timeout")

	_ = v.BindPFlag("telegram.api_id", f.Lookup("api-id"))
	_ = v.BindPFlag("telegram.api_hash", f.Lookup("api-hash"))
	_ = v.BindPFlag("telegram.database_directory", f.Lookup("database-dir"))
	_ = v.BindPFlag("observability.log_level", f.Lookup("log-level"))
	_ = v.BindPFlag("observability.log_format", f.Lookup("log-format"))
	_ = v.BindPFlag("runtime.poll_timeout", f.Lookup("poll-timeout"))
}

// Load reads config from flags, env, and file, returning the merged Config.
func Load(v *viper.Viper, configFile string) (Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("TDLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("tdlink")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tdlink")
		v.AddConfigPath("/etc/tdlink")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile != "" {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
