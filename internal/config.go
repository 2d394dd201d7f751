package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type AppConfig struct {
	CapturesDir string `mapstructure:"captures_dir"`
	ModesFile   string `mapstructure:"modes_file"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	LogLevel    string `mapstructure:"log_level"`
}

type StreamConfig struct {
	Port               int `mapstructure:"port"`
	Fps                int `mapstructure:"fps"`
	MaxPacketSize      int `mapstructure:"max_packet_size"`
	PacketGapMicros    int `mapstructure:"packet_gap_us"`
	InfoDelayMs        int `mapstructure:"info_delay_ms"`
	HandshakeTimeoutMs int `mapstructure:"handshake_timeout_ms"`
	PollIntervalMs     int `mapstructure:"poll_interval_ms"`
	SocketBufferSize   int `mapstructure:"socket_buffer_size"`
}

func LoadAppConfig(configPath string) (*AppConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	v, err := initViper(configPath, filepath.Join(home, ".tabcaster"), "config", "toml", "TABCASTER")
	if err != nil {
		return nil, err
	}

	v.SetDefault("captures_dir", "captures")
	v.SetDefault("modes_file", filepath.Join(home, ".tabcaster", "modes.toml"))
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CapturesDir = expandPath(cfg.CapturesDir)
	cfg.ModesFile = expandPath(cfg.ModesFile)

	// Create-on-first-run ONLY:
	// If Viper didn't read any file, pick a path and write it if missing.
	if v.ConfigFileUsed() == "" {
		writePath := configPath
		if writePath == "" {
			writePath = filepath.Join(home, ".tabcaster", "config.toml")
		}
		if _, statErr := os.Stat(writePath); errors.Is(statErr, os.ErrNotExist) {
			if _, err := cfg.Save(writePath); err != nil {
				return nil, fmt.Errorf("persist default app config: %w", err)
			}
			Info("app config written", Fields{
				ConfigPath: writePath,
			})
		}
	}

	return &cfg, nil
}

func LoadStreamConfig(configPath string) (*StreamConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	v, err := initViper(configPath, filepath.Join(home, ".tabcaster"), "stream_config", "toml", "TABCASTER_STREAM")
	if err != nil {
		return nil, err
	}

	v.SetDefault("port", 8888)
	v.SetDefault("fps", 30)
	v.SetDefault("max_packet_size", 1400)
	v.SetDefault("packet_gap_us", 50)
	v.SetDefault("info_delay_ms", 10)
	v.SetDefault("handshake_timeout_ms", 0)
	v.SetDefault("poll_interval_ms", 5)
	v.SetDefault("socket_buffer_size", 1<<20)

	var cfg StreamConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if v.ConfigFileUsed() == "" {
		writePath := configPath
		if writePath == "" {
			writePath = filepath.Join(home, ".tabcaster", "stream_config.toml")
		}
		if _, statErr := os.Stat(writePath); errors.Is(statErr, os.ErrNotExist) {
			if _, err := cfg.Save(writePath); err != nil {
				return nil, fmt.Errorf("persist default stream config: %w", err)
			}
			Info("stream config written", Fields{
				ConfigPath: writePath,
			})
		}
	}

	return &cfg, nil
}

func (cfg *AppConfig) Save(path string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "" {
		path = filepath.Join(home, ".tabcaster", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	v := viper.New()
	v.SetConfigType("toml")
	v.SetDefault("captures_dir", cfg.CapturesDir)
	v.SetDefault("modes_file", cfg.ModesFile)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
	v.SetDefault("log_level", cfg.LogLevel)
	if err := v.WriteConfigAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func (cfg *StreamConfig) Save(path string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "" {
		path = filepath.Join(home, ".tabcaster", "stream_config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	v := viper.New()
	v.SetConfigType("toml")
	v.SetDefault("port", cfg.Port)
	v.SetDefault("fps", cfg.Fps)
	v.SetDefault("max_packet_size", cfg.MaxPacketSize)
	v.SetDefault("packet_gap_us", cfg.PacketGapMicros)
	v.SetDefault("info_delay_ms", cfg.InfoDelayMs)
	v.SetDefault("handshake_timeout_ms", cfg.HandshakeTimeoutMs)
	v.SetDefault("poll_interval_ms", cfg.PollIntervalMs)
	v.SetDefault("socket_buffer_size", cfg.SocketBufferSize)
	if err := v.WriteConfigAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func initViper(configPath, defaultDir, defaultName, defaultType, envPrefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(defaultType)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultDir)
		v.AddConfigPath(".")
		v.SetConfigName(defaultName)
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound {
			Error("config file not readable", Fields{
				ConfigPath: configPath,
			})
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
