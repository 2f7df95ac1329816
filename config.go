package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// 日誌格式
const (
	LogFormatAuto    = "auto"
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Config 全域配置
type Config struct {
	Registry RegistryConfig `json:"registry" mapstructure:"registry"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// RegistryConfig 中繼資料來源配置
type RegistryConfig struct {
	// Binary 讀取建置資訊的執行檔，空字串代表目前程序
	Binary string `json:"binary" mapstructure:"binary"`
}

// LoggingConfig 日誌配置
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// DefaultConfig 返回預設配置
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: LogFormatAuto,
		},
	}
}

// LoadConfig 載入配置檔，未指定路徑時直接使用預設值
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("讀取配置檔失敗: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置驗證失敗: %w", err)
	}

	return cfg, nil
}

// Validate 驗證配置，回報所有錯誤
func (c *Config) Validate() error {
	var errs error

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("無效的日誌等級: %q", c.Logging.Level))
	}

	switch c.Logging.Format {
	case LogFormatAuto, LogFormatJSON, LogFormatConsole:
	default:
		errs = multierr.Append(errs, fmt.Errorf("無效的日誌格式: %q", c.Logging.Format))
	}

	return errs
}

// Encoding 解析實際使用的 zap 編碼
func (c LoggingConfig) Encoding() string {
	if c.Format != LogFormatAuto {
		return c.Format
	}
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return LogFormatConsole
	}
	return LogFormatJSON
}
