package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RegistryFactory 依配置建立中繼資料來源
type RegistryFactory func(cfg *Config) Registry

func defaultRegistry(cfg *Config) Registry {
	return NewBuildInfoRegistry(cfg.Registry.Binary, Version)
}

// newRootCmd 建立根命令
func newRootCmd(newRegistry RegistryFactory) *cobra.Command {
	var (
		cfgFile     string
		showVersion bool
		logger      = zap.NewNop()
		appConfig   = DefaultConfig()
	)

	cmd := &cobra.Command{
		Use:           "dataclass_codec",
		Short:         "查詢 dataclass_codec 已安裝的版本",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := LoadConfig(cfgFile)
			if cfgErr != nil {
				// 配置載入失敗時使用預設值
				cfg = DefaultConfig()
			}
			appConfig = cfg

			var err error
			logger, err = initLogger(appConfig.Logging)
			if err != nil {
				return fmt.Errorf("初始化日誌失敗: %w", err)
			}
			if cfgErr != nil {
				logger.Warn("載入配置檔失敗，使用預設配置",
					zap.String("path", cfgFile),
					zap.Error(cfgErr),
				)
			}

			logger.Debug("啟動",
				zap.String("version", Version),
				zap.String("build_time", BuildTime),
				zap.String("commit", GitCommit),
			)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !showVersion {
				return nil
			}

			version, err := newRegistry(appConfig).Lookup(PackageName)
			if err != nil {
				logger.Debug("查詢版本失敗", zap.String("package", PackageName), zap.Error(err))
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置檔路徑")
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "顯示已安裝的版本並結束")

	return cmd
}

// initLogger 建立輸出到 stderr 的日誌，stdout 只保留版本字串
func initLogger(cfg LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = cfg.Encoding()
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// Execute 執行 CLI
func Execute() error {
	return newRootCmd(defaultRegistry).Execute()
}
