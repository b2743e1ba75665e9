package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rushteam/moodkit/config"
	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/discovery"
	"github.com/rushteam/moodkit/engine"
	"github.com/rushteam/moodkit/logging"
)

// version 由 -ldflags "-X main.version=..." 注入。
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "moodkit",
	Short:         "moodkit - mood-based restaurant ranking",
	Long:          `moodkit scores nearby restaurants for a dining mood from their review text and ranks them.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	Version:       version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: $CONFIG_PATH or ./moodkit.yaml)")
	rootCmd.AddCommand(serveCmd, rankCmd, collectCmd)
}

// Execute 运行根命令。
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Logging)
	return cfg, nil
}

// buildEngine 按配置加载分类模型并创建排序引擎。返回的 cleanup 释放模型资源。
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, func(), error) {
	moods, err := cfg.MoodSet()
	if err != nil {
		return nil, nil, err
	}
	clf, err := config.NewClassifier(ctx, cfg.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("load classifier: %w", err)
	}
	cleanup := func() { closeQuietly(clf) }

	eng, err := engine.New(clf, moods, cfg.Engine())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}

func closeQuietly(c core.Classifier) {
	if closer, ok := c.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log := logging.Component("cli")
			log.Warn().Err(err).Msg("close classifier")
		}
	}
}

// buildDiscovery 组装发现来源：Places API 在前，离线文件在后。没有任何来源时返回 nil。
func buildDiscovery(cfg *config.Config) (discovery.Service, error) {
	var sources []discovery.Source
	if cfg.Places.APIKey != "" {
		places, err := discovery.NewPlacesClient(cfg.Places)
		if err != nil {
			return nil, err
		}
		sources = append(sources, discovery.Source{Name: "places", Service: places})
	}
	for _, path := range cfg.Discovery.Fixtures {
		s, err := discovery.NewStaticFromFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, discovery.Source{Name: "fixture:" + path, Service: s})
	}

	switch len(sources) {
	case 0:
		return nil, nil
	case 1:
		return sources[0].Service, nil
	default:
		return discovery.NewFanout(cfg.Discovery.SourceTimeout, sources...), nil
	}
}
