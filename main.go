package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sorane/community-archiver/cmd"
	"github.com/sorane/community-archiver/config"
	"github.com/sorane/community-archiver/logger"
	"github.com/sorane/community-archiver/pipeline"
)

const version = "v0.1.0"

func main() {
	flags := cmd.ParseFlags()
	if flags.Version {
		fmt.Printf("community-archiver %s\n", version)
		return
	}

	configPath := config.GetConfigPath()
	if err := config.EnsureConfigExists(configPath); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.InitLogger(cfg.Options.SaveLocation); err != nil {
		log.Fatal(err)
	}
	logger.Logger.Printf("[INFO] Starting community-archiver %s", version)

	channels, err := resolveChannels(flags)
	if err != nil {
		logger.Logger.Printf("[ERROR] %v", err)
		os.Exit(1)
	}

	summaries := pipeline.Run(context.Background(), cfg, channels)

	failed := 0
	for _, summary := range summaries {
		if summary.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		logger.Logger.Printf("[ERROR] %d of %d channel(s) aborted with an error", failed, len(summaries))
		os.Exit(1)
	}
}

// resolveChannels decides what to process: a one-off target given on the
// command line, or every channel config file on disk.
func resolveChannels(flags cmd.Flags) ([]config.ChannelConfig, error) {
	if flags.URL != "" {
		channel := config.DefaultChannel("adhoc")
		channel.URL = flags.URL
		channel.Cookies = flags.Cookies
		return []config.ChannelConfig{channel}, nil
	}

	dir := flags.Channels
	if dir == "" {
		dir = config.ChannelsDir()
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := config.CreateDefaultChannels(dir); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no channel configs found, an example was created under %s", dir)
	}

	channels, err := config.LoadChannels(dir)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("no valid channel configs under %s", dir)
	}
	return channels, nil
}
