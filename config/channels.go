package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/sorane/community-archiver/logger"
)

// ChannelConfig is the per-channel surface: one feed target with its own
// archive, output paths and webhook endpoints. One file per channel under
// channels/.
type ChannelConfig struct {
	Name string `toml:"-"` // derived from the config file name

	URL     string `toml:"url"`
	Cookies string `toml:"cookies"`

	EnablePosts bool   `toml:"enable_posts"`
	PostOutput  string `toml:"post_output"`

	EnableMedia bool   `toml:"enable_media"`
	MediaOutput string `toml:"media_output"`

	EnableArchive bool   `toml:"enable_archive"`
	ArchiveOutput string `toml:"archive_output"`

	EnableTranslate bool   `toml:"enable_translate"`
	TranslateModel  string `toml:"translate_model"`
	TranslateAPIKey string `toml:"translate_api_key"`
	TranslatePrompt string `toml:"translate_prompt"`

	OriginalWebhook   string `toml:"original_webhook"`
	TranslatedWebhook string `toml:"translated_webhook"`
	MediaWebhook      string `toml:"media_webhook"`
}

// DefaultChannel mirrors the defaults a fresh channel file is seeded with.
func DefaultChannel(name string) ChannelConfig {
	return ChannelConfig{
		Name:           name,
		EnablePosts:    true,
		PostOutput:     "downloads/posts",
		EnableMedia:    true,
		MediaOutput:    "downloads/media",
		EnableArchive:  true,
		ArchiveOutput:  "database/archive.sqlite",
		TranslateModel: "gpt-4o-mini",
	}
}

// ChannelsDir is where per-channel config files live, next to the working
// directory. Files under a "disable" subdirectory are ignored.
func ChannelsDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "channels"
	}
	return filepath.Join(wd, "channels")
}

// LoadChannels reads every channel config under dir. A file that fails to
// parse is logged and skipped, it never stops the other channels.
func LoadChannels(dir string) ([]ChannelConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var channels []ChannelConfig
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		channel := DefaultChannel(strings.TrimSuffix(entry.Name(), ".toml"))
		if _, err := toml.DecodeFile(path, &channel); err != nil {
			logger.Logger.Printf("[ERROR] Cannot load channel config %s: %v", entry.Name(), err)
			continue
		}
		logger.Logger.Printf("[INFO] Loaded channel config: %s", entry.Name())
		channels = append(channels, channel)
	}
	return channels, nil
}

// CreateDefaultChannels seeds the channels directory with a disabled
// example file the first time the tool runs without any configuration.
func CreateDefaultChannels(dir string) error {
	disableDir := filepath.Join(dir, "disable")
	if err := os.MkdirAll(disableDir, os.ModePerm); err != nil {
		return err
	}

	path := filepath.Join(disableDir, "default.toml")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	channel := DefaultChannel("default")
	if err := toml.NewEncoder(file).Encode(channel); err != nil {
		return fmt.Errorf("writing default channel config: %w", err)
	}
	logger.Logger.Printf("[INFO] Created example channel config: %s", path)
	return nil
}
