package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the global configuration shared by every channel run.
type Config struct {
	Options OptionsConfig `toml:"options"`
}

type OptionsConfig struct {
	SaveLocation string `toml:"save_location"`
	SystemNotify bool   `toml:"system_notify"`
	DividerImage string `toml:"divider_image"` // optional separator image attached after each post
}

func GetConfigPath() string {
	currentDirConfig := "config.toml"
	if _, err := os.Stat(currentDirConfig); err == nil {
		return currentDirConfig
	}

	return filepath.Join(GetConfigDir(), "config.toml")
}

func GetConfigDir() string {
	var configDir string
	var err error

	if runtime.GOOS == "darwin" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		configDir = filepath.Join(homeDir, ".config")
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			log.Fatal(err)
		}
	}

	return filepath.Join(configDir, "community-archiver")
}

func LoadConfig(configPath string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return nil, err
	}
	if cfg.Options.SaveLocation == "" {
		cfg.Options.SaveLocation = "."
	}
	return &cfg, nil
}

func SaveConfig(cfg *Config, configPath string) error {
	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(cfg)
}

// EnsureConfigExists writes a default global config on first run.
func EnsureConfigExists(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), os.ModePerm); err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultConfig := &Config{
			Options: OptionsConfig{
				SaveLocation: ".",
				SystemNotify: false,
			},
		}
		return SaveConfig(defaultConfig, configPath)
	}
	return nil
}
