// Package config provides the Viper-based configuration engine: defaults,
// environment bindings, user config file resolution, and validation of the
// fields other packages consume.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/tessera-media/tessera/internal/hwaccel"
)

const (
	appName  = "tessera"
	fileType = "toml"

	// KeyHWDecoder selects the hardware decode backend, "none" for software.
	KeyHWDecoder = "playback.hw_decoder"
	// KeyVolume is the startup audio volume in [0, 1].
	KeyVolume = "playback.volume"
	// KeyRecentLimit bounds the recent-files list.
	KeyRecentLimit = "recent.limit"
	// KeyRecentFiles is the persisted recent-files list, most recent first.
	KeyRecentFiles = "recent.files"
)

// EnvKeyReplacer normalizes configuration keys into environment variable
// naming conventions, so playback.hw_decoder binds to TESSERA_PLAYBACK_HW_DECODER.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Config is the validated view of the settings the rest of the program reads.
type Config struct {
	HWDecoder   hwaccel.DeviceType
	Volume      float64
	RecentLimit int
	RecentFiles []string
}

// Setup initializes viper state: defaults, environment bindings, and the
// user config file if one exists. A missing file is not an error.
func Setup() error {
	viper.SetConfigName(appName)
	viper.SetConfigType(fileType)
	viper.AddConfigPath(configDir())

	viper.SetEnvPrefix(appName)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	viper.AutomaticEnv()

	viper.SetTypeByDefaultValue(true)
	viper.SetDefault(KeyHWDecoder, hwaccel.None.ShortName())
	viper.SetDefault(KeyVolume, 1.0)
	viper.SetDefault(KeyRecentLimit, 10)
	viper.SetDefault(KeyRecentFiles, []string{})

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load validates the current viper state into a Config.
func Load() (Config, error) {
	hw, err := hwaccel.Parse(viper.GetString(KeyHWDecoder))
	if err != nil {
		return Config{}, fmt.Errorf("config field %s: %w", KeyHWDecoder, err)
	}

	vol := viper.GetFloat64(KeyVolume)
	if vol < 0 || vol > 1 {
		return Config{}, fmt.Errorf("config field %s: %v out of range [0, 1]", KeyVolume, vol)
	}

	limit := viper.GetInt(KeyRecentLimit)
	if limit < 0 {
		return Config{}, fmt.Errorf("config field %s: %d must not be negative", KeyRecentLimit, limit)
	}

	return Config{
		HWDecoder:   hw,
		Volume:      vol,
		RecentLimit: limit,
		RecentFiles: viper.GetStringSlice(KeyRecentFiles),
	}, nil
}

// SaveRecent persists the recent-files list back to the user config file,
// creating the config directory on first write.
func SaveRecent(locators []string) error {
	viper.Set(KeyRecentFiles, locators)

	dir := configDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	path := filepath.Join(dir, appName+"."+fileType)
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func configDir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, appName)
	}
	return "."
}
