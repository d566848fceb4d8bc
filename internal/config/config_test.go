package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/tessera-media/tessera/internal/hwaccel"
)

// Tests share viper's package-level state, so no t.Parallel here.

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	if err := Setup(); err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HWDecoder != hwaccel.None {
		t.Errorf("HWDecoder = %v, want None", cfg.HWDecoder)
	}
	if cfg.Volume != 1.0 {
		t.Errorf("Volume = %v, want 1.0", cfg.Volume)
	}
	if cfg.RecentLimit != 10 {
		t.Errorf("RecentLimit = %d, want 10", cfg.RecentLimit)
	}
}

func TestLoadParsesHWDecoder(t *testing.T) {
	resetViper(t)
	viper.Set(KeyHWDecoder, "vaapi")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HWDecoder != hwaccel.VAAPI {
		t.Errorf("HWDecoder = %v, want VAAPI", cfg.HWDecoder)
	}
}

func TestLoadRejectsUnknownHWDecoder(t *testing.T) {
	resetViper(t)
	viper.Set(KeyHWDecoder, "quicksync")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() with unknown hw_decoder succeeded")
	}
	if !strings.Contains(err.Error(), KeyHWDecoder) {
		t.Errorf("error %q does not name the offending field", err)
	}
}

func TestLoadRejectsVolumeOutOfRange(t *testing.T) {
	resetViper(t)
	viper.Set(KeyVolume, 1.5)

	if _, err := Load(); err == nil {
		t.Error("Load() with volume 1.5 succeeded")
	}

	resetViper(t)
	viper.Set(KeyVolume, -0.1)
	if _, err := Load(); err == nil {
		t.Error("Load() with volume -0.1 succeeded")
	}
}

func TestLoadRejectsNegativeRecentLimit(t *testing.T) {
	resetViper(t)
	viper.Set(KeyRecentLimit, -1)

	if _, err := Load(); err == nil {
		t.Error("Load() with negative recent limit succeeded")
	}
}
