package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessera-media/tessera/internal/config"
	"github.com/tessera-media/tessera/internal/hwaccel"
)

var version = "dev"

var (
	flagDebug bool
	flagHWDec string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tessera",
		Short:         "Media decode and playback engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if flagDebug || os.Getenv("DEBUG") != "" {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return config.Setup()
		},
	}
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flagHWDec, "hwdec", "", "hardware decoder, overrides the configured one (see 'tessera hwdec')")
	root.AddCommand(newPlayCmd(), newThumbnailCmd(), newHWDecCmd())
	return root
}

func execute() error {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		return err
	}
	return nil
}

// resolveHW applies the flag over the configured decoder.
func resolveHW(cfg config.Config) (hwaccel.DeviceType, error) {
	if flagHWDec == "" {
		return cfg.HWDecoder, nil
	}
	return hwaccel.Parse(flagHWDec)
}
