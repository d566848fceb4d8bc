package main

import (
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessera-media/tessera/internal/config"
	"github.com/tessera-media/tessera/internal/decode"
	"github.com/tessera-media/tessera/internal/locator"
	"github.com/tessera-media/tessera/internal/thumbnail"
)

func newThumbnailCmd() *cobra.Command {
	var (
		output string
		at     time.Duration
		width  int
		height int
	)
	cmd := &cobra.Command{
		Use:   "thumbnail <locator>",
		Short: "Write a PNG thumbnail for a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			hw, err := resolveHW(cfg)
			if err != nil {
				return err
			}
			resolved, err := locator.Resolve(args[0])
			if err != nil {
				return err
			}

			o := thumbnail.Options{
				At:        decode.CaptureAuto,
				MaxWidth:  width,
				MaxHeight: height,
				HWDecoder: hw,
			}
			if cmd.Flags().Changed("at") {
				o.At = at
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return thumbnail.Write(ctx, resolved, output, o, slog.Default())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "thumbnail.png", "output PNG path")
	cmd.Flags().DurationVar(&at, "at", 0, "capture position (default chosen from duration)")
	cmd.Flags().IntVar(&width, "width", 0, "maximum output width, 0 for source size")
	cmd.Flags().IntVar(&height, "height", 0, "maximum output height, 0 for source size")
	return cmd
}
