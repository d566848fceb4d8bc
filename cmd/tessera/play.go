package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessera-media/tessera/internal/config"
	"github.com/tessera-media/tessera/internal/desktop"
	"github.com/tessera-media/tessera/internal/hwaccel"
	"github.com/tessera-media/tessera/internal/mpris"
	"github.com/tessera-media/tessera/internal/player"
	"github.com/tessera-media/tessera/internal/recent"
)

func newPlayCmd() *cobra.Command {
	var volume float64
	cmd := &cobra.Command{
		Use:   "play <locator>",
		Short: "Play a local file or stream URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("volume") {
				cfg.Volume = volume
			}
			hw, err := resolveHW(cfg)
			if err != nil {
				return err
			}
			return runPlay(args[0], hw, cfg)
		},
	}
	cmd.Flags().Float64Var(&volume, "volume", 1.0, "startup volume in [0, 1]")
	return cmd
}

func runPlay(locator string, hw hwaccel.DeviceType, cfg config.Config) error {
	log := slog.Default()

	s, err := player.Open(locator, hw, log)
	if err != nil {
		return err
	}
	defer s.Close()
	s.SetVolume(cfg.Volume)

	rec := recent.NewManager(cfg.RecentLimit, log)
	rec.Replace(cfg.RecentFiles)
	rec.Add(locator)
	if err := config.SaveRecent(rec.Locators()); err != nil {
		log.Warn("persisting recent files", "error", err)
	}

	// Desktop integration is best effort: playback works without a bus.
	var srv *mpris.Server
	if srv, err = mpris.Start(s, locator, log); err != nil {
		log.Warn("mpris unavailable", "error", err)
		srv = nil
	} else {
		defer srv.Close()
	}

	if inhibitor, err := desktop.NewInhibitor(log); err != nil {
		log.Warn("idle inhibit unavailable", "error", err)
	} else {
		inhibitor.Inhibit("media playback")
		defer inhibitor.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()
	report := time.NewTicker(time.Second)
	defer report.Stop()

	var frames int64
	for {
		select {
		case sig := <-sigCh:
			log.Info("received signal, shutting down", "signal", sig)
			return s.Close()
		case <-s.Done():
			log.Info("playback finished", "frames", frames, "underruns", s.Underruns())
			return s.Close()
		case now := <-poll.C:
			if f := s.PollFrame(now); f != nil {
				frames++
			}
		case <-report.C:
			if srv != nil {
				srv.Publish()
			}
			log.Debug("playback position",
				"at", s.Position(),
				"duration", s.Duration(),
				"frames", frames,
			)
		}
	}
}
