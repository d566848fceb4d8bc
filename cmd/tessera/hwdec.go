package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessera-media/tessera/internal/hwaccel"
)

func newHWDecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hwdec",
		Short: "List hardware decoders this build supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			available := make(map[hwaccel.DeviceType]bool)
			for _, d := range hwaccel.Supported() {
				available[d] = true
			}

			w := cmd.OutOrStdout()
			for _, d := range hwaccel.All {
				if d == hwaccel.None {
					continue
				}
				status := "unavailable"
				if available[d] {
					status = "available"
				}
				fmt.Fprintf(w, "%-14s %-24s %s\n", d.ShortName(), d.Name(), status)
			}
			return nil
		},
	}
}
