package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/TabCasterOrg/TabCaster/internal"
	"github.com/TabCasterOrg/TabCaster/pkg/capture"
	"github.com/TabCasterOrg/TabCaster/pkg/display"
	"github.com/TabCasterOrg/TabCaster/pkg/pixel"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func CaptureCommand() *cobra.Command {
	var fps int
	var frames int

	cmd := &cobra.Command{
		Use:          "capture OUTPUT",
		Aliases:      []string{"cap"},
		Short:        "Grab frames from an output and write them as PPM files",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetAppConfig(cmd)

			mgr, err := display.Open()
			if err != nil {
				return err
			}
			region, err := mgr.OutputRect(args[0])
			mgr.Close()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.CapturesDir, 0o755); err != nil {
				return fmt.Errorf("creating captures dir: %w", err)
			}

			session, err := capture.NewSession(capture.NewScreenGrabber(), region, fps)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			internal.Info("capturing", internal.Fields{
				internal.FieldOutput:     args[0],
				internal.FieldRegion:     region.String(),
				internal.FieldFps:        session.TargetFps(),
				internal.CapturesDirPath: cfg.CapturesDir,
			})

			session.Start()
			defer session.Stop()

			saved := 0
			for frames <= 0 || saved < frames {
				select {
				case <-ctx.Done():
					pterm.Info.Printfln("stopped after %d frames", saved)
					return nil
				default:
				}

				status, err := session.Capture()
				if err != nil {
					if !errors.Is(err, capture.ErrAcquisitionFailed) {
						return err
					}
					internal.Warn("frame acquisition failed", internal.Fields{
						internal.FieldError: err.Error(),
					})
				}
				// Failed or not-yet polls both pause here; the loop never
				// spins against the display server.
				if status != capture.StatusNewFrame {
					time.Sleep(time.Millisecond)
					continue
				}

				rgb, err := pixel.ToRGB24(session.CurrentFrame())
				if err != nil {
					return err
				}
				path := filepath.Join(cfg.CapturesDir, fmt.Sprintf("frame_%05d.ppm", saved))
				if err := capture.SavePPM(path, int(region.Width), int(region.Height), rgb); err != nil {
					return err
				}
				session.MarkConsumed()
				saved++
			}

			pterm.Success.Printfln("saved %d frames to %s", saved, cfg.CapturesDir)
			return nil
		},
	}
	cmd.Flags().IntVar(&fps, "fps", capture.DefaultFps, "Target capture rate")
	cmd.Flags().IntVar(&frames, "frames", 10, "Number of frames to save, 0 for unbounded")
	return cmd
}
