package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TabCasterOrg/TabCaster/internal"
	"github.com/TabCasterOrg/TabCaster/pkg/capture"
	"github.com/TabCasterOrg/TabCaster/pkg/display"
	"github.com/TabCasterOrg/TabCaster/pkg/metrics"
	"github.com/TabCasterOrg/TabCaster/pkg/pixel"
	"github.com/TabCasterOrg/TabCaster/pkg/streamer"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const frameLogInterval = 60

func StreamCommand() *cobra.Command {
	var streamConfigPath string
	var port int
	var fps int

	cmd := &cobra.Command{
		Use:          "stream OUTPUT",
		Aliases:      []string{"s"},
		Short:        "Stream an output's frames to a single UDP viewer",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg := GetAppConfig(cmd)

			cfg, err := internal.LoadStreamConfig(streamConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load stream config: %w", err)
			}
			if port != 0 {
				cfg.Port = port
			}
			if fps != 0 {
				cfg.Fps = fps
			}

			mgr, err := display.Open()
			if err != nil {
				return err
			}
			region, err := mgr.OutputRect(args[0])
			mgr.Close()
			if err != nil {
				return err
			}

			collector := metrics.NewStreamCollector("tabcaster")
			if appCfg.MetricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
				go func() {
					if err := http.ListenAndServe(appCfg.MetricsAddr, mux); err != nil {
						internal.Warn("metrics endpoint stopped", internal.Fields{
							internal.FieldError: err.Error(),
						})
					}
				}()
				internal.Info("metrics exposed", internal.Fields{
					internal.FieldPort: appCfg.MetricsAddr,
				})
			}

			capSession, err := capture.NewSession(capture.NewScreenGrabber(), region, cfg.Fps)
			if err != nil {
				return err
			}

			stream, err := streamer.NewSession(cfg.Port, streamer.Config{
				MaxPacketSize:    cfg.MaxPacketSize,
				PacketGap:        time.Duration(cfg.PacketGapMicros) * time.Microsecond,
				InfoDelay:        time.Duration(cfg.InfoDelayMs) * time.Millisecond,
				HandshakeTimeout: time.Duration(cfg.HandshakeTimeoutMs) * time.Millisecond,
				SocketBufferSize: cfg.SocketBufferSize,
				Collector:        collector,
			})
			if err != nil {
				return err
			}
			defer stream.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			internal.Info("waiting for viewer", internal.Fields{
				internal.FieldSession: stream.ID().String(),
				internal.FieldOutput:  args[0],
				internal.FieldRegion:  region.String(),
				internal.FieldPort:    cfg.Port,
				internal.FieldFps:     capSession.TargetFps(),
			})

			if err := stream.WaitForClient(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

			internal.Info("viewer connected", internal.Fields{
				internal.FieldPeer: stream.Peer().String(),
			})

			if err := stream.SendFrameInfo(region.Width, region.Height); err != nil {
				return err
			}

			capSession.Start()
			defer capSession.Stop()

			pollInterval := time.Duration(cfg.PollIntervalMs) * time.Millisecond
			if err := runStreamLoop(ctx, capSession, stream, collector, pollInterval); err != nil {
				return err
			}

			snap := collector.Snapshot()
			pterm.Info.Printfln("stream stopped: %d frames sent, %d packets, %d bytes",
				snap.FramesSent, snap.PacketsSent, snap.BytesSent)
			return nil
		},
	}

	cmd.Flags().StringVar(&streamConfigPath, "stream-config", "", "Path to stream config file (TOML)")
	cmd.Flags().IntVar(&port, "port", 0, "Override the listen port from the stream config")
	cmd.Flags().IntVar(&fps, "fps", 0, "Override the capture rate from the stream config")
	return cmd
}

// frameSender is the slice of streamer.Session the driver loop needs.
type frameSender interface {
	NextFrameID() uint32
	SendFrame(rgb []byte, frameID uint32) error
}

// runStreamLoop polls the capture session and ships every new frame to the
// sender until ctx is cancelled. Every iteration ends with the poll-interval
// pause, including acquisition failures, so a persistently broken grabber
// never turns into a busy loop against the display server.
func runStreamLoop(ctx context.Context, capSession *capture.Session, sender frameSender, collector *metrics.StreamCollector, pollInterval time.Duration) error {
	sent := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		status, err := capSession.Capture()
		if err != nil {
			if !errors.Is(err, capture.ErrAcquisitionFailed) {
				return err
			}
			collector.ObserveCaptureFailure()
			internal.Warn("frame acquisition failed", internal.Fields{
				internal.FieldError: err.Error(),
			})
		}

		if status == capture.StatusNewFrame {
			collector.ObserveFrameCaptured()

			rgb, err := pixel.ToRGB24(capSession.CurrentFrame())
			if err != nil {
				return err
			}

			frameID := sender.NextFrameID()
			if err := sender.SendFrame(rgb, frameID); err != nil {
				internal.Warn("frame send failed", internal.Fields{
					internal.FieldFrameID: frameID,
					internal.FieldError:   err.Error(),
				})
			} else {
				sent++
				if sent%frameLogInterval == 0 {
					internal.Debug("frames sent", internal.Fields{
						internal.FieldFrameID: frameID,
						internal.FieldFps:     fmt.Sprintf("%.1f", collector.Snapshot().FramesPerSec),
					})
				}
			}
			capSession.MarkConsumed()
		}

		select {
		case <-ctx.Done():
		case <-time.After(pollInterval):
		}
	}
}
