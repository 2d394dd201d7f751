package cli

import (
	"context"
	"fmt"

	"github.com/TabCasterOrg/TabCaster/internal"
	"github.com/spf13/cobra"
)

type ctxKey string

const appCtxKey ctxKey = "appConfig"

func NewRootCommand() *cobra.Command {
	var appConfigPath string

	rootCmd := &cobra.Command{
		Use:   "tabcaster",
		Short: "tabcaster manages display outputs and streams screen regions over UDP",
		Long: `tabcaster enumerates and reconfigures display outputs, synthesizes custom CVT
timing modes, and streams raw frames from any output's screen rectangle to a
single remote viewer over a best-effort UDP protocol.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.LoadAppConfig(appConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load app config: %w", err)
			}

			if err := internal.ConfigureLogger(cfg.LogLevel); err != nil {
				internal.Warn("invalid log level in app config, defaulting to info", internal.Fields{
					internal.FieldError: err.Error(),
				})
			}

			ctx := context.WithValue(cmd.Context(), appCtxKey, cfg)
			cmd.SetContext(ctx)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&appConfigPath, "app-config", "", "Path to app config file (TOML)")

	rootCmd.AddCommand(OutputsCommand())
	rootCmd.AddCommand(ModeCommand())
	rootCmd.AddCommand(OutputCommand())
	rootCmd.AddCommand(CaptureCommand())
	rootCmd.AddCommand(StreamCommand())

	return rootCmd
}

// GetAppConfig pulls the loaded config out of the command context.
func GetAppConfig(cmd *cobra.Command) *internal.AppConfig {
	if v := cmd.Context().Value(appCtxKey); v != nil {
		if cfg, ok := v.(*internal.AppConfig); ok {
			return cfg
		}
	}
	return nil
}
