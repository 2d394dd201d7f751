package cli

import (
	"fmt"

	"github.com/TabCasterOrg/TabCaster/pkg/display"
	"github.com/jezek/xgb/randr"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func OutputCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "output",
		Short: "Enable or disable outputs",
	}
	cmd.AddCommand(EnableOutput(), DisableOutput())
	return cmd
}

func EnableOutput() *cobra.Command {
	var position string
	var modeID uint32

	cmd := &cobra.Command{
		Use:          "enable OUTPUT [MODE_NAME]",
		Short:        "Enable an output with a mode, by name or by ID",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var x, y int32
			if position != "" {
				n, err := fmt.Sscanf(position, "%d,%d", &x, &y)
				if err != nil || n != 2 {
					return fmt.Errorf("invalid position %q, expected X,Y (e.g. 1920,0)", position)
				}
			}

			mgr, err := display.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			switch {
			case modeID != 0:
				if err := mgr.EnableOutput(args[0], randr.Mode(modeID), x, y); err != nil {
					return err
				}
			case len(args) == 2:
				if err := mgr.EnableOutputByName(args[0], args[1], x, y); err != nil {
					return err
				}
			default:
				return fmt.Errorf("either MODE_NAME or --mode-id is required")
			}

			pterm.Success.Printfln("enabled %s at %d,%d", args[0], x, y)
			return nil
		},
	}
	cmd.Flags().StringVar(&position, "position", "", "Position as X,Y (default 0,0)")
	cmd.Flags().Uint32Var(&modeID, "mode-id", 0, "Enable with a mode ID instead of a mode name")
	return cmd
}

func DisableOutput() *cobra.Command {
	return &cobra.Command{
		Use:          "disable OUTPUT",
		Short:        "Disable an output",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := display.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.DisableOutput(args[0]); err != nil {
				return err
			}
			pterm.Success.Printfln("disabled %s", args[0])
			return nil
		},
	}
}
