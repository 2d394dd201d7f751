package cli

import (
	"fmt"

	"github.com/TabCasterOrg/TabCaster/pkg/display"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func OutputsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "outputs",
		Aliases: []string{"o", "out"},
		Short:   "Inspect display outputs",
	}
	cmd.AddCommand(ListOutputs(), OutputStatus(), ListModes())
	return cmd
}

func ListOutputs() *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Aliases:      []string{"ls"},
		Short:        "List all outputs and their status",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := display.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			outputs, err := mgr.Outputs()
			if err != nil {
				return err
			}

			rows := pterm.TableData{{"OUTPUT", "STATUS", "GEOMETRY", "PRIMARY"}}
			connected := 0
			for _, out := range outputs {
				status := "disconnected"
				geometry := "-"
				primary := ""
				if out.Connected {
					status = "connected"
					connected++
				}
				if out.Crtc != 0 {
					geometry = out.Geometry()
				}
				if out.Primary {
					primary = "yes"
				}
				rows = append(rows, []string{out.Name, status, geometry, primary})
			}

			if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
				return err
			}
			pterm.Info.Printfln("%d outputs, %d connected", len(outputs), connected)
			return nil
		},
	}
}

func OutputStatus() *cobra.Command {
	return &cobra.Command{
		Use:          "status OUTPUT",
		Short:        "Show current status of one output",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := display.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			out, err := mgr.Output(args[0])
			if err != nil {
				return err
			}

			pterm.Info.Printfln("status for output %q", out.Name)
			pterm.Printf("  connected: %v\n", out.Connected)
			pterm.Printf("  primary:   %v\n", out.Primary)
			if out.Crtc != 0 {
				pterm.Printf("  enabled:   true\n")
				pterm.Printf("  geometry:  %s\n", out.Geometry())
			} else {
				pterm.Printf("  enabled:   false\n")
			}
			return nil
		},
	}
}

func ListModes() *cobra.Command {
	return &cobra.Command{
		Use:          "modes [OUTPUT]",
		Short:        "List modes for one output, or every mode the server knows",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := display.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			var modes []display.ModeEntry
			if len(args) == 1 {
				modes, err = mgr.OutputModes(args[0])
				if err != nil {
					return err
				}
			} else {
				modes = mgr.Modes()
			}

			rows := pterm.TableData{{"ID", "NAME", "RESOLUTION", "REFRESH"}}
			for _, m := range modes {
				rows = append(rows, []string{
					fmt.Sprintf("%d", m.ID),
					m.Name,
					fmt.Sprintf("%dx%d", m.Width, m.Height),
					fmt.Sprintf("%.2f Hz", m.RefreshHz),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
}
