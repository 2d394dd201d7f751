package cli

import (
	"fmt"
	"strconv"

	"github.com/TabCasterOrg/TabCaster/internal"
	"github.com/TabCasterOrg/TabCaster/pkg/display"
	"github.com/jezek/xgb/randr"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func ModeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mode",
		Aliases: []string{"m"},
		Short:   "Create, attach, and destroy custom video modes",
	}
	cmd.AddCommand(CreateMode(), AddMode(), RemoveMode(), DeleteMode(), SavedModes())
	return cmd
}

// parseModeSpec parses WIDTHxHEIGHT@REFRESH, e.g. "2336x1080@60".
func parseModeSpec(spec string) (width, height uint32, refresh float64, err error) {
	n, err := fmt.Sscanf(spec, "%dx%d@%f", &width, &height, &refresh)
	if err != nil || n != 3 {
		return 0, 0, 0, fmt.Errorf("invalid mode spec %q, expected WIDTHxHEIGHT@REFRESH (e.g. 2336x1080@60)", spec)
	}
	return width, height, refresh, nil
}

func parseModeID(arg string) (randr.Mode, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode id %q: %w", arg, err)
	}
	return randr.Mode(id), nil
}

func CreateMode() *cobra.Command {
	var reducedBlanking bool
	var save bool

	cmd := &cobra.Command{
		Use:          "create WxH@R",
		Short:        "Create a CVT mode (e.g. 2336x1080@60)",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			width, height, refresh, err := parseModeSpec(args[0])
			if err != nil {
				return err
			}

			mgr, err := display.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			id, modeline, err := mgr.CreateMode(width, height, refresh, reducedBlanking)
			if err != nil {
				return err
			}

			pterm.Success.Printfln("created mode %d: %s", id, modeline.String())
			pterm.Info.Printfln("attach it with: tabcaster mode add OUTPUT %d", id)

			if save {
				cfg := GetAppConfig(cmd)
				store, err := display.LoadModeStore(cfg.ModesFile)
				if err != nil {
					return err
				}
				if err := store.Add(display.StoredMode{
					Name:            modeline.Name,
					Width:           width,
					Height:          height,
					RefreshHz:       refresh,
					ReducedBlanking: reducedBlanking,
				}); err != nil {
					return err
				}
				internal.Info("mode saved", internal.Fields{
					internal.FieldMode:  modeline.Name,
					internal.ConfigPath: cfg.ModesFile,
				})
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reducedBlanking, "reduced-blanking", false, "Use CVT reduced blanking timings")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the modeline so it can be re-created after an X restart")
	return cmd
}

func AddMode() *cobra.Command {
	return &cobra.Command{
		Use:          "add OUTPUT MODE_ID",
		Short:        "Attach an existing mode to an output",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseModeID(args[1])
			if err != nil {
				return err
			}
			mgr, err := display.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.AddMode(args[0], id); err != nil {
				return err
			}
			pterm.Success.Printfln("added mode %d to %s", id, args[0])
			pterm.Info.Printfln("enable it with: tabcaster output enable %s --mode-id %d", args[0], id)
			return nil
		},
	}
}

func RemoveMode() *cobra.Command {
	return &cobra.Command{
		Use:          "remove OUTPUT MODE_ID",
		Short:        "Detach a mode from an output",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseModeID(args[1])
			if err != nil {
				return err
			}
			mgr, err := display.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.RemoveMode(args[0], id); err != nil {
				return err
			}
			pterm.Success.Printfln("removed mode %d from %s", id, args[0])
			return nil
		},
	}
}

func DeleteMode() *cobra.Command {
	return &cobra.Command{
		Use:          "delete MODE_ID",
		Short:        "Destroy a mode server-wide",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseModeID(args[0])
			if err != nil {
				return err
			}
			mgr, err := display.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.DeleteMode(id); err != nil {
				return err
			}
			pterm.Success.Printfln("deleted mode %d", id)
			return nil
		},
	}
}

func SavedModes() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:          "saved",
		Short:        "List persisted modelines, optionally re-creating them on the server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetAppConfig(cmd)
			store, err := display.LoadModeStore(cfg.ModesFile)
			if err != nil {
				return err
			}

			modes := store.List()
			if len(modes) == 0 {
				pterm.Info.Println("no saved modes")
				return nil
			}

			if !apply {
				rows := pterm.TableData{{"NAME", "RESOLUTION", "REFRESH", "REDUCED BLANKING"}}
				for _, m := range modes {
					rows = append(rows, []string{
						m.Name,
						fmt.Sprintf("%dx%d", m.Width, m.Height),
						fmt.Sprintf("%.2f Hz", m.RefreshHz),
						fmt.Sprintf("%v", m.ReducedBlanking),
					})
				}
				return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
			}

			mgr, err := display.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			for _, m := range modes {
				id, _, err := mgr.CreateMode(m.Width, m.Height, m.RefreshHz, m.ReducedBlanking)
				if err != nil {
					internal.Warn("failed to re-create saved mode", internal.Fields{
						internal.FieldMode:  m.Name,
						internal.FieldError: err.Error(),
					})
					continue
				}
				pterm.Success.Printfln("re-created %s as mode %d", m.Name, id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Re-create every saved modeline on the running server")
	return cmd
}
