package display

import (
	"fmt"

	"github.com/TabCasterOrg/TabCaster/internal"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

// ModeEntry is one timing registered with the server.
type ModeEntry struct {
	ID        randr.Mode
	Name      string
	Width     uint16
	Height    uint16
	RefreshHz float64
}

// Modes lists every mode the server knows, with names resolved from the
// packed name buffer of the resources reply.
func (m *Manager) Modes() []ModeEntry {
	entries := make([]ModeEntry, 0, len(m.res.Modes))
	offset := 0
	for _, mi := range m.res.Modes {
		name := ""
		if offset+int(mi.NameLen) <= len(m.res.Names) {
			name = string(m.res.Names[offset : offset+int(mi.NameLen)])
		}
		offset += int(mi.NameLen)

		refresh := 0.0
		if mi.Htotal != 0 && mi.Vtotal != 0 {
			refresh = float64(mi.DotClock) / (float64(mi.Htotal) * float64(mi.Vtotal))
		}
		entries = append(entries, ModeEntry{
			ID:        randr.Mode(mi.Id),
			Name:      name,
			Width:     mi.Width,
			Height:    mi.Height,
			RefreshHz: refresh,
		})
	}
	return entries
}

// OutputModes lists the modes currently attached to one output.
func (m *Manager) OutputModes(name string) ([]ModeEntry, error) {
	out, err := m.Output(name)
	if err != nil {
		return nil, err
	}
	info, err := randr.GetOutputInfo(m.conn, out.ID, 0).Reply()
	if err != nil {
		return nil, fmt.Errorf("get output info: %w", err)
	}

	all := m.Modes()
	byID := make(map[randr.Mode]ModeEntry, len(all))
	for _, e := range all {
		byID[e.ID] = e
	}

	entries := make([]ModeEntry, 0, len(info.Modes))
	for _, id := range info.Modes {
		if e, ok := byID[id]; ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// CreateMode synthesizes a CVT timing and registers it with the server.
func (m *Manager) CreateMode(width, height uint32, refresh float64, reducedBlanking bool) (randr.Mode, Modeline, error) {
	ml, err := CVTModeline(width, height, refresh, reducedBlanking)
	if err != nil {
		return 0, Modeline{}, err
	}

	flags := uint32(0)
	if ml.HSyncPositive {
		flags |= randr.ModeFlagHsyncPositive
	} else {
		flags |= randr.ModeFlagHsyncNegative
	}
	if ml.VSyncPositive {
		flags |= randr.ModeFlagVsyncPositive
	} else {
		flags |= randr.ModeFlagVsyncNegative
	}

	info := randr.ModeInfo{
		Width:      ml.HDisplay,
		Height:     ml.VDisplay,
		DotClock:   ml.DotClock(),
		HsyncStart: ml.HSyncStart,
		HsyncEnd:   ml.HSyncEnd,
		Htotal:     ml.HTotal,
		VsyncStart: ml.VSyncStart,
		VsyncEnd:   ml.VSyncEnd,
		Vtotal:     ml.VTotal,
		NameLen:    uint16(len(ml.Name)),
		ModeFlags:  flags,
	}

	reply, err := randr.CreateMode(m.conn, m.root, info, ml.Name).Reply()
	if err != nil {
		return 0, Modeline{}, fmt.Errorf("create mode %s: %w", ml.Name, err)
	}

	internal.Info("created mode", internal.Fields{
		internal.FieldMode:   ml.String(),
		internal.FieldModeID: uint32(reply.Mode),
	})

	if err := m.Refresh(); err != nil {
		return reply.Mode, ml, err
	}
	return reply.Mode, ml, nil
}

// AddMode attaches an existing mode to an output.
func (m *Manager) AddMode(outputName string, mode randr.Mode) error {
	out, err := m.Output(outputName)
	if err != nil {
		return err
	}
	if err := randr.AddOutputModeChecked(m.conn, out.ID, mode).Check(); err != nil {
		return fmt.Errorf("add mode %d to %s: %w", mode, outputName, err)
	}
	return nil
}

// RemoveMode detaches a mode from an output. The mode itself survives.
func (m *Manager) RemoveMode(outputName string, mode randr.Mode) error {
	out, err := m.Output(outputName)
	if err != nil {
		return err
	}
	if err := randr.DeleteOutputModeChecked(m.conn, out.ID, mode).Check(); err != nil {
		return fmt.Errorf("remove mode %d from %s: %w", mode, outputName, err)
	}
	return nil
}

// DeleteMode destroys a mode server-wide.
func (m *Manager) DeleteMode(mode randr.Mode) error {
	if err := randr.DestroyModeChecked(m.conn, mode).Check(); err != nil {
		return fmt.Errorf("destroy mode %d: %w", mode, err)
	}
	if err := m.Refresh(); err != nil {
		return err
	}
	return nil
}

// EnableOutputByName resolves a mode by its registered name and enables the
// output with it.
func (m *Manager) EnableOutputByName(outputName, modeName string, x, y int32) error {
	for _, e := range m.Modes() {
		if e.Name == modeName {
			return m.EnableOutput(outputName, e.ID, x, y)
		}
	}
	return fmt.Errorf("display: mode %q not found", modeName)
}

// EnableOutput binds the output to a CRTC running the given mode at the
// given position.
func (m *Manager) EnableOutput(outputName string, mode randr.Mode, x, y int32) error {
	out, err := m.Output(outputName)
	if err != nil {
		return err
	}

	crtc := out.Crtc
	if crtc == 0 {
		crtc, err = m.findFreeCrtc(out.ID)
		if err != nil {
			return err
		}
	}

	reply, err := randr.SetCrtcConfig(
		m.conn, crtc,
		xproto.TimeCurrentTime, m.res.ConfigTimestamp,
		int16(x), int16(y),
		mode, randr.RotationRotate0,
		[]randr.Output{out.ID},
	).Reply()
	if err != nil {
		return fmt.Errorf("enable %s with mode %d: %w", outputName, mode, err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("enable %s with mode %d: set config status %d", outputName, mode, reply.Status)
	}

	internal.Info("output enabled", internal.Fields{
		internal.FieldOutput: outputName,
		internal.FieldModeID: uint32(mode),
		internal.FieldRegion: fmt.Sprintf("+%d+%d", x, y),
	})
	return m.Refresh()
}

// DisableOutput detaches the output from its CRTC.
func (m *Manager) DisableOutput(outputName string) error {
	out, err := m.Output(outputName)
	if err != nil {
		return err
	}
	if out.Crtc == 0 {
		return nil // already disabled
	}

	reply, err := randr.SetCrtcConfig(
		m.conn, out.Crtc,
		xproto.TimeCurrentTime, m.res.ConfigTimestamp,
		0, 0, 0, randr.RotationRotate0, nil,
	).Reply()
	if err != nil {
		return fmt.Errorf("disable %s: %w", outputName, err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("disable %s: set config status %d", outputName, reply.Status)
	}

	internal.Info("output disabled", internal.Fields{
		internal.FieldOutput: outputName,
	})
	return m.Refresh()
}

// findFreeCrtc picks an unused CRTC the output can drive, falling back to
// the first CRTC the output lists as possible.
func (m *Manager) findFreeCrtc(output randr.Output) (randr.Crtc, error) {
	for _, crtc := range m.res.Crtcs {
		info, err := randr.GetCrtcInfo(m.conn, crtc, 0).Reply()
		if err != nil {
			continue
		}
		if len(info.Outputs) == 0 {
			return crtc, nil
		}
	}

	info, err := randr.GetOutputInfo(m.conn, output, 0).Reply()
	if err != nil {
		return 0, fmt.Errorf("get output info: %w", err)
	}
	if len(info.Crtcs) > 0 {
		return info.Crtcs[0], nil
	}
	return 0, fmt.Errorf("display: no crtc available for output %d", output)
}
