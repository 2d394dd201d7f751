// Package display talks RandR to the X server: output enumeration, custom
// mode management, and the screen rectangles that back named outputs.
package display

import (
	"errors"
	"fmt"

	"github.com/TabCasterOrg/TabCaster/pkg/capture"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

var (
	ErrOutputNotFound = errors.New("display: output not found")

	// ErrNoActiveRect means the output exists but nothing is driving it,
	// so there is no screen rectangle to capture.
	ErrNoActiveRect = errors.New("display: output has no active rectangle")
)

// Output is one named display connector and, when a CRTC drives it, its
// current geometry.
type Output struct {
	Name      string
	ID        randr.Output
	Connected bool
	Primary   bool
	Crtc      randr.Crtc
	X         int32
	Y         int32
	Width     uint32
	Height    uint32
}

func (o Output) Geometry() string {
	return fmt.Sprintf("%dx%d+%d+%d", o.Width, o.Height, o.X, o.Y)
}

// Manager owns the X connection and the RandR screen resources.
type Manager struct {
	conn *xgb.Conn
	root xproto.Window
	res  *randr.GetScreenResourcesReply
}

// Open connects to the default X display and loads the screen resources.
func Open() (*Manager, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize randr: %w", err)
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	res, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("get screen resources: %w", err)
	}

	return &Manager{conn: conn, root: root, res: res}, nil
}

func (m *Manager) Close() {
	m.conn.Close()
}

// Refresh re-reads the screen resources after a configuration change.
func (m *Manager) Refresh() error {
	res, err := randr.GetScreenResources(m.conn, m.root).Reply()
	if err != nil {
		return fmt.Errorf("get screen resources: %w", err)
	}
	m.res = res
	return nil
}

// Outputs enumerates every output known to the server, connected or not.
func (m *Manager) Outputs() ([]Output, error) {
	primaryReply, err := randr.GetOutputPrimary(m.conn, m.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("get primary output: %w", err)
	}

	outputs := make([]Output, 0, len(m.res.Outputs))
	for _, id := range m.res.Outputs {
		info, err := randr.GetOutputInfo(m.conn, id, 0).Reply()
		if err != nil {
			return nil, fmt.Errorf("get output info: %w", err)
		}

		out := Output{
			Name:      string(info.Name),
			ID:        id,
			Connected: info.Connection == randr.ConnectionConnected,
			Primary:   primaryReply.Output == id,
			Crtc:      info.Crtc,
		}

		if info.Crtc != 0 {
			crtc, err := randr.GetCrtcInfo(m.conn, info.Crtc, 0).Reply()
			if err != nil {
				return nil, fmt.Errorf("get crtc info for %s: %w", out.Name, err)
			}
			out.X = int32(crtc.X)
			out.Y = int32(crtc.Y)
			out.Width = uint32(crtc.Width)
			out.Height = uint32(crtc.Height)
		}

		outputs = append(outputs, out)
	}
	return outputs, nil
}

// Output looks one connector up by name.
func (m *Manager) Output(name string) (Output, error) {
	outputs, err := m.Outputs()
	if err != nil {
		return Output{}, err
	}
	for _, out := range outputs {
		if out.Name == name {
			return out, nil
		}
	}
	return Output{}, fmt.Errorf("%w: %q", ErrOutputNotFound, name)
}

// OutputRect is the screen rectangle provider: the region backing a named
// output. A disconnected output still qualifies while a CRTC drives it
// (virtual outputs show up that way). Fails when nothing is rendering to
// the output.
func (m *Manager) OutputRect(name string) (capture.Region, error) {
	out, err := m.Output(name)
	if err != nil {
		return capture.Region{}, err
	}
	if out.Crtc == 0 || out.Width == 0 || out.Height == 0 {
		return capture.Region{}, fmt.Errorf("%w: %q", ErrNoActiveRect, name)
	}
	return capture.Region{
		X:      out.X,
		Y:      out.Y,
		Width:  out.Width,
		Height: out.Height,
	}, nil
}
