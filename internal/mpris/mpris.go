// Package mpris exports playback control on the session bus under the
// org.mpris.MediaPlayer2 interfaces, so desktop media keys and applets can
// drive the player. The server is strictly optional: any bus failure is
// reported once and playback continues without it.
package mpris

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
)

const (
	busName    = "org.mpris.MediaPlayer2.tessera"
	objectPath = dbus.ObjectPath("/org/mpris/MediaPlayer2")

	rootInterface   = "org.mpris.MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"
)

// Controller is the slice of the playback session the bus is allowed to
// drive. Methods must be safe to call from the bus goroutine.
type Controller interface {
	Paused() bool
	SetPaused(bool)
	SetVolume(float64)
	SeekBy(time.Duration) bool
	Position() time.Duration
	Duration() time.Duration
}

// Server owns the bus connection and the exported property state.
type Server struct {
	log   *slog.Logger
	conn  *dbus.Conn
	props *prop.Properties
	ctl   Controller
}

type rootObject struct {
	log *slog.Logger
}

func (r *rootObject) Raise() *dbus.Error {
	r.log.Info("Raise")
	return nil
}

func (r *rootObject) Quit() *dbus.Error {
	r.log.Info("Quit")
	return nil
}

type playerObject struct {
	log *slog.Logger
	ctl Controller
}

func (p *playerObject) Play() *dbus.Error {
	p.log.Info("Play")
	p.ctl.SetPaused(false)
	return nil
}

func (p *playerObject) Pause() *dbus.Error {
	p.log.Info("Pause")
	p.ctl.SetPaused(true)
	return nil
}

func (p *playerObject) PlayPause() *dbus.Error {
	p.log.Info("PlayPause")
	p.ctl.SetPaused(!p.ctl.Paused())
	return nil
}

func (p *playerObject) Stop() *dbus.Error {
	p.log.Info("Stop")
	p.ctl.SetPaused(true)
	return nil
}

func (p *playerObject) Next() *dbus.Error {
	p.log.Info("Next")
	return nil
}

func (p *playerObject) Previous() *dbus.Error {
	p.log.Info("Previous")
	return nil
}

// Seek handles the bus-side relative seek, offset in microseconds.
func (p *playerObject) Seek(offset int64) *dbus.Error {
	p.log.Info("Seek", "offset_us", offset)
	p.ctl.SeekBy(time.Duration(offset) * time.Microsecond)
	return nil
}

func (p *playerObject) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	p.log.Info("SetPosition", "track", trackID, "position_us", position)
	return nil
}

func (p *playerObject) OpenUri(uri string) *dbus.Error {
	p.log.Info("OpenUri", "uri", uri)
	return nil
}

// Start connects to the session bus and claims the player name. Callers
// should treat an error as a degraded mode, not a fatal one.
func Start(ctl Controller, title string, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	mlog := log.With("component", "mpris")

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}

	s := &Server{log: mlog, conn: conn, ctl: ctl}

	if err := conn.Export(&rootObject{log: mlog}, objectPath, rootInterface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("exporting root interface: %w", err)
	}
	if err := conn.Export(&playerObject{log: mlog, ctl: ctl}, objectPath, playerInterface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("exporting player interface: %w", err)
	}

	props, err := prop.Export(conn, objectPath, propSpec(ctl, title))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("exporting properties: %w", err)
	}
	s.props = props

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("requesting bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("bus name %s already owned", busName)
	}

	mlog.Info("mpris server running", "name", busName)
	return s, nil
}

func propSpec(ctl Controller, title string) prop.Map {
	readonly := func(v interface{}) *prop.Prop {
		return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitTrue}
	}
	return prop.Map{
		rootInterface: {
			"CanQuit":             readonly(false),
			"CanRaise":            readonly(false),
			"HasTrackList":        readonly(false),
			"Identity":            readonly("Tessera"),
			"SupportedUriSchemes": readonly([]string{}),
			"SupportedMimeTypes":  readonly([]string{}),
		},
		playerInterface: {
			"PlaybackStatus": readonly(statusFor(ctl.Paused())),
			"LoopStatus":     readonly("None"),
			"Rate":           readonly(1.0),
			"MinimumRate":    readonly(1.0),
			"MaximumRate":    readonly(1.0),
			"Shuffle":        readonly(false),
			"Volume": {
				Value:    1.0,
				Writable: true,
				Emit:     prop.EmitTrue,
				Callback: func(c *prop.Change) *dbus.Error {
					if v, ok := c.Value.(float64); ok {
						ctl.SetVolume(v)
					}
					return nil
				},
			},
			"Position":      readonly(int64(0)),
			"Metadata":      readonly(metadataFor(title, ctl.Duration())),
			"CanGoNext":     readonly(false),
			"CanGoPrevious": readonly(false),
			"CanPlay":       readonly(true),
			"CanPause":      readonly(true),
			"CanSeek":       readonly(true),
			"CanControl":    readonly(true),
		},
	}
}

func statusFor(paused bool) string {
	if paused {
		return "Paused"
	}
	return "Playing"
}

func metadataFor(title string, duration time.Duration) map[string]dbus.Variant {
	trackID := dbus.ObjectPath(fmt.Sprintf("/org/tessera/track/pid%d/0", os.Getpid()))
	meta := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackID),
		"mpris:length":  dbus.MakeVariant(duration.Microseconds()),
	}
	if title != "" {
		meta["xesam:title"] = dbus.MakeVariant(filepath.Base(title))
		meta["xesam:url"] = dbus.MakeVariant(title)
	}
	return meta
}

// Publish pushes the current playback state to the bus. The player loop
// calls this when pause state or position changes.
func (s *Server) Publish() {
	s.props.SetMust(playerInterface, "PlaybackStatus", statusFor(s.ctl.Paused()))
	s.props.SetMust(playerInterface, "Position", s.ctl.Position().Microseconds())
}

// Seeked emits the MPRIS Seeked signal after a discontinuous position change.
func (s *Server) Seeked(position time.Duration) {
	err := s.conn.Emit(objectPath, playerInterface+".Seeked", position.Microseconds())
	if err != nil {
		s.log.Warn("emitting Seeked signal", "error", err)
	}
}

// Close releases the bus name and connection.
func (s *Server) Close() {
	if _, err := s.conn.ReleaseName(busName); err != nil {
		s.log.Warn("releasing bus name", "error", err)
	}
	s.conn.Close()
}
