// Package desktop integrates with the XDG desktop portal. During playback
// it holds an idle inhibitor so the screen does not blank mid-movie; the
// inhibitor is released on pause and on shutdown. Like the rest of the
// desktop integration this is best effort and never fatal.
package desktop

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	portalName    = "org.freedesktop.portal.Desktop"
	portalPath    = dbus.ObjectPath("/org/freedesktop/portal/desktop")
	inhibitIface  = "org.freedesktop.portal.Inhibit"
	requestIface  = "org.freedesktop.portal.Request"
	inhibitIdle   = uint32(8)
)

// Inhibitor manages a single portal idle-inhibit request.
type Inhibitor struct {
	log    *slog.Logger
	conn   *dbus.Conn
	handle dbus.ObjectPath
}

// NewInhibitor connects to the session bus. The inhibitor starts released.
func NewInhibitor(log *slog.Logger) (*Inhibitor, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	return &Inhibitor{
		log:  log.With("component", "desktop"),
		conn: conn,
	}, nil
}

// Inhibit asks the portal to suppress idle with the given reason. Calling
// it while already held is a no-op.
func (i *Inhibitor) Inhibit(reason string) {
	if i.handle != "" {
		return
	}

	options := map[string]dbus.Variant{
		"reason": dbus.MakeVariant(reason),
	}
	obj := i.conn.Object(portalName, portalPath)
	call := obj.Call(inhibitIface+".Inhibit", 0, "", inhibitIdle, options)
	if call.Err != nil {
		i.log.Warn("idle inhibit request failed", "error", call.Err)
		return
	}
	if err := call.Store(&i.handle); err != nil {
		i.log.Warn("idle inhibit reply malformed", "error", err)
		return
	}
	i.log.Debug("idle inhibited", "handle", i.handle)
}

// Release drops the inhibit if held.
func (i *Inhibitor) Release() {
	if i.handle == "" {
		return
	}
	obj := i.conn.Object(portalName, i.handle)
	if call := obj.Call(requestIface+".Close", 0); call.Err != nil {
		i.log.Warn("idle inhibit release failed", "error", call.Err)
	}
	i.handle = ""
}

// Close releases any held inhibit and the bus connection.
func (i *Inhibitor) Close() {
	i.Release()
	i.conn.Close()
}
