package display

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"
)

// dbusDisplay shows notifications via org.freedesktop.Notifications.
type dbusDisplay struct {
	conn   *dbus.Conn
	obj    dbus.BusObject
	log    zerolog.Logger
	signal chan *dbus.Signal
	events chan Event
	done   chan struct{}
}

// New connects to the session bus notification server.
func New(log zerolog.Logger) (Display, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbusNotifyPath),
		dbus.WithMatchInterface(dbusNotifyInterface),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to notification signals: %w", err)
	}

	d := &dbusDisplay{
		conn:   conn,
		obj:    conn.Object(dbusNotifyDest, dbusNotifyPath),
		log:    log.With().Str("component", "display").Logger(),
		signal: make(chan *dbus.Signal, 32),
		events: make(chan Event, 32),
		done:   make(chan struct{}),
	}
	conn.Signal(d.signal)
	go d.loop()

	return d, nil
}

// Show sends a notification via D-Bus.
func (d *dbusDisplay) Show(n Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgency(n.Priority)),
	}

	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout) -> id
	call := d.obj.Call(
		dbusNotifyInterface+".Notify",
		0,
		n.App,
		uint32(0),
		d.iconPath(n.Icon),
		n.Title,
		n.Body,
		[]string{"default", "Show"},
		hints,
		expireTimeout(n.Sticky),
	)
	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (d *dbusDisplay) Events() <-chan Event { return d.events }

func (d *dbusDisplay) Close() error {
	close(d.done)
	d.conn.RemoveSignal(d.signal)
	return d.conn.Close()
}

// iconPath caches icon bytes on disk since the server takes a path.
func (d *dbusDisplay) iconPath(icon []byte) string {
	if len(icon) == 0 {
		return ""
	}
	sum := sha256.Sum256(icon)
	p, err := xdg.CacheFile(filepath.Join("growl", "icons", hex.EncodeToString(sum[:8])))
	if err != nil {
		d.log.Debug().Err(err).Msg("no icon cache directory")
		return ""
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	if err := os.WriteFile(p, icon, 0o600); err != nil {
		d.log.Debug().Err(err).Str("path", p).Msg("caching icon")
		return ""
	}
	return p
}

func (d *dbusDisplay) loop() {
	for {
		select {
		case <-d.done:
			return
		case sig, ok := <-d.signal:
			if !ok {
				return
			}
			ev, ok := toEvent(sig)
			if !ok {
				continue
			}
			select {
			case d.events <- ev:
			default:
				d.log.Warn().Uint32("id", ev.ID).Msg("dropping notification event")
			}
		}
	}
}

func toEvent(sig *dbus.Signal) (Event, bool) {
	if len(sig.Body) < 2 {
		return Event{}, false
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return Event{}, false
	}

	switch sig.Name {
	case dbusNotifyInterface + ".ActionInvoked":
		return Event{ID: id, Kind: Clicked}, true
	case dbusNotifyInterface + ".NotificationClosed":
		reason, _ := sig.Body[1].(uint32)
		if kind, ok := closedEvent(reason); ok {
			return Event{ID: id, Kind: kind}, true
		}
	}
	return Event{}, false
}
