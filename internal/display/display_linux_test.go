//go:build linux

package display

import (
	"os"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

func TestToEvent(t *testing.T) {
	tests := []struct {
		name   string
		sig    *dbus.Signal
		want   Event
		wantOK bool
	}{
		{"action", &dbus.Signal{Name: dbusNotifyInterface + ".ActionInvoked", Body: []any{uint32(7), "default"}}, Event{ID: 7, Kind: Clicked}, true},
		{"expired", &dbus.Signal{Name: dbusNotifyInterface + ".NotificationClosed", Body: []any{uint32(8), uint32(1)}}, Event{ID: 8, Kind: TimedOut}, true},
		{"closed by call", &dbus.Signal{Name: dbusNotifyInterface + ".NotificationClosed", Body: []any{uint32(9), uint32(3)}}, Event{}, false},
		{"short body", &dbus.Signal{Name: dbusNotifyInterface + ".ActionInvoked", Body: []any{uint32(1)}}, Event{}, false},
		{"other member", &dbus.Signal{Name: dbusNotifyInterface + ".ActivationToken", Body: []any{uint32(1), "tok"}}, Event{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toEvent(tt.sig)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("toEvent = %+v, %v; want %+v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestShowSendsNotification(t *testing.T) {
	// Skip if no D-Bus session (CI environment)
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no D-Bus session available")
	}

	d, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer d.Close()

	id, err := d.Show(Notification{App: "growl-test", Title: "Growl Test", Body: "from unit test"})
	if err != nil {
		t.Fatalf("Show() error: %v", err)
	}
	if id == 0 {
		t.Error("Show() returned id=0, expected non-zero")
	}
}
