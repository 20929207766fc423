// Package display shows daemon notifications on the desktop and reports
// when the user clicks them or they go away unclicked.
package display

// Notification is what the daemon asks the desktop to show.
type Notification struct {
	App      string
	Title    string
	Body     string
	Icon     []byte
	Priority int
	Sticky   bool
}

// EventKind is the user-visible outcome of a shown notification.
type EventKind int

const (
	Clicked EventKind = iota + 1
	TimedOut
)

func (k EventKind) String() string {
	switch k {
	case Clicked:
		return "clicked"
	case TimedOut:
		return "timed out"
	}
	return "unknown"
}

// Event reports the outcome of the notification Show returned id for.
type Event struct {
	ID   uint32
	Kind EventKind
}

// Display shows notifications. Events may be nil when the backend cannot
// report clicks.
type Display interface {
	Show(n Notification) (uint32, error)
	Events() <-chan Event
	Close() error
}

// Urgency levels per the freedesktop notification spec.
const (
	urgencyLow      byte = 0
	urgencyNormal   byte = 1
	urgencyCritical byte = 2
)

// urgency maps a growl priority onto a freedesktop urgency.
func urgency(priority int) byte {
	switch {
	case priority < 0:
		return urgencyLow
	case priority >= 2:
		return urgencyCritical
	}
	return urgencyNormal
}

// expireTimeout returns the freedesktop expire_timeout: 0 never expires,
// -1 is the server default.
func expireTimeout(sticky bool) int32 {
	if sticky {
		return 0
	}
	return -1
}

// Close reasons from org.freedesktop.Notifications.NotificationClosed.
const (
	closedExpired   uint32 = 1
	closedDismissed uint32 = 2
)

// closedEvent maps a close reason to an event. Closes requested through
// CloseNotification and undefined reasons report nothing.
func closedEvent(reason uint32) (EventKind, bool) {
	switch reason {
	case closedExpired, closedDismissed:
		return TimedOut, true
	}
	return 0, false
}
