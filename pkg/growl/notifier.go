// Package growl registers an application with a Growl daemon, posts
// notifications to it over a bus, and routes clicked and timed-out events back
// to per-notification callbacks.
//
//	b, _ := dbusbus.Connect("")
//	n := growl.New(b)
//	_ = n.Register("FoodApp", []string{"OrderReady"}, nil, "burger.png")
//	n.Notify("OrderReady", "Order #42", "Ready for pickup",
//		growl.WithCallback(func() { fmt.Println("clicked") }))
package growl

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/erikh/growl/pkg/bus"
)

// Registration is the application identity sent to the daemon.
type Registration struct {
	ApplicationName      string
	ApplicationIcon      []byte
	Notifications        []string
	DefaultNotifications []string
}

// UserInfo returns the registration payload.
func (r Registration) UserInfo() bus.UserInfo {
	return bus.UserInfo{
		KeyApplicationName:      r.ApplicationName,
		KeyApplicationIcon:      r.ApplicationIcon,
		KeyAllNotifications:     r.Notifications,
		KeyDefaultNotifications: r.DefaultNotifications,
	}
}

// Stats receives counters from a Notifier.
type Stats interface {
	Posted(name string, err error)
	PendingCallbacks(n int)
	Correlated(signal string, hit bool)
}

type nopStats struct{}

func (nopStats) Posted(string, error)    {}
func (nopStats) PendingCallbacks(int)    {}
func (nopStats) Correlated(string, bool) {}

// Notifier is the client side of the protocol. It is safe for concurrent use;
// bus observers may call into it from transport goroutines.
type Notifier struct {
	bus            bus.Bus
	log            zerolog.Logger
	stats          Stats
	pid            int
	defaultIcon    []byte
	alwaysCallback bool
	namespaced     bool
	newID          func() string

	mu        sync.Mutex
	reg       *Registration
	callbacks map[string]func()
	delegate  Delegate
	cancels   []func()
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(n *Notifier) { n.log = l.With().Str("component", "growl").Logger() }
}

// WithStats sets the counter sink.
func WithStats(s Stats) Option {
	return func(n *Notifier) {
		if s != nil {
			n.stats = s
		}
	}
}

// WithPID overrides the process id embedded in payloads and event names.
func WithPID(pid int) Option {
	return func(n *Notifier) { n.pid = pid }
}

// WithDefaultIcon sets the icon registered when Register gets no usable icon path.
func WithDefaultIcon(icon []byte) Option {
	return func(n *Notifier) { n.defaultIcon = icon }
}

// WithAlwaysCallback makes every notification request clicked and timed-out
// events, so the delegate hears about notifications sent without a click
// context or callback.
func WithAlwaysCallback(always bool) Option {
	return func(n *Notifier) { n.alwaysCallback = always }
}

// WithNamespacedEvents controls whether clicked and timed-out events are
// observed under "{app}-{pid}-{signal}" (the default) or the bare signal name.
func WithNamespacedEvents(namespaced bool) Option {
	return func(n *Notifier) { n.namespaced = namespaced }
}

// WithIDGenerator replaces the callback token generator.
func WithIDGenerator(fn func() string) Option {
	return func(n *Notifier) { n.newID = fn }
}

// New returns a Notifier that talks over b.
func New(b bus.Bus, opts ...Option) *Notifier {
	n := &Notifier{
		bus:        b,
		log:        zerolog.Nop(),
		stats:      nopStats{},
		pid:        os.Getpid(),
		namespaced: true,
		newID:      uuid.NewString,
		callbacks:  map[string]func(){},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Register stores the application identity, subscribes to daemon events and
// sends the registration. A nil defaults falls back to notifications; an empty
// one registers with nothing enabled. An empty or unreadable iconPath falls
// back to the default icon.
//
// Registering again replaces the identity and drops pending callbacks.
func (n *Notifier) Register(appName string, notifications, defaults []string, iconPath string) error {
	if defaults == nil {
		defaults = notifications
	}

	reg := &Registration{
		ApplicationName:      appName,
		ApplicationIcon:      n.loadIcon(iconPath),
		Notifications:        slices.Clone(notifications),
		DefaultNotifications: slices.Clone(defaults),
	}

	n.mu.Lock()
	old := n.cancels
	n.cancels = nil
	n.reg = reg
	n.callbacks = map[string]func(){}
	n.mu.Unlock()

	for _, cancel := range old {
		cancel()
	}
	n.stats.PendingCallbacks(0)

	if err := n.observe(ReadySignal, n.onReady); err != nil {
		return err
	}
	if err := n.observe(n.EventName(ClickedSignal), n.onClicked); err != nil {
		return err
	}
	if err := n.observe(n.EventName(TimedOutSignal), n.onTimedOut); err != nil {
		return err
	}

	n.sendRegistration()
	return nil
}

// Registration returns a copy of the current registration, if any.
func (n *Notifier) Registration() (Registration, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.reg == nil {
		return Registration{}, false
	}
	return *n.reg, true
}

// EventName returns the bus name this notifier observes for a clicked or
// timed-out signal.
func (n *Notifier) EventName(signal string) string {
	if !n.namespaced {
		return signal
	}
	n.mu.Lock()
	app := ""
	if n.reg != nil {
		app = n.reg.ApplicationName
	}
	n.mu.Unlock()
	return EventName(app, n.pid, signal)
}

// EventName scopes a signal to one application process.
func EventName(app string, pid int, signal string) string {
	return fmt.Sprintf("%s-%d-%s", app, pid, signal)
}

// SetDelegate installs d, or removes the delegate when d is nil.
func (n *Notifier) SetDelegate(d Delegate) {
	n.mu.Lock()
	n.delegate = d
	n.mu.Unlock()
}

// PendingCallbacks reports how many callbacks are waiting for an event.
func (n *Notifier) PendingCallbacks() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.callbacks)
}

// Close stops observing the bus. Pending callbacks are dropped.
func (n *Notifier) Close() {
	n.mu.Lock()
	cancels := n.cancels
	n.cancels = nil
	n.callbacks = map[string]func(){}
	n.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	n.stats.PendingCallbacks(0)
}

func (n *Notifier) loadIcon(path string) []byte {
	if path == "" {
		return n.defaultIcon
	}
	data, err := os.ReadFile(path) //nolint:gosec // icon path supplied by the application
	if err != nil || len(data) == 0 {
		n.log.Debug().Err(err).Str("path", path).Msg("using default icon")
		return n.defaultIcon
	}
	return data
}

func (n *Notifier) observe(name string, fn bus.Handler) error {
	cancel, err := n.bus.Observe(name, fn)
	if err != nil {
		return fmt.Errorf("observing %q: %w", name, err)
	}
	n.mu.Lock()
	n.cancels = append(n.cancels, cancel)
	n.mu.Unlock()
	return nil
}

func (n *Notifier) sendRegistration() {
	reg, ok := n.Registration()
	if !ok {
		return
	}
	n.post(RegistrationPost, reg.UserInfo())
}

func (n *Notifier) post(name string, info bus.UserInfo) {
	err := n.bus.Post(name, info)
	n.stats.Posted(name, err)
	if err != nil {
		n.log.Warn().Err(err).Str("post", name).Msg("post failed")
	}
}

func (n *Notifier) onReady(bus.Message) {
	n.log.Debug().Msg("daemon ready, re-registering")
	n.sendRegistration()
}
