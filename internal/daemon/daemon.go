// Package daemon is a minimal Growl-compatible daemon: it accepts
// registrations and notifications from the bus, shows them through a
// display, and posts clicked and timed-out events back to the sender.
package daemon

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/erikh/growl/internal/display"
	"github.com/erikh/growl/pkg/bus"
	"github.com/erikh/growl/pkg/growl"
)

// Recorder receives daemon counters.
type Recorder interface {
	Displayed(app string)
	Emitted(signal string)
}

type nopRecorder struct{}

func (nopRecorder) Displayed(string) {}
func (nopRecorder) Emitted(string)   {}

type application struct {
	icon    []byte
	all     []string
	enabled []string
}

// pending is a shown notification that asked for click feedback.
type pending struct {
	app     string
	pid     int
	context bus.UserInfo
}

// Daemon routes bus traffic to a Display and display outcomes back to the bus.
type Daemon struct {
	bus     bus.Bus
	display display.Display
	log     zerolog.Logger
	stats   Recorder

	// showing is held from Show until a pending entry is stored, so an
	// outcome reported before Show returns still finds its notification.
	showing sync.Mutex

	mu      sync.Mutex
	apps    map[string]application
	pending map[uint32]pending
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Daemon) { d.log = l.With().Str("component", "daemon").Logger() }
}

// WithRecorder sets the counter sink.
func WithRecorder(r Recorder) Option {
	return func(d *Daemon) {
		if r != nil {
			d.stats = r
		}
	}
}

// New returns a Daemon serving b and showing notifications on disp.
func New(b bus.Bus, disp display.Display, opts ...Option) *Daemon {
	d := &Daemon{
		bus:     b,
		display: disp,
		log:     zerolog.Nop(),
		stats:   nopRecorder{},
		apps:    map[string]application{},
		pending: map[uint32]pending{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run serves until ctx is cancelled. On start it posts the readiness signal
// so clients that registered before the daemon came up register again.
func (d *Daemon) Run(ctx context.Context) error {
	cancelReg, err := d.bus.Observe(growl.RegistrationPost, d.handleRegistration)
	if err != nil {
		return fmt.Errorf("observing registrations: %w", err)
	}
	defer cancelReg()

	cancelNote, err := d.bus.Observe(growl.NotificationPost, d.handleNotification)
	if err != nil {
		return fmt.Errorf("observing notifications: %w", err)
	}
	defer cancelNote()

	if err := d.bus.Post(growl.ReadySignal, bus.UserInfo{}); err != nil {
		d.log.Warn().Err(err).Msg("announcing readiness")
	}
	d.log.Info().Msg("daemon ready")

	events := d.display.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			d.handleEvent(ev)
		}
	}
}

// Registered reports whether app has registered.
func (d *Daemon) Registered(app string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.apps[app]
	return ok
}

func (d *Daemon) handleRegistration(msg bus.Message) {
	name := msg.UserInfo.String(growl.KeyApplicationName)
	if name == "" {
		d.log.Debug().Msg("ignoring registration without application name")
		return
	}

	all := msg.UserInfo.Strings(growl.KeyAllNotifications)
	enabled := all
	if _, ok := msg.UserInfo[growl.KeyDefaultNotifications]; ok {
		enabled = msg.UserInfo.Strings(growl.KeyDefaultNotifications)
	}

	d.mu.Lock()
	d.apps[name] = application{
		icon:    msg.UserInfo.Bytes(growl.KeyApplicationIcon),
		all:     all,
		enabled: enabled,
	}
	d.mu.Unlock()

	d.log.Info().Str("app", name).Strs("notifications", all).Msg("registered")
}

func (d *Daemon) handleNotification(msg bus.Message) {
	info := msg.UserInfo
	appName := info.String(growl.KeyApplicationName)
	name := info.String(growl.KeyNotificationName)

	d.mu.Lock()
	app, ok := d.apps[appName]
	d.mu.Unlock()

	log := d.log.With().Str("app", appName).Str("notification", name).Logger()
	if !ok {
		log.Debug().Msg("dropping notification from unregistered application")
		return
	}
	if !slices.Contains(app.enabled, name) {
		log.Debug().Msg("dropping disabled notification")
		return
	}

	icon := info.Bytes(growl.KeyNotificationIcon)
	if icon == nil {
		icon = app.icon
	}
	priority, _ := info.Int(growl.KeyNotificationPriority)
	sticky, _ := info.Int(growl.KeyNotificationSticky)
	ctx, wantsEvents := info.Dict(growl.KeyNotificationClickContext)
	pid, _ := info.Int(growl.KeyApplicationPID)

	if wantsEvents {
		d.showing.Lock()
		defer d.showing.Unlock()
	}

	id, err := d.display.Show(display.Notification{
		App:      appName,
		Title:    info.String(growl.KeyNotificationTitle),
		Body:     info.String(growl.KeyNotificationDescription),
		Icon:     icon,
		Priority: priority,
		Sticky:   sticky != 0,
	})
	if err != nil {
		log.Warn().Err(err).Msg("showing notification")
		return
	}
	d.stats.Displayed(appName)

	if !wantsEvents {
		return
	}
	d.mu.Lock()
	d.pending[id] = pending{app: appName, pid: pid, context: ctx}
	d.mu.Unlock()
}

// handleEvent posts the first outcome reported for a notification; later
// ones (a close after a click) are ignored.
func (d *Daemon) handleEvent(ev display.Event) {
	d.showing.Lock()
	d.showing.Unlock() //nolint:staticcheck // waits for an in-flight Show

	d.mu.Lock()
	p, ok := d.pending[ev.ID]
	delete(d.pending, ev.ID)
	d.mu.Unlock()

	if !ok {
		return
	}

	signal := growl.TimedOutSignal
	if ev.Kind == display.Clicked {
		signal = growl.ClickedSignal
	}

	info := bus.UserInfo{growl.ClickedContextKey: p.context}
	for _, name := range []string{growl.EventName(p.app, p.pid, signal), signal} {
		if err := d.bus.Post(name, info); err != nil {
			d.log.Warn().Err(err).Str("post", name).Msg("posting event")
		}
	}
	d.stats.Emitted(signal)
	d.log.Debug().Str("app", p.app).Stringer("event", ev.Kind).Msg("notification finished")
}
