// Package dbusbus carries bus messages as broadcast signals on a D-Bus
// connection, which makes every growl client and daemon on the same session
// bus see the same distributed notifications.
package dbusbus

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/erikh/growl/pkg/bus"
)

// Every post is emitted as Interface.Member on Path with body
// (name string, userInfo a{sv}).
const (
	Path      = dbus.ObjectPath("/org/growl/Distributed")
	Interface = "org.growl.Distributed"
	Member    = "Post"
)

// Bus implements bus.Bus over a D-Bus connection.
type Bus struct {
	conn   *dbus.Conn
	owned  bool
	log    zerolog.Logger
	signal chan *dbus.Signal
	done   chan struct{}

	mu       sync.Mutex
	handlers map[string]map[uint64]bus.Handler
	seq      uint64
	closed   bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for dropped or malformed signals.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bus) { b.log = l.With().Str("component", "dbusbus").Logger() }
}

// Connect opens a private connection to the session bus, or to address when
// it is not empty.
func Connect(address string, opts ...Option) (*Bus, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	if address == "" {
		conn, err = dbus.ConnectSessionBus()
	} else {
		conn, err = dbus.Connect(address)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}

	b, err := New(conn, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	b.owned = true
	return b, nil
}

// New wraps an existing connection. The caller keeps ownership of conn.
func New(conn *dbus.Conn, opts ...Option) (*Bus, error) {
	b := &Bus{
		conn:     conn,
		log:      zerolog.Nop(),
		signal:   make(chan *dbus.Signal, 64),
		done:     make(chan struct{}),
		handlers: map[string]map[uint64]bus.Handler{},
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember(Member),
	); err != nil {
		return nil, fmt.Errorf("adding signal match: %w", err)
	}

	conn.Signal(b.signal)
	go b.loop()

	return b, nil
}

// Post emits one broadcast signal.
func (b *Bus) Post(name string, info bus.UserInfo) error {
	payload, err := encodeInfo(info)
	if err != nil {
		return fmt.Errorf("posting %q: %w", name, err)
	}
	if err := b.conn.Emit(Path, Interface+"."+Member, name, payload); err != nil {
		return fmt.Errorf("posting %q: %w", name, err)
	}
	return nil
}

// Observe registers fn for signals carrying name. Handlers run on the
// connection's dispatch goroutine, one at a time.
func (b *Bus) Observe(name string, fn bus.Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("observing %q: bus closed", name)
	}

	b.seq++
	id := b.seq
	if b.handlers[name] == nil {
		b.handlers[name] = map[uint64]bus.Handler{}
	}
	b.handlers[name][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers[name], id)
			if len(b.handlers[name]) == 0 {
				delete(b.handlers, name)
			}
			b.mu.Unlock()
		})
	}, nil
}

// Close stops dispatch and, for buses created by Connect, closes the
// connection.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.conn.RemoveSignal(b.signal)
	_ = b.conn.RemoveMatchSignal(
		dbus.WithMatchObjectPath(Path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchMember(Member),
	)
	close(b.done)

	if b.owned {
		return b.conn.Close()
	}
	return nil
}

func (b *Bus) loop() {
	for {
		select {
		case <-b.done:
			return
		case sig, ok := <-b.signal:
			if !ok {
				return
			}
			b.dispatch(sig)
		}
	}
}

func (b *Bus) dispatch(sig *dbus.Signal) {
	msg, ok := decodeSignal(sig)
	if !ok {
		if sig != nil && sig.Path == Path {
			b.log.Debug().Str("member", sig.Name).Msg("ignoring malformed signal")
		}
		return
	}

	b.mu.Lock()
	handlers := make([]bus.Handler, 0, len(b.handlers[msg.Name]))
	for _, h := range b.handlers[msg.Name] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}
