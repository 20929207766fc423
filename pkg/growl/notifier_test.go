package growl

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erikh/growl/pkg/bus"
)

const testPID = 4242

// recorder captures everything posted under the daemon-facing names.
type recorder struct {
	registrations []bus.UserInfo
	notifications []bus.UserInfo
}

func newTestNotifier(t *testing.T, opts ...Option) (*Notifier, *bus.Memory, *recorder) {
	t.Helper()

	b := bus.NewMemory()
	rec := &recorder{}
	_, err := b.Observe(RegistrationPost, func(m bus.Message) { rec.registrations = append(rec.registrations, m.UserInfo) })
	require.NoError(t, err)
	_, err = b.Observe(NotificationPost, func(m bus.Message) { rec.notifications = append(rec.notifications, m.UserInfo) })
	require.NoError(t, err)

	seq := 0
	opts = append([]Option{
		WithPID(testPID),
		WithIDGenerator(func() string { seq++; return "cb-" + strconv.Itoa(seq) }),
	}, opts...)

	n := New(b, opts...)
	t.Cleanup(n.Close)
	return n, b, rec
}

func clicked(ctx bus.UserInfo) bus.UserInfo {
	return bus.UserInfo{ClickedContextKey: ctx}
}

func TestRegisterDefaultsToNotifications(t *testing.T) {
	n, _, rec := newTestNotifier(t)

	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))

	require.Len(t, rec.registrations, 1)
	reg := rec.registrations[0]
	for _, key := range []string{KeyApplicationName, KeyApplicationIcon, KeyAllNotifications, KeyDefaultNotifications} {
		assert.Contains(t, reg, key)
	}
	assert.Equal(t, "FoodApp", reg.String(KeyApplicationName))
	assert.Equal(t, []string{"OrderReady"}, reg.Strings(KeyAllNotifications))
	assert.Equal(t, []string{"OrderReady"}, reg.Strings(KeyDefaultNotifications))
}

func TestRegisterExplicitDefaults(t *testing.T) {
	n, _, rec := newTestNotifier(t)

	require.NoError(t, n.Register("FoodApp", []string{"OrderReady", "OrderLate"}, []string{"OrderLate"}, ""))

	require.Len(t, rec.registrations, 1)
	assert.Equal(t, []string{"OrderLate"}, rec.registrations[0].Strings(KeyDefaultNotifications))
}

func TestRegisterKeepsEmptyDefaults(t *testing.T) {
	n, _, rec := newTestNotifier(t)

	require.NoError(t, n.Register("FoodApp", []string{"OrderReady", "OrderLate"}, []string{}, ""))

	require.Len(t, rec.registrations, 1)
	defaults, ok := rec.registrations[0][KeyDefaultNotifications]
	require.True(t, ok)
	assert.Empty(t, defaults)

	reg, ok := n.Registration()
	require.True(t, ok)
	assert.NotNil(t, reg.DefaultNotifications)
	assert.Empty(t, reg.DefaultNotifications)
}

func TestRegisterIcon(t *testing.T) {
	dir := t.TempDir()
	iconPath := filepath.Join(dir, "burger.png")
	require.NoError(t, os.WriteFile(iconPath, []byte("png-bytes"), 0o600))

	fallback := []byte("fallback")
	n, _, rec := newTestNotifier(t, WithDefaultIcon(fallback))

	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, iconPath))
	assert.Equal(t, []byte("png-bytes"), rec.registrations[0].Bytes(KeyApplicationIcon))

	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, filepath.Join(dir, "missing.png")))
	assert.Equal(t, fallback, rec.registrations[1].Bytes(KeyApplicationIcon))
}

func TestReadySignalResendsIdenticalRegistration(t *testing.T) {
	n, b, rec := newTestNotifier(t)

	require.NoError(t, n.Register("FoodApp", []string{"OrderReady", "OrderLate"}, []string{"OrderReady"}, ""))
	require.NoError(t, b.Post(ReadySignal, nil))
	require.NoError(t, b.Post(ReadySignal, nil))

	require.Len(t, rec.registrations, 3)
	assert.Equal(t, rec.registrations[0], rec.registrations[1])
	assert.Equal(t, rec.registrations[0], rec.registrations[2])
}

func TestReRegisterReplacesObservers(t *testing.T) {
	n, b, rec := newTestNotifier(t)

	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))
	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))

	assert.Equal(t, 1, b.Observers(ReadySignal))
	assert.Equal(t, 1, b.Observers(n.EventName(ClickedSignal)))

	require.NoError(t, b.Post(ReadySignal, nil))
	assert.Len(t, rec.registrations, 3)
}

func TestReRegisterDropsCallbacks(t *testing.T) {
	n, _, _ := newTestNotifier(t)

	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))
	n.Notify("OrderReady", "t", "d", WithCallback(func() {}))
	assert.Equal(t, 1, n.PendingCallbacks())

	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))
	assert.Equal(t, 0, n.PendingCallbacks())
}

func TestEventNames(t *testing.T) {
	n, _, _ := newTestNotifier(t)
	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))
	assert.Equal(t, "FoodApp-4242-GrowlClicked!", n.EventName(ClickedSignal))

	global, _, _ := newTestNotifier(t, WithNamespacedEvents(false))
	require.NoError(t, global.Register("FoodApp", []string{"OrderReady"}, nil, ""))
	assert.Equal(t, "GrowlTimedOut!", global.EventName(TimedOutSignal))
}

type failingBus struct {
	*bus.Memory
	observeErr error
}

func (f failingBus) Post(string, bus.UserInfo) error { return errors.New("bus down") }

func (f failingBus) Observe(name string, fn bus.Handler) (func(), error) {
	if f.observeErr != nil {
		return nil, f.observeErr
	}
	return f.Memory.Observe(name, fn)
}

func TestPostFailureIsSilent(t *testing.T) {
	stats := &countingStats{}
	n := New(failingBus{Memory: bus.NewMemory()}, WithStats(stats))

	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))
	n.Notify("OrderReady", "t", "d")

	assert.Equal(t, 2, stats.failures)
}

func TestRegisterSurfacesObserveFailure(t *testing.T) {
	n := New(failingBus{Memory: bus.NewMemory(), observeErr: errors.New("no match rule")})
	assert.Error(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))
}

type countingStats struct {
	posts    int
	failures int
	pending  int
	hits     map[string]int
}

func (s *countingStats) Posted(_ string, err error) {
	s.posts++
	if err != nil {
		s.failures++
	}
}

func (s *countingStats) PendingCallbacks(n int) { s.pending = n }

func (s *countingStats) Correlated(signal string, hit bool) {
	if s.hits == nil {
		s.hits = map[string]int{}
	}
	if hit {
		s.hits[signal]++
	}
}
