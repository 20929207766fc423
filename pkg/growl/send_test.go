package growl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyMinimalPayload(t *testing.T) {
	n, _, rec := newTestNotifier(t)
	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))

	n.Notify("OrderReady", "Order #42", "Ready for pickup")

	require.Len(t, rec.notifications, 1)
	p := rec.notifications[0]
	assert.Equal(t, "FoodApp", p.String(KeyApplicationName))
	assert.Equal(t, "OrderReady", p.String(KeyNotificationName))
	assert.Equal(t, "Order #42", p.String(KeyNotificationTitle))
	assert.Equal(t, "Ready for pickup", p.String(KeyNotificationDescription))

	pid, _ := p.Int(KeyApplicationPID)
	assert.Equal(t, testPID, pid)
	prio, _ := p.Int(KeyNotificationPriority)
	assert.Equal(t, 0, prio)

	assert.NotContains(t, p, KeyNotificationSticky)
	assert.NotContains(t, p, KeyNotificationIcon)
	assert.NotContains(t, p, KeyNotificationClickContext)
}

func TestNotifyPriorityResolution(t *testing.T) {
	tests := []struct {
		name string
		opt  []NotifyOption
		want int
	}{
		{"named high", []NotifyOption{WithPriorityName("high")}, 1},
		{"named very_low", []NotifyOption{WithPriorityName("very_low")}, -2},
		{"unknown name", []NotifyOption{WithPriorityName("urgent")}, 0},
		{"raw integer", []NotifyOption{WithPriority(2)}, 2},
		{"constant", []NotifyOption{WithPriority(Moderate)}, -1},
		{"omitted", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _, rec := newTestNotifier(t)
			require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))

			n.Notify("OrderReady", "t", "d", tt.opt...)

			prio, ok := rec.notifications[0].Int(KeyNotificationPriority)
			require.True(t, ok)
			assert.Equal(t, tt.want, prio)
		})
	}
}

func TestLookupPriority(t *testing.T) {
	p, ok := LookupPriority("emergency")
	assert.True(t, ok)
	assert.Equal(t, Emergency, p)

	_, ok = LookupPriority("loud")
	assert.False(t, ok)
}

func TestNotifyStickyAndIcon(t *testing.T) {
	n, _, rec := newTestNotifier(t)
	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))

	n.Notify("OrderReady", "t", "d", WithSticky(), WithIcon([]byte("icon")))

	p := rec.notifications[0]
	sticky, ok := p.Int(KeyNotificationSticky)
	require.True(t, ok)
	assert.Equal(t, 1, sticky)
	assert.Equal(t, []byte("icon"), p.Bytes(KeyNotificationIcon))
}

func TestNotifyClickContext(t *testing.T) {
	n, _, rec := newTestNotifier(t)
	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))

	n.Notify("OrderReady", "t", "d", WithClickContext("order-42"))

	ctx, ok := rec.notifications[0].Dict(KeyNotificationClickContext)
	require.True(t, ok)
	assert.Equal(t, "order-42", ctx.String(ContextUserKey))
	assert.NotContains(t, ctx, ContextCallbackKey)
	assert.Equal(t, 0, n.PendingCallbacks())
}

func TestNotifyCallbackEmbedsID(t *testing.T) {
	n, _, rec := newTestNotifier(t)
	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))

	n.Notify("OrderReady", "t", "d", WithCallback(func() {}))
	n.Notify("OrderReady", "t", "d", WithCallback(func() {}))

	first, ok := rec.notifications[0].Dict(KeyNotificationClickContext)
	require.True(t, ok)
	second, ok := rec.notifications[1].Dict(KeyNotificationClickContext)
	require.True(t, ok)

	assert.Equal(t, "cb-1", first.String(ContextCallbackKey))
	assert.Equal(t, "cb-2", second.String(ContextCallbackKey))
	assert.NotContains(t, first, ContextUserKey)
	assert.Equal(t, 2, n.PendingCallbacks())
}

func TestNotifyAlwaysCallback(t *testing.T) {
	n, _, rec := newTestNotifier(t, WithAlwaysCallback(true))
	require.NoError(t, n.Register("FoodApp", []string{"OrderReady"}, nil, ""))

	n.Notify("OrderReady", "t", "d")

	ctx, ok := rec.notifications[0].Dict(KeyNotificationClickContext)
	require.True(t, ok)
	assert.Empty(t, ctx)
}

func TestNotifyDefaultIDsAreUnique(t *testing.T) {
	n := New(nil)
	a := n.storeCallback(func() {})
	b := n.storeCallback(func() {})
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
