package growl

import "github.com/erikh/growl/pkg/bus"

func (n *Notifier) storeCallback(fn func()) string {
	id := n.newID()

	n.mu.Lock()
	n.callbacks[id] = fn
	pending := len(n.callbacks)
	n.mu.Unlock()

	n.stats.PendingCallbacks(pending)
	return id
}

// takeCallback removes and returns the callback for id. Lookup and removal
// happen under one lock so concurrent events cannot both claim it.
func (n *Notifier) takeCallback(id string) func() {
	n.mu.Lock()
	fn, ok := n.callbacks[id]
	delete(n.callbacks, id)
	pending := len(n.callbacks)
	n.mu.Unlock()

	if ok {
		n.stats.PendingCallbacks(pending)
	}
	return fn
}

func (n *Notifier) currentDelegate() Delegate {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.delegate
}

// clickContext pulls the user context and callback id out of an event.
func clickContext(info bus.UserInfo) (userContext, callbackID string) {
	ctx, ok := info.Dict(ClickedContextKey)
	if !ok {
		return "", ""
	}
	return ctx.String(ContextUserKey), ctx.String(ContextCallbackKey)
}

func (n *Notifier) onClicked(msg bus.Message) {
	userContext, id := clickContext(msg.UserInfo)
	if id != "" {
		fn := n.takeCallback(id)
		n.stats.Correlated(ClickedSignal, fn != nil)
		if fn != nil {
			fn()
		} else {
			n.log.Debug().Str("callback", id).Msg("clicked event for unknown callback")
		}
	}

	if d := n.currentDelegate(); d != nil {
		d.NotificationClicked(n, userContext)
	}
}

func (n *Notifier) onTimedOut(msg bus.Message) {
	userContext, id := clickContext(msg.UserInfo)
	if id != "" {
		fn := n.takeCallback(id)
		n.stats.Correlated(TimedOutSignal, fn != nil)
	}

	if d := n.currentDelegate(); d != nil {
		d.NotificationTimedOut(n, userContext)
	}
}
