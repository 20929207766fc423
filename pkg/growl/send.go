package growl

import "github.com/erikh/growl/pkg/bus"

type notification struct {
	priority     Priority
	sticky       bool
	icon         []byte
	clickContext *string
	callback     func()
}

// NotifyOption sets an optional field of one notification.
type NotifyOption func(*notification)

// WithPriority sets the priority. Default Normal.
func WithPriority(p Priority) NotifyOption {
	return func(o *notification) { o.priority = p }
}

// WithPriorityName sets the priority by name; see ParsePriority.
func WithPriorityName(name string) NotifyOption {
	return WithPriority(ParsePriority(name))
}

// WithSticky keeps the notification on screen until dismissed.
func WithSticky() NotifyOption {
	return func(o *notification) { o.sticky = true }
}

// WithIcon overrides the registered application icon.
func WithIcon(icon []byte) NotifyOption {
	return func(o *notification) { o.icon = icon }
}

// WithClickContext attaches an opaque string returned to the delegate on
// click or time-out.
func WithClickContext(ctx string) NotifyOption {
	return func(o *notification) { o.clickContext = &ctx }
}

// WithCallback runs fn once if the notification is clicked. A time-out drops
// fn without running it.
func WithCallback(fn func()) NotifyOption {
	return func(o *notification) { o.callback = fn }
}

// Notify posts a notification. name should be one of the registered
// notification names; the daemon ignores anything else. Nothing is returned
// because the bus has no acknowledgement for notifications.
func (n *Notifier) Notify(name, title, description string, opts ...NotifyOption) {
	var o notification
	for _, opt := range opts {
		opt(&o)
	}

	n.post(NotificationPost, n.payload(name, title, description, o))
}

func (n *Notifier) payload(name, title, description string, o notification) bus.UserInfo {
	n.mu.Lock()
	app := ""
	if n.reg != nil {
		app = n.reg.ApplicationName
	}
	n.mu.Unlock()

	info := bus.UserInfo{
		KeyApplicationName:         app,
		KeyApplicationPID:          n.pid,
		KeyNotificationName:        name,
		KeyNotificationTitle:       title,
		KeyNotificationDescription: description,
		KeyNotificationPriority:    int(o.priority),
	}
	if o.icon != nil {
		info[KeyNotificationIcon] = o.icon
	}
	if o.sticky {
		info[KeyNotificationSticky] = 1
	}

	ctx := bus.UserInfo{}
	if o.clickContext != nil {
		ctx[ContextUserKey] = *o.clickContext
	}
	if o.callback != nil {
		ctx[ContextCallbackKey] = n.storeCallback(o.callback)
	}
	if n.alwaysCallback || len(ctx) > 0 {
		info[KeyNotificationClickContext] = ctx
	}

	return info
}
