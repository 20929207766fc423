package growl

// Delegate receives clicked and timed-out events for this application.
// userContext is the click context passed to Notify, or "" when the
// notification carried none.
type Delegate interface {
	NotificationClicked(n *Notifier, userContext string)
	NotificationTimedOut(n *Notifier, userContext string)
}

// DelegateFuncs adapts a pair of functions to Delegate. Nil fields are skipped.
type DelegateFuncs struct {
	Clicked  func(n *Notifier, userContext string)
	TimedOut func(n *Notifier, userContext string)
}

func (d DelegateFuncs) NotificationClicked(n *Notifier, userContext string) {
	if d.Clicked != nil {
		d.Clicked(n, userContext)
	}
}

func (d DelegateFuncs) NotificationTimedOut(n *Notifier, userContext string) {
	if d.TimedOut != nil {
		d.TimedOut(n, userContext)
	}
}
