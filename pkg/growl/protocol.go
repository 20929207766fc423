package growl

// Names posted and observed on the bus. These must match the daemon exactly.
const (
	ReadySignal    = "Lend Me Some Sugar; I Am Your Neighbor!"
	ClickedSignal  = "GrowlClicked!"
	TimedOutSignal = "GrowlTimedOut!"

	RegistrationPost = "GrowlApplicationRegistrationNotification"
	NotificationPost = "GrowlNotification"
)

// ClickedContextKey holds the click context in clicked and timed-out events.
const ClickedContextKey = "ClickedContext"

// Registration payload keys.
const (
	KeyApplicationName      = "ApplicationName"
	KeyApplicationIcon      = "ApplicationIcon"
	KeyAllNotifications     = "AllNotifications"
	KeyDefaultNotifications = "DefaultNotifications"
)

// Notification payload keys.
const (
	KeyApplicationPID           = "ApplicationPID"
	KeyNotificationName         = "NotificationName"
	KeyNotificationTitle        = "NotificationTitle"
	KeyNotificationDescription  = "NotificationDescription"
	KeyNotificationPriority     = "NotificationPriority"
	KeyNotificationIcon         = "NotificationIcon"
	KeyNotificationSticky       = "NotificationSticky"
	KeyNotificationClickContext = "NotificationClickContext"
)

// Keys inside the click context dictionary.
const (
	ContextUserKey     = "user_click_context"
	ContextCallbackKey = "callback_object_id"
)
