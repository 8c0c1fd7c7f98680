package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName      = "org.freedesktop.Notifications"
	notificationsPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsInterface = "org.freedesktop.Notifications"
)

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// Notification is a desktop notification about orientprompt itself.
type Notification struct {
	Summary string
	Body    string
	Icon    string
	Urgency byte
}

// Sender delivers a notification to the desktop.
type Sender func(n Notification) error

// InternalNotifier reports problems the user cannot see in the prompt.
// Repeats of the same key are rate limited.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	send   Sender

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	now            func() time.Time
}

// NewInternalNotifier creates a notifier. A nil sender drops notifications.
func NewInternalNotifier(send Sender, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		send:           send,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    30 * time.Second,
		now:            time.Now,
	}
}

// SetMinInterval sets the minimum interval between notifications with the same key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless key was used within the minimum interval.
// It reports whether the notification was sent.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.send == nil {
		return false
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.logger.Debug("internal notification rate-limited", "key", key)
		return false
	}
	n.lastNotifyTime[key] = now

	notification := Notification{
		Summary: summary,
		Body:    body,
	}
	switch level {
	case NotificationLevelInfo:
		notification.Urgency = 0
		notification.Icon = "dialog-information"
	case NotificationLevelWarning:
		notification.Urgency = 1
		notification.Icon = "dialog-warning"
	default:
		notification.Urgency = 2
		notification.Icon = "dialog-error"
	}

	if err := n.send(notification); err != nil {
		n.logger.Debug("failed to send internal notification", "key", key, "error", err)
		return false
	}
	return true
}

// NotifyConfigError reports a config file that failed to reload.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyRotateError reports a transform that wlr-randr refused.
func (n *InternalNotifier) NotifyRotateError(output string, err error) {
	n.Notify(
		"rotate-error",
		"Rotation Failed",
		fmt.Sprintf("Could not rotate %s: %v", output, err),
		NotificationLevelError,
	)
}

// SessionSender sends notifications through the session bus
// notification service.
func SessionSender(appName string) Sender {
	return func(n Notification) error {
		conn, err := dbus.SessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}

		hints := map[string]dbus.Variant{
			"urgency":   dbus.MakeVariant(n.Urgency),
			"category":  dbus.MakeVariant("device"),
			"transient": dbus.MakeVariant(true),
		}

		obj := conn.Object(notificationsName, notificationsPath)
		call := obj.Call(notificationsInterface+".Notify", 0,
			appName, uint32(0), n.Icon, n.Summary, n.Body,
			[]string{}, hints, int32(5000))
		if call.Err != nil {
			return fmt.Errorf("failed to send notification: %w", call.Err)
		}
		return nil
	}
}
