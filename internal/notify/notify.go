// Package notify sends desktop notifications over the D-Bus session
// bus. Notifications are best-effort: a missing bus or daemon never
// fails the operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
	notifyMethod         = "org.freedesktop.Notifications.Notify"

	appName = "soundforge"
)

// Notifier sends notifications through org.freedesktop.Notifications.
type Notifier struct {
	enabled bool
	logger  *slog.Logger

	mu   sync.Mutex
	conn *dbus.Conn
}

// New creates a notifier. A disabled notifier never touches the bus.
func New(enabled bool, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{enabled: enabled, logger: logger}
}

// Send posts a notification with the given sound-name hint, so a
// desktop with the exported theme active rings the themed event.
// Failures degrade to debug logs.
func (n *Notifier) Send(ctx context.Context, summary, body, soundName string) {
	if !n.enabled {
		return
	}

	conn, err := n.connect()
	if err != nil {
		n.logger.Debug("notification skipped", "error", err)
		return
	}

	hints := map[string]dbus.Variant{}
	if soundName != "" {
		hints["sound-name"] = dbus.MakeVariant(soundName)
	}

	// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout)
	obj := conn.Object(notificationsService, notificationsPath)
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		appName, uint32(0), "", summary, body, []string{}, hints, int32(-1))
	if call.Err != nil {
		n.logger.Debug("failed to send notification", "error", call.Err)
		return
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		n.logger.Debug("unexpected Notify reply", "error", err)
		return
	}
	n.logger.Debug("notification sent", "id", id, "summary", summary, "sound", soundName)
}

// connect returns the cached session bus connection, dialing on first
// use.
func (n *Notifier) connect() (*dbus.Conn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn != nil {
		return n.conn, nil
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	n.conn = conn
	return conn, nil
}

// Close releases the bus connection.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}
