package console

import (
	"go.uber.org/zap"

	"github.com/jjudge-oj/useradmin/internal/metrics"
)

// Operator-facing messages.
const (
	MsgLoadFailed   = "Failed to load users."
	MsgUpdated      = "User updated successfully!"
	MsgUpdateFailed = "Failed to update user."
	MsgDeleted      = "User deleted successfully!"
	MsgDeleteFailed = "Failed to delete user."
)

// Notifier delivers operator notifications. Implementations must not call
// back into the Console.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind NoticeKind, message string)

func (f NotifierFunc) Notify(kind NoticeKind, message string) { f(kind, message) }

// Notifiers fans a notification out to every non-nil notifier.
func Notifiers(notifiers ...Notifier) Notifier {
	var out multiNotifier
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(kind NoticeKind, message string) {
	for _, n := range m {
		n.Notify(kind, message)
	}
}

// LogNotifier writes notifications to a zap logger.
func LogNotifier(logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NotifierFunc(func(kind NoticeKind, message string) {
		if kind == NoticeError {
			logger.Warn("operator notified", zap.String("kind", string(kind)), zap.String("message", message))
			return
		}
		logger.Info("operator notified", zap.String("kind", string(kind)), zap.String("message", message))
	})
}

// MetricsNotifier counts notifications by kind.
func MetricsNotifier(collector *metrics.Collector) Notifier {
	return NotifierFunc(func(kind NoticeKind, _ string) {
		collector.Notified(string(kind))
	})
}
