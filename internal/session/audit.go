package session

import (
	"fitcoach/internal/logging"

	"go.uber.org/zap"
)

// Audit returns a listener that writes every event to the audit log under
// sessionID, then forwards it to next (which may be nil).
func Audit(sessionID string, next Listener) Listener {
	audit := logging.AuditWithSession(sessionID)
	return func(ev Event) {
		switch ev.Kind {
		case EventMessageAppended:
			audit.Event(logging.AuditMessage,
				zap.Int64("id", ev.Message.ID),
				zap.String("sender", string(ev.Message.Sender)),
				zap.Int64("reply_to", ev.ReplyTo),
				zap.Int("length", len(ev.Message.Text)))
		case EventTypingStarted:
			audit.Event(logging.AuditTypingStarted, zap.Int64("reply_to", ev.ReplyTo))
		case EventTypingStopped:
			audit.Event(logging.AuditTypingStopped, zap.Int64("reply_to", ev.ReplyTo))
		case EventSendRejected:
			audit.Event(logging.AuditSendRejected, zap.String("reason", ev.Reason))
		case EventAuthModeChanged:
			audit.Event(logging.AuditAuthMode, zap.Stringer("mode", ev.Mode))
		case EventLoggedIn:
			audit.Event(logging.AuditLogin, zap.Stringer("mode", ev.Mode), zap.String("user", ev.UserName))
		case EventLoggedOut:
			audit.Event(logging.AuditLogout, zap.String("user", ev.UserName))
			audit.Event(logging.AuditSessionReset)
		case EventValidationFailed:
			audit.Event(logging.AuditValidationFailed, zap.Stringer("mode", ev.Mode), zap.Error(ev.Err))
		}
		if next != nil {
			next(ev)
		}
	}
}
