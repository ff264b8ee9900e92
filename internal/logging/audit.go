package logging

import (
	"go.uber.org/zap"
)

// AuditEventType names a structured session event written to the audit log.
type AuditEventType string

const (
	// Session lifecycle
	AuditSessionStart AuditEventType = "session_start"
	AuditSessionEnd   AuditEventType = "session_end"
	AuditSessionReset AuditEventType = "session_reset"

	// Conversation
	AuditMessage       AuditEventType = "message_appended"
	AuditTypingStarted AuditEventType = "typing_started"
	AuditTypingStopped AuditEventType = "typing_stopped"
	AuditSendRejected  AuditEventType = "send_rejected"

	// Mock auth
	AuditAuthMode         AuditEventType = "auth_mode_changed"
	AuditLogin            AuditEventType = "logged_in"
	AuditLogout           AuditEventType = "logged_out"
	AuditValidationFailed AuditEventType = "validation_failed"

	// Config
	AuditConfigReload AuditEventType = "config_reload"
)

// AuditLogger writes structured audit entries scoped to a session.
type AuditLogger struct {
	sessionID string
}

// AuditWithSession creates an audit logger scoped to a session.
func AuditWithSession(sessionID string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID}
}

// Event writes one audit entry. fields are zap key/value pairs. No-op unless
// the audit category is enabled.
func (a *AuditLogger) Event(eventType AuditEventType, fields ...zap.Field) {
	if !IsCategoryEnabled(CategoryAudit) {
		return
	}
	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, zap.String("event", string(eventType)))
	if a.sessionID != "" {
		all = append(all, zap.String("session", a.sessionID))
	}
	all = append(all, fields...)
	Get(CategoryAudit).Zap().Info(string(eventType), all...)
}
