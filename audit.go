package authkit

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/deskforge/authkit/internal/audit"
)

// AuditEvent is a structured audit record emitted by the gateway.
type AuditEvent = internalaudit.Event

// AuditSink receives AuditEvent values from the gateway's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an AuditSink that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based AuditSink.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes JSON-encoded events, one per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a JSONWriterSink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Audit event types emitted by the gateway.
const (
	EventLoginSuccess   = "auth.login.success"
	EventLoginFailure   = "auth.login.failure"
	EventRefreshSuccess = "auth.refresh.success"
	EventRefreshFailure = "auth.refresh.failure"
	EventSessionEvicted = "session.evicted"
	EventSessionPruned  = "session.pruned"
	EventSessionRevoked = "session.revoked"
	EventLogout         = "auth.logout"
	EventLogoutAll      = "auth.logout.all"
)

func (g *Gateway) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	principalID, sessionID, ip string,
	cause error,
	metadata map[string]string,
) {
	if g.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp:   time.Now(),
		EventType:   eventType,
		PrincipalID: principalID,
		SessionID:   sessionID,
		IP:          ip,
		Success:     success,
		Metadata:    metadata,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	g.audit.Emit(ctx, event)
}
