package audit

import (
	"context"
	"log/slog"

	id "civic/pkg/domain"
	"civic/pkg/requestcontext"
)

// Emitter accepts audit events. The publisher satisfies it.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Log writes an audit line through logger and, when emitter is set, records
// the event. attributes are slog key/value pairs; "user_id", "subject" and
// "reason" string values are lifted into the event.
func Log(ctx context.Context, logger *slog.Logger, emitter Emitter, event AuditEvent, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if logger != nil {
		args := append(attributes, "event", string(event), "log_type", "audit")
		logger.InfoContext(ctx, string(event), args...)
	}
	if emitter == nil {
		return
	}

	userID, _ := id.ParseUserID(stringAttr(attributes, "user_id"))
	actor := requestcontext.UserID(ctx)
	actorID := ""
	if !actor.IsNil() && actor != userID {
		actorID = actor.String()
	}
	_ = emitter.Emit(ctx, Event{
		UserID:    userID,
		ActorID:   actorID,
		Subject:   stringAttr(attributes, "subject"),
		Action:    string(event),
		Reason:    stringAttr(attributes, "reason"),
		RequestID: requestID,
	})
}

// stringAttr returns the string value paired with key in a slog key/value
// list, or "".
func stringAttr(kv []any, key string) string {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == key {
			v, _ := kv[i+1].(string)
			return v
		}
	}
	return ""
}
