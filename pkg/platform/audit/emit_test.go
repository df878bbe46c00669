package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "civic/pkg/domain"
	"civic/pkg/requestcontext"
)

type captureEmitter struct {
	events []Event
}

func (c *captureEmitter) Emit(_ context.Context, e Event) error {
	c.events = append(c.events, e)
	return nil
}

func TestLogLiftsAttributesIntoEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	emitter := &captureEmitter{}

	citizen := id.NewUserID()
	supervisor := id.NewUserID()
	ctx := requestcontext.WithActor(context.Background(), supervisor, id.RoleSupervisor)
	ctx = requestcontext.WithRequestID(ctx, "req-7")

	Log(ctx, logger, emitter, EventComplaintReassigned,
		"user_id", citizen.String(),
		"subject", "complaint-1",
		"reason", "workload",
	)

	require.Len(t, emitter.events, 1)
	got := emitter.events[0]
	assert.Equal(t, citizen, got.UserID)
	assert.Equal(t, supervisor.String(), got.ActorID)
	assert.Equal(t, "complaint-1", got.Subject)
	assert.Equal(t, "workload", got.Reason)
	assert.Equal(t, "req-7", got.RequestID)
	assert.Equal(t, string(EventComplaintReassigned), got.Action)

	assert.Contains(t, buf.String(), `"log_type":"audit"`)
	assert.Contains(t, buf.String(), `"request_id":"req-7"`)
}

func TestLogWithoutEmitterOnlyLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	Log(context.Background(), logger, nil, EventLoginFailed, "reason", "bad password")
	assert.Contains(t, buf.String(), string(EventLoginFailed))
}
