package trace

import (
	"strconv"

	"i4.energy/across/headsetctl/logger"
)

// LogTracer writes events to a logger at debug level.
type LogTracer struct {
	logger logger.Logger
}

// NewLogTracer creates a LogTracer.
func NewLogTracer(l logger.Logger) *LogTracer {
	return &LogTracer{logger: l}
}

// Trace logs the event under the message "protocol".
func (t *LogTracer) Trace(event Event) {
	t.logger.Debug("protocol", Fields(event)...)
}

var _ Tracer = (*LogTracer)(nil)

// Fields flattens an event into logger key/value pairs.
func Fields(event Event) []any {
	kv := []any{
		"conn_id", event.ConnectionID,
		"direction", event.Direction.String(),
		"category", event.Category.String(),
	}
	if event.Device != "" {
		kv = append(kv, "device", event.Device)
	}

	switch {
	case event.Frame != nil:
		kv = append(kv,
			"frame_size", event.Frame.Size,
			"data", strconv.Quote(string(event.Frame.Data)),
		)
		if event.Frame.Truncated {
			kv = append(kv, "truncated", true)
		}
	case event.Exchange != nil:
		kv = append(kv,
			"command", event.Exchange.Command,
			"final", event.Exchange.Final,
			"duration", event.Exchange.Duration,
		)
		if event.Exchange.Err != "" {
			kv = append(kv, "error", event.Exchange.Err)
		}
	case event.Notification != nil:
		kv = append(kv,
			"topic", event.Notification.Topic,
			"enabled", event.Notification.Enabled,
		)
	case event.StateChange != nil:
		kv = append(kv,
			"entity", event.StateChange.Entity.String(),
			"old_state", event.StateChange.OldState,
			"new_state", event.StateChange.NewState,
		)
		if event.StateChange.Reason != "" {
			kv = append(kv, "reason", event.StateChange.Reason)
		}
	case event.Error != nil:
		kv = append(kv,
			"error_msg", event.Error.Message,
			"error_context", event.Error.Context,
		)
		if event.Error.Code != nil {
			kv = append(kv, "error_code", *event.Error.Code)
		}
	}
	return kv
}
