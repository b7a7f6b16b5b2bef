package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("category", event.Category.String()),
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}

	switch {
	case event.Datagram != nil:
		attrs = append(attrs,
			slog.String("direction", event.Direction.String()),
			slog.Int("size", event.Datagram.Size),
			slog.String("data", string(event.Datagram.Data)),
		)
		if event.Datagram.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	case event.Alert != nil:
		attrs = append(attrs,
			slog.String("action", event.Alert.Action.String()),
			slog.Int("local_id", event.Alert.LocalID),
		)
		if event.Alert.ServerID != "" {
			attrs = append(attrs, slog.String("server_id", event.Alert.ServerID))
		}
		if event.Alert.SeqNo != 0 {
			attrs = append(attrs, slog.Int("seq_no", event.Alert.SeqNo))
		}
		if event.Alert.Delay > 0 {
			attrs = append(attrs, slog.Duration("delay", event.Alert.Delay))
		}
		if len(event.Alert.Affected) > 0 {
			attrs = append(attrs, slog.Any("affected", event.Alert.Affected))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "capture", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
