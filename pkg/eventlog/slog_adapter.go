package eventlog

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see events in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("source", event.Source.String()),
		slog.String("category", event.Category.String()),
	}

	switch {
	case event.State != nil:
		attrs = append(attrs,
			slog.String("old_state", event.State.OldState),
			slog.String("new_state", event.State.NewState),
		)
		if event.State.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.State.Reason))
		}
	case event.Call != nil:
		attrs = append(attrs, slog.String("call", event.Call.Kind.String()))
		if event.Call.CallID != "" {
			attrs = append(attrs, slog.String("call_id", event.Call.CallID))
		}
		if event.Call.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Call.Reason))
		}
	case event.Button != nil:
		attrs = append(attrs, slog.String("signal", event.Button.Signal))
		if event.Button.DurationMS != 0 {
			attrs = append(attrs, slog.Uint64("duration_ms", uint64(event.Button.DurationMS)))
		}
	case event.Address != nil:
		attrs = append(attrs, slog.String("local_addr", event.Address.LocalAddr))
		if event.Address.ServerAddr != "" {
			attrs = append(attrs, slog.String("server_addr", event.Address.ServerAddr))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "doorbell", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
