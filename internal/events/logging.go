package events

import (
	"log/slog"
)

// LogListener writes every stage event to a structured logger
type LogListener struct {
	logger *slog.Logger
}

// NewLogListener creates a listener logging at debug level
func NewLogListener(logger *slog.Logger) *LogListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogListener{logger: logger}
}

func (l *LogListener) ID() string    { return "event-log" }
func (l *LogListener) Priority() int { return PriorityLogging }

func (l *LogListener) HandleEvent(e Event) error {
	attrs := []any{"event", e.GetType(), "avatar", e.GetAvatar()}

	switch ev := e.(type) {
	case *RoleEvent:
		attrs = append(attrs, "role", ev.Role, "role_id", ev.RoleID, "style", ev.Style)
	case *EmbodimentEvent:
		attrs = append(attrs, "kind", ev.Kind, "url", ev.URL)
		if ev.Reason != "" {
			attrs = append(attrs, "reason", ev.Reason)
		}
	case *DramaEvent:
		attrs = append(attrs, "victim", ev.Victim)
		if ev.Clip != "" {
			attrs = append(attrs, "clip", ev.Clip)
		}
		if ev.TimedOut {
			attrs = append(attrs, "timed_out", true)
		}
	case *ThinkingEvent:
		attrs = append(attrs, "thinking", ev.Thinking)
	}

	l.logger.Debug("stage event", attrs...)
	return nil
}
