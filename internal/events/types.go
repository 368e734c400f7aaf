package events

import (
	"time"
)

// EventType represents the type of stage event
type EventType string

// Event is the base interface for all stage events
type Event interface {
	GetType() EventType
	GetAvatar() string
	IsCancelled() bool
	Cancel()
}

// BaseEvent provides common implementation for all events
type BaseEvent struct {
	Type      EventType
	Avatar    string
	At        time.Time
	Cancelled bool
}

func (e *BaseEvent) GetType() EventType { return e.Type }
func (e *BaseEvent) GetAvatar() string  { return e.Avatar }
func (e *BaseEvent) IsCancelled() bool  { return e.Cancelled }
func (e *BaseEvent) Cancel()            { e.Cancelled = true }

// AvatarEvent reports an avatar coming into existence
type AvatarEvent struct {
	BaseEvent
	InstanceID string
	Embodiment string
}

// RoleEvent reports a role change. Role is the kind being assigned or the
// kind that was cleared.
type RoleEvent struct {
	BaseEvent
	Role   string
	RoleID string
	Style  string
}

// EmbodimentEvent reports a visual swap or a degradation
type EmbodimentEvent struct {
	BaseEvent
	Kind   string
	URL    string
	Height float64
	Reason string
}

// DramaEvent reports a stage of the overwrite sequence. Avatar is the
// attacker, except on drama_finished where it is the avatar whose clip
// finished.
type DramaEvent struct {
	BaseEvent
	Victim   string
	Distance float64
	Waited   time.Duration
	TimedOut bool
	// Clip names the finished clip on drama_finished
	Clip string
}

// ThinkingEvent reports the thinking display turning on, changing or off
type ThinkingEvent struct {
	BaseEvent
	Thinking bool
	Text     string
}

// NewBase builds a BaseEvent
func NewBase(t EventType, avatar string, at time.Time) BaseEvent {
	return BaseEvent{Type: t, Avatar: avatar, At: at}
}
