package events

// Event type constants
const (
	// Lifecycle
	EventTypeAvatarCreated EventType = "avatar_created"

	// Roles
	EventTypeRoleAssigned EventType = "role_assigned"
	EventTypeRoleCleared  EventType = "role_cleared"

	// Embodiment
	EventTypeEmbodimentSwapped  EventType = "embodiment_swapped"
	EventTypeEmbodimentFallback EventType = "embodiment_fallback"

	// Overwrite drama
	EventTypeStrikeQueued  EventType = "strike_queued"
	EventTypeDramaResolved EventType = "drama_resolved"
	EventTypeDramaFinished EventType = "drama_finished"

	// HUD
	EventTypeThinkingChanged EventType = "thinking_changed"
)

// AllTypes lists every stage event type
var AllTypes = []EventType{
	EventTypeAvatarCreated,
	EventTypeRoleAssigned,
	EventTypeRoleCleared,
	EventTypeEmbodimentSwapped,
	EventTypeEmbodimentFallback,
	EventTypeStrikeQueued,
	EventTypeDramaResolved,
	EventTypeDramaFinished,
	EventTypeThinkingChanged,
}

// Priority levels for listener order
const (
	PriorityMetrics = 100 // Counters see every event
	PriorityLogging = 200
	PriorityHUD     = 300
)
