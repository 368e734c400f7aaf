package stage

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/KirkDiggler/bot-stage/internal/domain/avatar"
	"github.com/KirkDiggler/bot-stage/internal/placement"
)

// Scene owns the rendered visuals. Attach and Detach are called with the
// stage lock held.
type Scene interface {
	Attach(a *avatar.Avatar)
	Detach(a *avatar.Avatar)
}

// NoopScene is a Scene for headless runs
type NoopScene struct{}

func (NoopScene) Attach(*avatar.Avatar) {}
func (NoopScene) Detach(*avatar.Avatar) {}

// Placement answers where things are on stage. *placement.Layout
// implements it.
type Placement interface {
	SlotPose(slotID string) (placement.SlotPose, bool)
	GatheringCenter(kind avatar.RoleKind, id string) mgl64.Vec3
	Arrival(name string) mgl64.Vec3
	Queue(name string) mgl64.Vec3
}

// TimeProvider allows for testing time-dependent functionality
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider uses actual system time
type RealTimeProvider struct{}

// Now returns the current time
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}

// GroupState is the live membership of one jam or session. Participants
// are in join order.
type GroupState struct {
	ID           string   `yaml:"id" json:"id"`
	Style        string   `yaml:"style" json:"style,omitempty"`
	Participants []string `yaml:"participants" json:"participants"`
}

// indexOf returns name's join index and the member count, treating an
// absent name as the newest member
func (g GroupState) indexOf(name string) (int, int) {
	for i, p := range g.Participants {
		if p == name {
			return i, len(g.Participants)
		}
	}
	return len(g.Participants), len(g.Participants) + 1
}
