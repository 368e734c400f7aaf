package avatar

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/KirkDiggler/bot-stage/internal/animation"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
)

// RoleKind is the one role a character occupies
type RoleKind string

const (
	RoleNone    RoleKind = "none"
	RoleSlot    RoleKind = "slot"
	RoleJam     RoleKind = "jam"
	RoleSession RoleKind = "session"
)

// PendingStrike is a queued overwrite confrontation, held by the attacker
type PendingStrike struct {
	Victim   string
	QueuedAt time.Time
	// Role and RoleID are the contested role, taken from the victim when queued
	Role   RoleKind
	RoleID string
}

// CustomRef identifies a requested custom embodiment
type CustomRef struct {
	URL    string
	Height float64
}

// Avatar is the runtime state of one bot on stage
type Avatar struct {
	Name       string
	InstanceID string

	Embodiment embodiment.Kind
	Visual     *embodiment.Instance
	Mixer      *animation.Mixer
	Custom     *CustomRef

	Position mgl64.Vec3
	// Target is non-nil while walking
	Target *mgl64.Vec3
	// Facing is yaw in radians around +Y
	Facing float64
	// RestFacing, when set, replaces Facing on arrival
	RestFacing *float64

	Role      RoleKind
	RoleID    string
	RoleStyle string

	Thinking     bool
	ThinkingText string

	// Drama is the one-shot clip currently playing, empty when none
	Drama string
	// Recovering covers the pause between falling down and getting up
	Recovering bool

	PendingStrike   *PendingStrike
	PendingAttacker string
}

// New creates an avatar backed by visual, with no role
func New(name, instanceID string, visual *embodiment.Instance, mixer *animation.Mixer) *Avatar {
	a := &Avatar{
		Name:       name,
		InstanceID: instanceID,
		Visual:     visual,
		Mixer:      mixer,
		Role:       RoleNone,
	}
	if visual != nil {
		a.Embodiment = visual.Kind
	}
	return a
}

// Walking reports whether the avatar has a movement target
func (a *Avatar) Walking() bool {
	return a.Target != nil
}

// Busy reports whether a drama sequence holds the avatar in place
func (a *Avatar) Busy() bool {
	return a.Drama != "" || a.Recovering
}

// HasRole reports whether the avatar occupies any role
func (a *Avatar) HasRole() bool {
	return a.Role != RoleNone && a.Role != ""
}

// SetRole replaces the avatar's role; kinds are mutually exclusive
func (a *Avatar) SetRole(kind RoleKind, id, style string) {
	a.Role = kind
	a.RoleID = id
	a.RoleStyle = style
}

// ClearRole drops the avatar's role
func (a *Avatar) ClearRole() {
	a.Role = RoleNone
	a.RoleID = ""
	a.RoleStyle = ""
}

// WalkTo sets a movement target
func (a *Avatar) WalkTo(target mgl64.Vec3, restFacing *float64) {
	t := target
	a.Target = &t
	a.RestFacing = restFacing
}

// CurrentAction returns the mixer's current action ID
func (a *Avatar) CurrentAction() string {
	if a.Mixer == nil {
		return ""
	}
	return a.Mixer.Current()
}

// HasAction reports whether the action table contains id
func (a *Avatar) HasAction(id string) bool {
	return a.Mixer != nil && a.Mixer.Has(id)
}

// Transition crossfades to action id. It is a no-op when id is current or
// missing from the action table.
func (a *Avatar) Transition(id string) bool {
	if a.Mixer == nil {
		return false
	}
	_, ok := a.Mixer.FadeTo(id)
	if ok && a.Drama != "" && id != a.Drama {
		// the drama instance was superseded and will never complete
		a.Drama = ""
	}
	return ok
}

// PlayOneShot plays a drama clip once. onComplete runs when that play
// instance reaches its last frame, after Drama is cleared. Without the clip
// onComplete runs immediately so the sequence still progresses.
func (a *Avatar) PlayOneShot(clip string, onComplete func()) {
	if !a.HasAction(clip) {
		if onComplete != nil {
			onComplete()
		}
		return
	}

	instance, ok := a.Mixer.Restart(clip)
	if !ok {
		if onComplete != nil {
			onComplete()
		}
		return
	}

	a.Drama = clip
	a.Mixer.OnFinished(instance, func() {
		if a.Drama == clip {
			a.Drama = ""
		}
		if onComplete != nil {
			onComplete()
		}
	})
}
