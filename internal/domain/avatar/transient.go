package avatar

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Transient is the runtime state carried across an embodiment swap
type Transient struct {
	Position        mgl64.Vec3
	Target          *mgl64.Vec3
	Facing          float64
	RestFacing      *float64
	Role            RoleKind
	RoleID          string
	RoleStyle       string
	Thinking        bool
	ThinkingText    string
	PendingStrike   *PendingStrike
	PendingAttacker string
}

// Snapshot captures the avatar's transient state
func (a *Avatar) Snapshot() Transient {
	t := Transient{
		Position:        a.Position,
		Facing:          a.Facing,
		Role:            a.Role,
		RoleID:          a.RoleID,
		RoleStyle:       a.RoleStyle,
		Thinking:        a.Thinking,
		ThinkingText:    a.ThinkingText,
		PendingAttacker: a.PendingAttacker,
	}
	if a.Target != nil {
		target := *a.Target
		t.Target = &target
	}
	if a.RestFacing != nil {
		f := *a.RestFacing
		t.RestFacing = &f
	}
	if a.PendingStrike != nil {
		ps := *a.PendingStrike
		t.PendingStrike = &ps
	}
	return t
}

// Restore applies a snapshot taken from a previous instance
func (a *Avatar) Restore(t Transient) {
	a.Position = t.Position
	a.Target = t.Target
	a.Facing = t.Facing
	a.RestFacing = t.RestFacing
	a.Role = t.Role
	a.RoleID = t.RoleID
	a.RoleStyle = t.RoleStyle
	a.Thinking = t.Thinking
	a.ThinkingText = t.ThinkingText
	a.PendingStrike = t.PendingStrike
	a.PendingAttacker = t.PendingAttacker
}

// View is a read-only copy of an avatar for the HUD and debug endpoints
type View struct {
	Name            string      `json:"name"`
	InstanceID      string      `json:"instance_id"`
	Embodiment      string      `json:"embodiment"`
	CustomURL       string      `json:"custom_url,omitempty"`
	Height          float64     `json:"height"`
	Position        [3]float64  `json:"position"`
	Target          *[3]float64 `json:"target,omitempty"`
	Facing          float64     `json:"facing"`
	Action          string      `json:"action"`
	Actions         []string    `json:"actions"`
	Role            string      `json:"role"`
	RoleID          string      `json:"role_id,omitempty"`
	RoleStyle       string      `json:"role_style,omitempty"`
	Thinking        bool        `json:"thinking"`
	ThinkingText    string      `json:"thinking_text,omitempty"`
	Drama           string      `json:"drama,omitempty"`
	PendingVictim   string      `json:"pending_victim,omitempty"`
	PendingAttacker string      `json:"pending_attacker,omitempty"`
}

// View copies the avatar into a View
func (a *Avatar) View() *View {
	v := &View{
		Name:            a.Name,
		InstanceID:      a.InstanceID,
		Embodiment:      string(a.Embodiment),
		Position:        [3]float64(a.Position),
		Facing:          a.Facing,
		Action:          a.CurrentAction(),
		Role:            string(a.Role),
		RoleID:          a.RoleID,
		RoleStyle:       a.RoleStyle,
		Thinking:        a.Thinking,
		ThinkingText:    a.ThinkingText,
		Drama:           a.Drama,
		PendingAttacker: a.PendingAttacker,
	}
	if a.Custom != nil {
		v.CustomURL = a.Custom.URL
	}
	if a.Visual != nil {
		v.Height = a.Visual.Height
	}
	if a.Target != nil {
		t := [3]float64(*a.Target)
		v.Target = &t
	}
	if a.Mixer != nil {
		v.Actions = a.Mixer.ActionIDs()
	}
	if a.PendingStrike != nil {
		v.PendingVictim = a.PendingStrike.Victim
	}
	return v
}
