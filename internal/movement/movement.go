package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/KirkDiggler/bot-stage/internal/domain/avatar"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
)

// Config holds the seek tunables
type Config struct {
	Speed   float64
	Epsilon float64
}

// DefaultConfig returns the stage's default walk speed and arrival radius
func DefaultConfig() Config {
	return Config{Speed: 2.5, Epsilon: 0.05}
}

// universal fallbacks tried after the role-specific candidates
var universal = []string{embodiment.ClipDance, embodiment.ClipHeadbob, embodiment.ClipIdle}

var roleSynonyms = map[avatar.RoleKind][]string{
	avatar.RoleSlot:    {embodiment.ClipPlay, "perform", embodiment.ClipHeadbob},
	avatar.RoleJam:     {"jam", embodiment.ClipDance},
	avatar.RoleSession: {embodiment.ClipChat, "talk", embodiment.ClipThink},
}

// Candidates lists the action IDs tried for a role, most specific first
func Candidates(kind avatar.RoleKind, style string) []string {
	var out []string
	if style != "" {
		out = append(out, style)
	}
	out = append(out, roleSynonyms[kind]...)
	return append(out, universal...)
}

// ResolveAction picks the action an avatar should hold when standing still:
// the first role candidate present in its action table, or idle without a
// role.
func ResolveAction(a *avatar.Avatar) string {
	if !a.HasRole() {
		return embodiment.ClipIdle
	}
	for _, id := range Candidates(a.Role, a.RoleStyle) {
		if a.HasAction(id) {
			return id
		}
	}
	return embodiment.ClipIdle
}

// Settle transitions a stationary avatar to its resolved action
func Settle(a *avatar.Avatar) {
	a.Transition(ResolveAction(a))
}

// Step moves a walking avatar toward its target by speed*dt and turns it to
// face the direction of travel. Within epsilon it snaps to the target,
// clears it and settles into its role or idle action. It reports arrival.
func Step(a *avatar.Avatar, dt float64, cfg Config) bool {
	if a.Target == nil || a.Busy() {
		return false
	}
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}

	target := *a.Target
	delta := target.Sub(a.Position)
	dist := delta.Len()

	if dist <= cfg.Epsilon {
		arrive(a, target)
		return true
	}

	a.Facing = math.Atan2(delta.X(), delta.Z())

	stride := cfg.Speed * dt
	if stride >= dist-cfg.Epsilon {
		arrive(a, target)
		return true
	}

	a.Position = a.Position.Add(delta.Mul(stride / dist))
	return false
}

func arrive(a *avatar.Avatar, target mgl64.Vec3) {
	a.Position = target
	a.Target = nil
	if a.RestFacing != nil {
		a.Facing = *a.RestFacing
		a.RestFacing = nil
	}
	Settle(a)
}
