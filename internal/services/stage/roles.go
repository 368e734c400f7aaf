package stage

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/KirkDiggler/bot-stage/internal/domain/avatar"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	"github.com/KirkDiggler/bot-stage/internal/events"
	"github.com/KirkDiggler/bot-stage/internal/movement"
)

// roleTarget is where an assignment sends an avatar and how it rests there
type roleTarget struct {
	kind     avatar.RoleKind
	id       string
	style    string
	position mgl64.Vec3
	facing   *float64
}

func (s *service) AssignToSlot(ctx context.Context, name, slotID string, custom *avatar.CustomRef) {
	pose, ok := s.placement.SlotPose(slotID)
	if !ok {
		s.logger.Warn("assignment to unknown slot ignored", "avatar", name, "slot", slotID)
		return
	}

	rotation := pose.Rotation
	target := roleTarget{
		kind:     avatar.RoleSlot,
		id:       slotID,
		style:    pose.Role,
		position: pose.Position,
		facing:   &rotation,
	}
	s.assign(ctx, name, target, normalizeCustom(custom))
}

func (s *service) AssignToJam(ctx context.Context, name string, jam GroupState) {
	s.assign(ctx, name, s.gatheringTarget(avatar.RoleJam, name, jam), nil)
}

func (s *service) AssignToSession(ctx context.Context, name string, session GroupState) {
	s.assign(ctx, name, s.gatheringTarget(avatar.RoleSession, name, session), nil)
}

func (s *service) gatheringTarget(kind avatar.RoleKind, name string, g GroupState) roleTarget {
	center := s.placement.GatheringCenter(kind, g.ID)
	index, count := g.indexOf(name)
	position := center.Add(GatheringOffset(name, index, count, s.radius))
	facing := facingToward(position, center)

	return roleTarget{
		kind:     kind,
		id:       g.ID,
		style:    g.Style,
		position: position,
		facing:   &facing,
	}
}

// normalizeCustom drops empty references
func normalizeCustom(c *avatar.CustomRef) *avatar.CustomRef {
	if c == nil || c.URL == "" {
		return nil
	}
	ref := *c
	return &ref
}

func sameCustom(a, b *avatar.CustomRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.URL == b.URL && a.Height == b.Height
}

func (s *service) assign(ctx context.Context, name string, target roleTarget, custom *avatar.CustomRef) {
	s.mu.Lock()
	a := s.ensureLocked(name)
	s.seq[name]++
	seq := s.seq[name]

	// only slot assignments carry an embodiment request
	if target.kind == avatar.RoleSlot {
		s.desired[name] = custom
	}

	if custom == nil || sameCustom(a.Custom, custom) {
		delete(s.pending, name)
		s.applyRoleLocked(a, target)
		s.mu.Unlock()
		return
	}
	s.pending[name] = target.kind
	s.mu.Unlock()

	visual, err := s.loadCustomVisual(ctx, custom)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case !sameCustom(s.desired[name], custom):
		s.logger.Debug("discarding stale custom embodiment", "avatar", name, "url", custom.URL)
	case s.wearingLocked(name, custom):
		s.logger.Debug("custom embodiment already applied", "avatar", name, "url", custom.URL)
	default:
		s.swapOrDeferLocked(name, custom, visual, err)
	}

	if s.seq[name] != seq {
		s.logger.Debug("assignment superseded while loading", "avatar", name, "role", target.kind, "role_id", target.id)
		return
	}
	delete(s.pending, name)
	s.applyRoleLocked(s.avatars[name], target)
}

// wearingLocked reports whether name already wears custom or has it queued
// behind a drama
func (s *service) wearingLocked(name string, custom *avatar.CustomRef) bool {
	if a, ok := s.avatars[name]; ok && sameCustom(a.Custom, custom) {
		return true
	}
	sw, ok := s.deferred[name]
	return ok && sw.custom != nil && sameCustom(sw.custom, custom)
}

// loadCustomVisual loads and instantiates a custom model. It runs without
// the stage lock.
func (s *service) loadCustomVisual(ctx context.Context, custom *avatar.CustomRef) (*embodiment.Instance, error) {
	tmpl, err := s.provisioning.LoadCustom(ctx, custom.URL)
	if err != nil {
		return nil, err
	}
	return s.provisioning.Instantiate(tmpl, embodiment.KindCustom, s.heightFor(custom))
}

func (s *service) heightFor(custom *avatar.CustomRef) float64 {
	if custom == nil || custom.Height == 0 {
		return s.defaultHeight
	}
	return custom.Height
}

// swapOrDeferLocked applies a resolved custom load. A failed load degrades
// the avatar to the base template when it was wearing another custom model
// and otherwise keeps what it has. Swaps are held back while drama plays.
func (s *service) swapOrDeferLocked(name string, custom *avatar.CustomRef, visual *embodiment.Instance, loadErr error) {
	a := s.avatars[name]

	if loadErr != nil {
		s.logger.Warn("custom embodiment failed, keeping fallback",
			"avatar", name,
			"url", custom.URL,
			"error", loadErr)

		if a.Embodiment == embodiment.KindCustom {
			base, _ := s.baseVisual(s.heightFor(custom))
			s.swapOrDeferVisualLocked(a, nil, base)
			a = s.avatars[name]
		}
		s.emitFallback(a, custom.URL, loadErr.Error())
		return
	}

	s.swapOrDeferVisualLocked(a, custom, visual)
}

func (s *service) swapOrDeferVisualLocked(a *avatar.Avatar, custom *avatar.CustomRef, visual *embodiment.Instance) {
	if a.Busy() {
		s.logger.Debug("embodiment swap deferred until drama ends", "avatar", a.Name)
		s.deferred[a.Name] = &swap{custom: custom, visual: visual}
		return
	}
	delete(s.deferred, a.Name)
	s.replaceLocked(a, custom, visual)
}

// applyDeferredLocked swaps in held-back embodiments once their avatars are
// free, dropping any that are no longer desired
func (s *service) applyDeferredLocked() {
	for name, sw := range s.deferred {
		a, ok := s.avatars[name]
		if !ok {
			delete(s.deferred, name)
			continue
		}
		if a.Busy() {
			continue
		}
		delete(s.deferred, name)

		if sw.custom != nil && !sameCustom(s.desired[name], sw.custom) {
			s.logger.Debug("discarding stale deferred embodiment", "avatar", name, "url", sw.custom.URL)
			continue
		}
		s.replaceLocked(a, sw.custom, sw.visual)
	}
}

// replaceLocked tears down the old avatar and builds a new one around
// visual, carrying over its transient state
func (s *service) replaceLocked(old *avatar.Avatar, custom *avatar.CustomRef, visual *embodiment.Instance) {
	snapshot := old.Snapshot()

	a := avatar.New(old.Name, s.ids.New(), visual, s.newMixer(visual))
	a.Restore(snapshot)
	if custom != nil {
		ref := *custom
		a.Custom = &ref
	}

	s.scene.Detach(old)
	s.avatars[a.Name] = a
	s.scene.Attach(a)
	s.resumeLocked(a)

	s.logger.Info("embodiment swapped",
		"avatar", a.Name,
		"instance", a.InstanceID,
		"embodiment", a.Embodiment)

	e := &events.EmbodimentEvent{
		BaseEvent: events.NewBase(events.EventTypeEmbodimentSwapped, a.Name, s.timeProvider.Now()),
		Kind:      string(a.Embodiment),
	}
	if a.Custom != nil {
		e.URL = a.Custom.URL
	}
	if visual != nil {
		e.Height = visual.Height
	}
	s.emit(e)
}

func (s *service) applyRoleLocked(a *avatar.Avatar, target roleTarget) {
	if s.drama.CancelStrikeOnReassign && a.PendingStrike != nil {
		ps := a.PendingStrike
		if ps.Role != target.kind || ps.RoleID != target.id {
			s.cancelStrikeLocked(a, "attacker reassigned")
		}
	}

	a.SetRole(target.kind, target.id, target.style)
	a.WalkTo(target.position, target.facing)
	if !a.Busy() {
		a.Transition(embodiment.ClipWalk)
	}

	s.emit(&events.RoleEvent{
		BaseEvent: events.NewBase(events.EventTypeRoleAssigned, a.Name, s.timeProvider.Now()),
		Role:      string(target.kind),
		RoleID:    target.id,
		Style:     target.style,
	})
}

func (s *service) RemoveFromSlot(name string) {
	s.remove(name, avatar.RoleSlot)
}

func (s *service) RemoveFromJam(name string) {
	s.remove(name, avatar.RoleJam)
}

func (s *service) RemoveFromSession(name string) {
	s.remove(name, avatar.RoleSession)
}

func (s *service) remove(name string, kind avatar.RoleKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.avatars[name]
	if !ok {
		s.logger.Debug("removal for unknown avatar ignored", "avatar", name, "role", kind)
		return
	}
	if !s.removeLocked(a, kind) {
		return
	}
	// only a removal of the kind being assigned supersedes a pending load
	if pk, ok := s.pending[name]; !ok || pk == kind {
		s.seq[name]++
	}
}

// removeLocked clears kind from the avatar and walks it back to its queue
// point. An avatar holding a different role is left alone and false is
// returned.
func (s *service) removeLocked(a *avatar.Avatar, kind avatar.RoleKind) bool {
	if a.HasRole() && a.Role != kind {
		return false
	}

	if s.drama.CancelStrikeOnReassign && a.PendingStrike != nil {
		s.cancelStrikeLocked(a, "attacker removed")
	}

	if a.HasRole() {
		cleared := a.RoleID
		a.ClearRole()
		s.emit(&events.RoleEvent{
			BaseEvent: events.NewBase(events.EventTypeRoleCleared, a.Name, s.timeProvider.Now()),
			Role:      string(kind),
			RoleID:    cleared,
		})
	}
	s.clearThinkingLocked(a)

	a.WalkTo(s.placement.Queue(a.Name), nil)
	if !a.Busy() {
		a.Transition(embodiment.ClipWalk)
	}
	return true
}

// resumeLocked puts a free avatar back into the action its state calls for
func (s *service) resumeLocked(a *avatar.Avatar) {
	if a.Busy() {
		return
	}
	if a.Walking() && (a.CurrentAction() == embodiment.ClipWalk || a.Transition(embodiment.ClipWalk)) {
		return
	}
	movement.Settle(a)
}
