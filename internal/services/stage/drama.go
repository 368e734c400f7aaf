package stage

import (
	"github.com/KirkDiggler/bot-stage/internal/domain/avatar"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	"github.com/KirkDiggler/bot-stage/internal/events"
)

func (s *service) PlayOverwriteDrama(attackerName, victimName string) {
	if attackerName == "" || victimName == "" {
		s.logger.Warn("overwrite drama needs both parties", "attacker", attackerName, "victim", victimName)
		return
	}
	if attackerName == victimName {
		s.logger.Warn("overwrite drama against self ignored", "avatar", attackerName)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	attacker := s.ensureLocked(attackerName)
	victim := s.ensureLocked(victimName)

	// one attacker per victim: the newest supersedes
	for _, other := range s.avatars {
		if other.Name == attackerName || other.PendingStrike == nil {
			continue
		}
		if other.PendingStrike.Victim == victimName {
			s.logger.Debug("strike superseded", "attacker", other.Name, "victim", victimName, "by", attackerName)
			other.PendingStrike = nil
		}
	}

	// the attacker retargets; its previous victim is no longer expecting it
	if prev := attacker.PendingStrike; prev != nil && prev.Victim != victimName {
		if pv, ok := s.avatars[prev.Victim]; ok && pv.PendingAttacker == attackerName {
			pv.PendingAttacker = ""
		}
	}

	now := s.timeProvider.Now()
	attacker.PendingStrike = &avatar.PendingStrike{
		Victim:   victimName,
		QueuedAt: now,
		Role:     victim.Role,
		RoleID:   victim.RoleID,
	}
	victim.PendingAttacker = attackerName

	s.logger.Info("strike queued", "attacker", attackerName, "victim", victimName)
	s.emit(&events.DramaEvent{
		BaseEvent: events.NewBase(events.EventTypeStrikeQueued, attackerName, now),
		Victim:    victimName,
	})
}

func (s *service) cancelStrikeLocked(a *avatar.Avatar, reason string) {
	ps := a.PendingStrike
	if ps == nil {
		return
	}
	a.PendingStrike = nil
	if v, ok := s.avatars[ps.Victim]; ok && v.PendingAttacker == a.Name {
		v.PendingAttacker = ""
	}
	s.logger.Info("strike cancelled", "attacker", a.Name, "victim", ps.Victim, "reason", reason)
}

// resolveStrikeLocked fires a's queued strike once the two are close
// enough or it has waited too long. Nothing happens while either party is
// mid-drama.
func (s *service) resolveStrikeLocked(a *avatar.Avatar) {
	ps := a.PendingStrike
	if ps == nil {
		return
	}

	victim, ok := s.avatars[ps.Victim]
	if !ok {
		a.PendingStrike = nil
		return
	}
	if a.Busy() || victim.Busy() {
		return
	}

	now := s.timeProvider.Now()
	distance := a.Position.Sub(victim.Position).Len()
	waited := now.Sub(ps.QueuedAt)
	inRange := distance <= s.drama.StrikeThreshold
	if !inRange && waited < s.drama.MaxWait {
		return
	}

	a.PendingStrike = nil
	if victim.PendingAttacker == a.Name {
		victim.PendingAttacker = ""
	}

	s.logger.Info("overwrite drama resolved",
		"attacker", a.Name,
		"victim", victim.Name,
		"distance", distance,
		"waited", waited,
		"timed_out", !inRange)

	s.emit(&events.DramaEvent{
		BaseEvent: events.NewBase(events.EventTypeDramaResolved, a.Name, now),
		Victim:    victim.Name,
		Distance:  distance,
		Waited:    waited,
		TimedOut:  !inRange,
	})

	if distance > 0 {
		a.Facing = facingToward(a.Position, victim.Position)
		victim.Facing = facingToward(victim.Position, a.Position)
	}

	s.strikeLocked(a.Name)
	s.fallLocked(victim.Name, ps.Role, ps.RoleID)
}

// strikeLocked plays the punch; afterwards the attacker carries on with
// whatever its role asks for
func (s *service) strikeLocked(name string) {
	a := s.avatars[name]
	a.PlayOneShot(embodiment.ClipPunch, func() {
		s.dramaFinishedLocked(name, embodiment.ClipPunch)
		if cur, ok := s.avatars[name]; ok {
			s.resumeLocked(cur)
		}
	})
}

// fallLocked knocks the victim down, keeps it down for RecoverDelay of
// frame time, gets it up and sends it off the contested role
func (s *service) fallLocked(name string, role avatar.RoleKind, roleID string) {
	v := s.avatars[name]
	v.PlayOneShot(embodiment.ClipFallingDown, func() {
		s.dramaFinishedLocked(name, embodiment.ClipFallingDown)
		if cur, ok := s.avatars[name]; ok {
			cur.Recovering = true
		}
		s.after(s.drama.RecoverDelay.Seconds(), func() {
			s.getUpLocked(name, role, roleID)
		})
	})
}

func (s *service) getUpLocked(name string, role avatar.RoleKind, roleID string) {
	v, ok := s.avatars[name]
	if !ok {
		return
	}
	v.PlayOneShot(embodiment.ClipGettingUp, func() {
		s.dramaFinishedLocked(name, embodiment.ClipGettingUp)

		cur, ok := s.avatars[name]
		if !ok {
			return
		}
		cur.Recovering = false
		if !s.releaseContestedLocked(cur, role, roleID) {
			s.resumeLocked(cur)
		}
	})
}

// releaseContestedLocked sends the victim off the role it was struck over.
// A role it took up since then is its own and stays.
func (s *service) releaseContestedLocked(v *avatar.Avatar, role avatar.RoleKind, roleID string) bool {
	if !v.HasRole() {
		return s.removeLocked(v, avatar.RoleSlot)
	}
	if v.Role != role || v.RoleID != roleID {
		s.logger.Debug("victim holds a new role, staying", "avatar", v.Name, "role", v.Role, "role_id", v.RoleID)
		return false
	}
	return s.removeLocked(v, role)
}

func (s *service) dramaFinishedLocked(name, clip string) {
	s.emit(&events.DramaEvent{
		BaseEvent: events.NewBase(events.EventTypeDramaFinished, name, s.timeProvider.Now()),
		Clip:      clip,
	})
}
