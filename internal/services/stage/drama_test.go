package stage_test

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/KirkDiggler/bot-stage/internal/domain/avatar"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	"github.com/KirkDiggler/bot-stage/internal/events"
	"github.com/KirkDiggler/bot-stage/internal/services/provisioning"
	"github.com/KirkDiggler/bot-stage/internal/services/stage"
)

func (s *StageTestSuite) TestDrama_SamePositionResolvesNextTick() {
	s.drama.MaxWait = time.Hour
	s.svc = s.newStage()

	att := s.standStill("A", mgl64.Vec3{1, 0, 1})
	vic := s.standStill("B", mgl64.Vec3{1, 0, 1})

	s.svc.PlayOverwriteDrama("A", "B")
	s.Require().NotNil(att.PendingStrike)
	s.Equal("B", att.PendingStrike.Victim)
	s.Equal(s.clock.Now(), att.PendingStrike.QueuedAt)
	s.Equal("A", vic.PendingAttacker)
	s.Len(s.eventsOf(events.EventTypeStrikeQueued), 1)

	s.svc.Tick(1.0/60, 0)

	s.Nil(att.PendingStrike)
	s.Empty(vic.PendingAttacker)
	s.Equal(embodiment.ClipPunch, att.Drama)
	s.Equal(embodiment.ClipFallingDown, vic.Drama)

	resolved := s.eventsOf(events.EventTypeDramaResolved)
	s.Require().Len(resolved, 1)
	e := resolved[0].(*events.DramaEvent)
	s.Equal("A", e.GetAvatar())
	s.Equal("B", e.Victim)
	s.Zero(e.Distance)
	s.False(e.TimedOut)
}

func (s *StageTestSuite) TestDrama_WithinThresholdResolves() {
	att := s.standStill("A", mgl64.Vec3{0, 0, 0})
	s.standStill("B", mgl64.Vec3{1, 0, 0})

	s.svc.PlayOverwriteDrama("A", "B")
	s.svc.Tick(0.1, 0)

	s.Nil(att.PendingStrike)
	s.Equal(embodiment.ClipPunch, att.Drama)
}

func (s *StageTestSuite) TestDrama_TimeoutFiresWithoutMovement() {
	att := s.standStill("A", mgl64.Vec3{-5, 0, 0})
	vic := s.standStill("B", mgl64.Vec3{5, 0, 0})

	s.svc.PlayOverwriteDrama("A", "B")

	s.svc.Tick(0.1, 0)
	s.NotNil(att.PendingStrike)

	s.clock.Advance(5 * time.Second)
	s.svc.Tick(0.1, 0)
	s.NotNil(att.PendingStrike, "still waiting before max wait")
	s.Empty(att.Drama)

	s.clock.Advance(time.Second)
	s.svc.Tick(0.1, 0)
	s.Nil(att.PendingStrike)
	s.Equal(embodiment.ClipPunch, att.Drama)
	s.Equal(embodiment.ClipFallingDown, vic.Drama)

	resolved := s.eventsOf(events.EventTypeDramaResolved)
	s.Require().Len(resolved, 1)
	e := resolved[0].(*events.DramaEvent)
	s.True(e.TimedOut)
	s.InDelta(10, e.Distance, 1e-9)
	s.Equal(6*time.Second, e.Waited)
}

func (s *StageTestSuite) TestDrama_SeesThisTicksMovement() {
	att := s.standStill("A", mgl64.Vec3{0, 0, 0})
	s.standStill("B", mgl64.Vec3{2, 0, 0})
	att.WalkTo(mgl64.Vec3{2, 0, 0}, nil)

	s.svc.PlayOverwriteDrama("A", "B")

	// 2.5 u/s for 0.4s closes the gap from 2 to 1, inside the threshold
	s.svc.Tick(0.4, 0)

	s.Nil(att.PendingStrike)
	s.InDelta(1, att.Position.X(), 1e-9)
}

func (s *StageTestSuite) TestDrama_FullChain() {
	s.svc.AssignToSlot(s.ctx, "B", "drums", nil)
	drums := mgl64.Vec3{0, 0, 2}
	vic := s.standStill("B", drums)
	att := s.standStill("A", drums)

	s.svc.PlayOverwriteDrama("A", "B")
	s.svc.AssignToSlot(s.ctx, "A", "drums", nil)

	s.svc.Tick(0.1, 0)
	s.Equal(embodiment.ClipPunch, att.Drama)
	s.Equal(embodiment.ClipFallingDown, vic.Drama)

	// attacker finishes the punch and takes up the slot
	s.tickUntil(func() bool { return att.Drama == "" }, 20)
	s.Equal(embodiment.ClipPlay, att.CurrentAction())
	s.Equal(avatar.RoleSlot, att.Role)

	// victim is down and stays down for the recover delay
	s.True(vic.Recovering)
	s.Empty(vic.Drama)
	s.Equal(embodiment.ClipFallingDown, vic.CurrentAction())
	for i := 0; i < 5; i++ {
		s.svc.Tick(0.1, 0)
	}
	s.True(vic.Recovering)
	s.Equal(avatar.RoleSlot, vic.Role)

	s.tickUntil(func() bool { return vic.Drama == embodiment.ClipGettingUp }, 20)
	s.tickUntil(func() bool { return !vic.Busy() }, 20)

	s.Equal(avatar.RoleNone, vic.Role)
	s.Require().NotNil(vic.Target)
	s.Equal(s.layout.Queue("B"), *vic.Target)
	s.Equal(embodiment.ClipWalk, vic.CurrentAction())

	finished := s.eventsOf(events.EventTypeDramaFinished)
	s.Require().Len(finished, 3)
	var clips []string
	for _, e := range finished {
		clips = append(clips, e.(*events.DramaEvent).Clip)
	}
	s.ElementsMatch([]string{embodiment.ClipPunch, embodiment.ClipFallingDown, embodiment.ClipGettingUp}, clips)
}

func (s *StageTestSuite) TestDrama_MissingClipsStillProgress() {
	s.provisioning = provisioning.NewService(&provisioning.ServiceConfig{Loader: s.loader})
	s.Require().NoError(s.provisioning.LoadBaseTemplate(s.ctx))
	s.svc = s.newStage()

	att := s.standStill("A", mgl64.Vec3{})
	vic := s.standStill("B", mgl64.Vec3{})

	s.svc.PlayOverwriteDrama("A", "B")
	s.svc.Tick(0.1, 0)

	s.Nil(att.PendingStrike)
	s.Empty(att.Drama, "no punch clip completes at once")
	s.True(vic.Recovering, "no fall clip completes at once")

	s.tickUntil(func() bool { return !vic.Recovering }, 20)
	s.Require().NotNil(vic.Target)
	s.Equal(s.layout.Queue("B"), *vic.Target)
}

func (s *StageTestSuite) TestDrama_SkippedWhileEitherPartyBusy() {
	att := s.standStill("A", mgl64.Vec3{})
	vic := s.standStill("B", mgl64.Vec3{})
	vic.Recovering = true

	s.svc.PlayOverwriteDrama("A", "B")
	s.svc.Tick(0.1, 0)
	s.NotNil(att.PendingStrike)

	vic.Recovering = false
	att.Recovering = true
	s.svc.Tick(0.1, 0)
	s.NotNil(att.PendingStrike)

	att.Recovering = false
	s.svc.Tick(0.1, 0)
	s.Nil(att.PendingStrike)
}

func (s *StageTestSuite) TestDrama_NewestAttackerSupersedes() {
	first := s.standStill("A1", mgl64.Vec3{-9, 0, 0})
	second := s.standStill("A2", mgl64.Vec3{9, 0, 0})
	vic := s.standStill("B", mgl64.Vec3{})

	s.svc.PlayOverwriteDrama("A1", "B")
	s.svc.PlayOverwriteDrama("A2", "B")

	s.Nil(first.PendingStrike)
	s.Require().NotNil(second.PendingStrike)
	s.Equal("A2", vic.PendingAttacker)

	// retargeting releases the previous victim
	other := s.standStill("C", mgl64.Vec3{0, 0, 9})
	s.svc.PlayOverwriteDrama("A2", "C")
	s.Empty(vic.PendingAttacker)
	s.Equal("A2", other.PendingAttacker)
	s.Equal("C", second.PendingStrike.Victim)
}

func (s *StageTestSuite) TestDrama_SelfAndEmptyIgnored() {
	s.svc.PlayOverwriteDrama("A", "A")
	s.svc.PlayOverwriteDrama("", "B")

	s.Empty(s.svc.GetAllAvatars())
	s.Empty(s.eventsOf(events.EventTypeStrikeQueued))
}

func (s *StageTestSuite) TestDrama_CreatesUnknownParties() {
	s.svc.PlayOverwriteDrama("newcomer", "incumbent")

	att, ok := s.svc.GetAvatar("newcomer")
	s.Require().True(ok)
	_, ok = s.svc.GetAvatar("incumbent")
	s.Require().True(ok)
	s.NotNil(att.PendingStrike)
}

func (s *StageTestSuite) TestDrama_AssignmentDuringDramaDefersWalk() {
	att := s.standStill("A", mgl64.Vec3{})
	s.standStill("B", mgl64.Vec3{})

	s.svc.PlayOverwriteDrama("A", "B")
	s.svc.Tick(0.1, 0)
	s.Require().Equal(embodiment.ClipPunch, att.Drama)

	s.svc.AssignToJam(s.ctx, "A", stage.GroupState{ID: "j", Participants: []string{"A"}})
	s.Equal(avatar.RoleJam, att.Role)
	s.NotNil(att.Target)
	s.Equal(embodiment.ClipPunch, att.CurrentAction(), "the punch keeps playing")

	s.tickUntil(func() bool { return att.Drama == "" }, 20)
	s.Equal(embodiment.ClipWalk, att.CurrentAction())
}

func (s *StageTestSuite) TestDrama_ReassignKeepsStrikeByDefault() {
	s.svc.AssignToSlot(s.ctx, "B", "drums", nil)
	s.standStill("B", mgl64.Vec3{0, 0, 2})
	att := s.standStill("A", mgl64.Vec3{-9, 0, -9})

	s.svc.PlayOverwriteDrama("A", "B")
	s.svc.AssignToJam(s.ctx, "A", stage.GroupState{ID: "elsewhere"})

	s.NotNil(att.PendingStrike)
}

func (s *StageTestSuite) TestDrama_CancelStrikeOnReassign() {
	s.drama.CancelStrikeOnReassign = true
	s.svc = s.newStage()

	s.svc.AssignToSlot(s.ctx, "B", "drums", nil)
	vic := s.standStill("B", mgl64.Vec3{0, 0, 2})
	att := s.standStill("A", mgl64.Vec3{-9, 0, -9})

	s.svc.PlayOverwriteDrama("A", "B")
	s.Equal(avatar.RoleSlot, att.PendingStrike.Role)
	s.Equal("drums", att.PendingStrike.RoleID)

	// taking the contested slot is the point of the strike
	s.svc.AssignToSlot(s.ctx, "A", "drums", nil)
	s.NotNil(att.PendingStrike)

	s.svc.AssignToJam(s.ctx, "A", stage.GroupState{ID: "elsewhere"})
	s.Nil(att.PendingStrike)
	s.Empty(vic.PendingAttacker)

	s.svc.PlayOverwriteDrama("A", "B")
	s.svc.RemoveFromJam("A")
	s.Nil(att.PendingStrike)
}

func (s *StageTestSuite) TestDrama_VictimKeepsSlotTakenSinceStrike() {
	s.svc.AssignToSlot(s.ctx, "B", "drums", nil)
	vic := s.standStill("B", mgl64.Vec3{0, 0, 2})
	s.standStill("A", mgl64.Vec3{-9, 0, -9})

	s.svc.PlayOverwriteDrama("A", "B")
	s.svc.AssignToSlot(s.ctx, "A", "drums", nil)
	s.svc.AssignToSlot(s.ctx, "B", "bass", nil)

	s.clock.Advance(s.drama.MaxWait)
	s.svc.Tick(0.1, 0)
	s.Require().Equal(embodiment.ClipFallingDown, vic.Drama)

	s.tickUntil(func() bool { return vic.Drama == embodiment.ClipGettingUp }, 40)
	s.tickUntil(func() bool { return !vic.Busy() }, 20)

	s.Equal(avatar.RoleSlot, vic.Role)
	s.Equal("bass", vic.RoleID)
	s.Require().NotNil(vic.Target)
	s.Equal(mgl64.Vec3{-2.5, 0, 1}, *vic.Target)
	s.Empty(s.eventsOf(events.EventTypeRoleCleared))
}

func (s *StageTestSuite) TestDrama_VictimLeavesContestedSlot() {
	s.svc.AssignToSlot(s.ctx, "B", "keys", nil)
	vic := s.standStill("B", mgl64.Vec3{2.5, 0, 1})
	s.standStill("A", mgl64.Vec3{2.5, 0, 1})

	s.svc.PlayOverwriteDrama("A", "B")
	s.svc.Tick(0.1, 0)
	s.tickUntil(func() bool { return vic.Drama == embodiment.ClipGettingUp }, 40)
	s.tickUntil(func() bool { return !vic.Busy() }, 20)

	s.Equal(avatar.RoleNone, vic.Role)
	s.Require().Len(s.eventsOf(events.EventTypeRoleCleared), 1)
	s.Equal("keys", s.eventsOf(events.EventTypeRoleCleared)[0].(*events.RoleEvent).RoleID)
}
