package stage_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/bot-stage/internal/domain/avatar"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
	"github.com/KirkDiggler/bot-stage/internal/events"
	"github.com/KirkDiggler/bot-stage/internal/placement"
	"github.com/KirkDiggler/bot-stage/internal/services/provisioning"
	mockprovisioning "github.com/KirkDiggler/bot-stage/internal/services/provisioning/mock"
	"github.com/KirkDiggler/bot-stage/internal/services/stage"
	"github.com/KirkDiggler/bot-stage/internal/uuid"
)

const baseURL = "https://cdn/base.glb"

// clip durations in seconds
var baseClips = map[string]float64{
	embodiment.ClipIdle:        2,
	embodiment.ClipWalk:        1,
	embodiment.ClipPlay:        2,
	embodiment.ClipDance:       2,
	embodiment.ClipChat:        2,
	embodiment.ClipPunch:       0.5,
	embodiment.ClipFallingDown: 0.5,
	embodiment.ClipGettingUp:   0.5,
}

func testTemplate(source string, height float64, clips map[string]float64) *embodiment.Template {
	root := embodiment.NewNode("root")
	body := embodiment.NewNode("body")
	body.Mesh = &embodiment.Mesh{Min: mgl64.Vec3{-0.2, 0, -0.2}, Max: mgl64.Vec3{0.2, height, 0.2}}
	root.AddChild(body)

	t := &embodiment.Template{
		Source:          source,
		Root:            root,
		Clips:           map[string]*embodiment.Clip{},
		ReferenceHeight: height,
	}
	for id, d := range clips {
		t.Clips[id] = &embodiment.Clip{ID: id, SourceName: id, Duration: d}
	}
	return t
}

type fakeScene struct {
	attached []string
	detached []string
}

func (f *fakeScene) Attach(a *avatar.Avatar) { f.attached = append(f.attached, a.InstanceID) }
func (f *fakeScene) Detach(a *avatar.Avatar) { f.detached = append(f.detached, a.InstanceID) }

type fakeTime struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type StageTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	loader       *mockprovisioning.MockLoader
	provisioning provisioning.Service
	layout       *placement.Layout
	scene        *fakeScene
	clock        *fakeTime
	bus          *events.Bus
	seen         []events.Event
	drama        stage.Drama
	svc          stage.Service
	ctx          context.Context
}

func (s *StageTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.loader = mockprovisioning.NewMockLoader(s.ctrl)
	s.layout = placement.DefaultLayout()
	s.scene = &fakeScene{}
	s.clock = &fakeTime{now: time.Unix(1_700_000_000, 0)}
	s.ctx = context.Background()
	s.drama = stage.DefaultDrama()

	s.seen = nil
	s.bus = events.NewBus(nil)
	s.bus.SubscribeAll(events.NewListenerFunc("recorder", events.PriorityHUD, func(e events.Event) error {
		s.seen = append(s.seen, e)
		return nil
	}))

	s.provisioning = provisioning.NewService(&provisioning.ServiceConfig{
		Loader:       s.loader,
		BaseModelURL: baseURL,
	})
	s.loader.EXPECT().Load(gomock.Any(), baseURL).Return(testTemplate(baseURL, 1.8, baseClips), nil)
	s.Require().NoError(s.provisioning.LoadBaseTemplate(s.ctx))

	s.svc = s.newStage()
}

func (s *StageTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestStageSuite(t *testing.T) {
	suite.Run(t, new(StageTestSuite))
}

func (s *StageTestSuite) newStage() stage.Service {
	drama := s.drama
	return stage.NewService(&stage.ServiceConfig{
		Provisioning: s.provisioning,
		Placement:    s.layout,
		Scene:        s.scene,
		Bus:          s.bus,
		IDs:          uuid.NewSequenceGenerator("id"),
		TimeProvider: s.clock,
		Drama:        &drama,
	})
}

// tickUntil runs 0.1s frames until cond holds, failing after limit frames
func (s *StageTestSuite) tickUntil(cond func() bool, limit int) int {
	for i := 1; i <= limit; i++ {
		s.svc.Tick(0.1, 0)
		if cond() {
			return i
		}
	}
	s.FailNow("condition not reached", "after %d frames", limit)
	return 0
}

// standStill stops an avatar where it is
func (s *StageTestSuite) standStill(name string, at mgl64.Vec3) *avatar.Avatar {
	a := s.svc.EnsureAvatar(name)
	a.Position = at
	a.Target = nil
	a.RestFacing = nil
	return a
}

func (s *StageTestSuite) eventsOf(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range s.seen {
		if e.GetType() == t {
			out = append(out, e)
		}
	}
	return out
}

func (s *StageTestSuite) TestEnsureAvatar_Idempotent() {
	a := s.svc.EnsureAvatar("alpha")
	b := s.svc.EnsureAvatar("alpha")

	s.Same(a, b)
	s.Equal(embodiment.KindTemplate, a.Embodiment)
	s.Equal(avatar.RoleNone, a.Role)
	s.Equal(s.layout.Arrival("alpha"), a.Position)
	s.Require().NotNil(a.Target)
	s.Equal(s.layout.Queue("alpha"), *a.Target)
	s.Equal(embodiment.ClipWalk, a.CurrentAction())

	s.Len(s.scene.attached, 1)
	s.Len(s.eventsOf(events.EventTypeAvatarCreated), 1)

	got, ok := s.svc.GetAvatar("alpha")
	s.True(ok)
	s.Same(a, got)

	_, ok = s.svc.GetAvatar("nobody")
	s.False(ok)
}

func (s *StageTestSuite) TestEnsureAvatar_ProceduralWhenBaseUnavailable() {
	s.provisioning = provisioning.NewService(&provisioning.ServiceConfig{Loader: s.loader})
	s.Require().NoError(s.provisioning.LoadBaseTemplate(s.ctx))
	s.svc = s.newStage()

	a := s.svc.EnsureAvatar("alpha")
	s.Equal(embodiment.KindProcedural, a.Embodiment)
	s.Empty(a.Mixer.ActionIDs())
	s.Len(s.eventsOf(events.EventTypeEmbodimentFallback), 1)

	// without clips the avatar still walks home and settles
	s.tickUntil(func() bool { return !a.Walking() }, 1000)
	s.Equal(s.layout.Queue("alpha"), a.Position)
}

func (s *StageTestSuite) TestGetAllAvatarsAndViews_SortedByName() {
	s.svc.EnsureAvatar("charlie")
	s.svc.EnsureAvatar("alpha")
	s.svc.EnsureAvatar("bravo")

	all := s.svc.GetAllAvatars()
	s.Require().Len(all, 3)
	s.Equal("alpha", all[0].Name)
	s.Equal("charlie", all[2].Name)

	views := s.svc.Views()
	s.Require().Len(views, 3)
	s.Equal("bravo", views[1].Name)
	s.Equal("template", views[1].Embodiment)

	v, ok := s.svc.View("alpha")
	s.Require().True(ok)
	s.Equal(embodiment.ClipWalk, v.Action)

	_, ok = s.svc.View("nobody")
	s.False(ok)
}

func (s *StageTestSuite) TestRoleKindsAreExclusive() {
	jam := stage.GroupState{ID: "late-night", Participants: []string{"alpha"}}
	session := stage.GroupState{ID: "standup", Participants: []string{"alpha"}}

	steps := []struct {
		name string
		op   func()
		want avatar.RoleKind
	}{
		{"slot", func() { s.svc.AssignToSlot(s.ctx, "alpha", "drums", nil) }, avatar.RoleSlot},
		{"jam replaces slot", func() { s.svc.AssignToJam(s.ctx, "alpha", jam) }, avatar.RoleJam},
		{"remove slot while jamming", func() { s.svc.RemoveFromSlot("alpha") }, avatar.RoleJam},
		{"session replaces jam", func() { s.svc.AssignToSession(s.ctx, "alpha", session) }, avatar.RoleSession},
		{"remove jam while in session", func() { s.svc.RemoveFromJam("alpha") }, avatar.RoleSession},
		{"remove session", func() { s.svc.RemoveFromSession("alpha") }, avatar.RoleNone},
		{"slot again", func() { s.svc.AssignToSlot(s.ctx, "alpha", "keys", nil) }, avatar.RoleSlot},
	}

	for _, step := range steps {
		step.op()
		a := s.svc.EnsureAvatar("alpha")
		s.Equal(step.want, a.Role, step.name)
		if step.want == avatar.RoleNone {
			s.Empty(a.RoleID, step.name)
		}
	}
}

func (s *StageTestSuite) TestAssignThenRemoveSlot_RoundTrip() {
	s.svc.AssignToSlot(s.ctx, "alpha", "drums", nil)

	a := s.svc.EnsureAvatar("alpha")
	s.Equal(avatar.RoleSlot, a.Role)
	s.Equal("drums", a.RoleID)
	s.Equal("drums", a.RoleStyle)
	s.Require().NotNil(a.Target)
	s.Equal(mgl64.Vec3{0, 0, 2}, *a.Target)
	s.Equal(embodiment.ClipWalk, a.CurrentAction())

	s.svc.RemoveFromSlot("alpha")
	s.Equal(avatar.RoleNone, a.Role)
	s.Require().NotNil(a.Target)
	s.Equal(s.layout.Queue("alpha"), *a.Target)
	s.Equal(embodiment.ClipWalk, a.CurrentAction())

	s.Len(s.eventsOf(events.EventTypeRoleAssigned), 1)
	s.Len(s.eventsOf(events.EventTypeRoleCleared), 1)
}

func (s *StageTestSuite) TestAssignToSlot_WalksInAndPlays() {
	s.svc.AssignToSlot(s.ctx, "alpha", "drums", nil)
	a := s.svc.EnsureAvatar("alpha")

	s.tickUntil(func() bool { return !a.Walking() }, 1000)

	s.Equal(mgl64.Vec3{0, 0, 2}, a.Position)
	s.InDelta(math.Pi, a.Facing, 1e-9)
	s.Equal(embodiment.ClipPlay, a.CurrentAction(), "slot style falls back to play")
}

func (s *StageTestSuite) TestAssignToSlot_UnknownSlotIgnored() {
	s.svc.AssignToSlot(s.ctx, "alpha", "theremin", nil)

	_, ok := s.svc.GetAvatar("alpha")
	s.False(ok)
}

func (s *StageTestSuite) TestAssignToJam_GatheringTarget() {
	s.layout.Jams["main"] = mgl64.Vec3{10, 0, 10}
	jam := stage.GroupState{ID: "main", Style: "groove", Participants: []string{"alpha", "bravo", "charlie"}}

	for _, name := range jam.Participants {
		s.svc.AssignToJam(s.ctx, name, jam)
	}

	seen := map[mgl64.Vec3]bool{}
	for i, name := range jam.Participants {
		a := s.svc.EnsureAvatar(name)
		s.Equal(avatar.RoleJam, a.Role)
		s.Equal("groove", a.RoleStyle)

		want := mgl64.Vec3{10, 0, 10}.Add(stage.GatheringOffset(name, i, 3, stage.DefaultGatheringRadius))
		s.Require().NotNil(a.Target)
		s.True(a.Target.ApproxEqual(want))
		s.False(seen[*a.Target])
		seen[*a.Target] = true
	}

	// settles into the synonym list since there is no "groove" clip
	a := s.svc.EnsureAvatar("alpha")
	s.tickUntil(func() bool { return !a.Walking() }, 2000)
	s.Equal(embodiment.ClipDance, a.CurrentAction())
}

func (s *StageTestSuite) TestAssignToSession_SettlesToChat() {
	session := stage.GroupState{ID: "standup", Participants: []string{"alpha"}}
	s.svc.AssignToSession(s.ctx, "alpha", session)

	a := s.svc.EnsureAvatar("alpha")
	s.tickUntil(func() bool { return !a.Walking() }, 2000)
	s.Equal(embodiment.ClipChat, a.CurrentAction())
}

func (s *StageTestSuite) TestThinking() {
	s.svc.SetThinking("alpha", "compiling riffs")

	a := s.svc.EnsureAvatar("alpha")
	s.True(a.Thinking)
	s.Equal("compiling riffs", a.ThinkingText)

	// unchanged text is not re-announced
	s.svc.SetThinking("alpha", "compiling riffs")
	s.Len(s.eventsOf(events.EventTypeThinkingChanged), 1)

	s.svc.AssignToSlot(s.ctx, "alpha", "keys", nil)
	s.svc.RemoveFromSlot("alpha")
	s.False(a.Thinking)
	s.Empty(a.ThinkingText)

	s.svc.SetThinking("alpha", "again")
	s.svc.ClearThinking("alpha")
	s.False(a.Thinking)
	s.Len(s.eventsOf(events.EventTypeThinkingChanged), 4)

	s.svc.ClearThinking("nobody")
}

func (s *StageTestSuite) TestTick_BadDeltaDoesNotMove() {
	a := s.svc.EnsureAvatar("alpha")
	start := a.Position

	s.svc.Tick(-1, 0)
	s.svc.Tick(math.NaN(), 0)
	s.svc.Tick(math.Inf(1), 0)

	s.Equal(start, a.Position)
}

func (s *StageTestSuite) TestConcurrentAssignmentsWhileTicking() {
	var wg sync.WaitGroup
	names := []string{"a", "b", "c", "d", "e", "f"}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s.svc.Tick(1.0/60, 0)
		}
	}()

	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.svc.AssignToJam(s.ctx, name, stage.GroupState{ID: "j", Participants: names})
			s.svc.SetThinking(name, "hm")
			_ = s.svc.Views()
		}()
	}
	wg.Wait()
	<-done

	for _, v := range s.svc.Views() {
		s.Equal("jam", v.Role)
	}
}

func (s *StageTestSuite) TestCustomEmbodiment_AppliedAndPreservesState() {
	url := "https://cdn/robot.glb"
	s.loader.EXPECT().Load(gomock.Any(), url).Return(testTemplate(url, 2.0, map[string]float64{"idle": 1, "walk": 1}), nil)

	old := s.svc.EnsureAvatar("alpha")
	old.Position = mgl64.Vec3{1, 0, 1}
	old.Thinking = true
	old.ThinkingText = "tuning"

	s.svc.AssignToSlot(s.ctx, "alpha", "bass", &avatar.CustomRef{URL: url, Height: 2.2})

	a := s.svc.EnsureAvatar("alpha")
	s.NotSame(old, a)
	s.NotEqual(old.InstanceID, a.InstanceID)
	s.Equal(embodiment.KindCustom, a.Embodiment)
	s.Require().NotNil(a.Custom)
	s.Equal(url, a.Custom.URL)
	s.InDelta(2.2, a.Visual.Height, 1e-6)

	s.Equal(mgl64.Vec3{1, 0, 1}, a.Position)
	s.True(a.Thinking)
	s.Equal("tuning", a.ThinkingText)
	s.Equal(avatar.RoleSlot, a.Role)
	s.Equal("bass", a.RoleID)
	s.Equal(embodiment.ClipWalk, a.CurrentAction())

	s.Equal([]string{old.InstanceID}, s.scene.detached)
	s.Len(s.eventsOf(events.EventTypeEmbodimentSwapped), 1)

	// same pair again keeps the instance
	s.svc.AssignToSlot(s.ctx, "alpha", "bass", &avatar.CustomRef{URL: url, Height: 2.2})
	s.Same(a, s.svc.EnsureAvatar("alpha"))
}

func (s *StageTestSuite) TestCustomEmbodiment_LatestRequestWins() {
	first, second := "https://cdn/first.glb", "https://cdn/second.glb"

	started := make(chan struct{})
	release := make(chan struct{})
	s.loader.EXPECT().Load(gomock.Any(), first).
		DoAndReturn(func(context.Context, string) (*embodiment.Template, error) {
			close(started)
			<-release
			return testTemplate(first, 1.8, baseClips), nil
		})
	s.loader.EXPECT().Load(gomock.Any(), second).Return(testTemplate(second, 1.8, baseClips), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.svc.AssignToSlot(s.ctx, "alpha", "drums", &avatar.CustomRef{URL: first, Height: 1.7})
	}()

	<-started
	s.svc.AssignToSlot(s.ctx, "alpha", "keys", &avatar.CustomRef{URL: second, Height: 1.7})

	a := s.svc.EnsureAvatar("alpha")
	s.Equal(second, a.Custom.URL)
	s.Equal("keys", a.RoleID)

	close(release)
	<-done

	a = s.svc.EnsureAvatar("alpha")
	s.Equal(second, a.Custom.URL, "stale load is discarded")
	s.Equal(second, a.Visual.Source)
	s.Equal("keys", a.RoleID, "stale assignment does not reapply its role")
	s.Len(s.eventsOf(events.EventTypeEmbodimentSwapped), 1)
}

func (s *StageTestSuite) TestCustomEmbodiment_FailureKeepsTemplate() {
	url := "https://cdn/broken.glb"
	s.loader.EXPECT().Load(gomock.Any(), url).Return(nil, apperr.LoadFailedf("bad magic"))

	before := s.svc.EnsureAvatar("alpha")
	s.svc.AssignToSlot(s.ctx, "alpha", "vocals", &avatar.CustomRef{URL: url, Height: 1.7})

	a := s.svc.EnsureAvatar("alpha")
	s.Same(before, a)
	s.Equal(embodiment.KindTemplate, a.Embodiment)
	s.Equal(avatar.RoleSlot, a.Role, "the role still applies")

	fallbacks := s.eventsOf(events.EventTypeEmbodimentFallback)
	s.Require().Len(fallbacks, 1)
	s.Equal(url, fallbacks[0].(*events.EmbodimentEvent).URL)
}

func (s *StageTestSuite) TestCustomEmbodiment_FailureRevertsPreviousCustom() {
	good, bad := "https://cdn/good.glb", "https://cdn/bad.glb"
	s.loader.EXPECT().Load(gomock.Any(), good).Return(testTemplate(good, 1.8, baseClips), nil)
	s.loader.EXPECT().Load(gomock.Any(), bad).Return(nil, apperr.LoadFailedf("truncated"))

	s.svc.AssignToSlot(s.ctx, "alpha", "drums", &avatar.CustomRef{URL: good})
	s.Equal(embodiment.KindCustom, s.svc.EnsureAvatar("alpha").Embodiment)

	s.svc.AssignToSlot(s.ctx, "alpha", "drums", &avatar.CustomRef{URL: bad})
	a := s.svc.EnsureAvatar("alpha")
	s.Equal(embodiment.KindTemplate, a.Embodiment)
	s.Nil(a.Custom)
}

func (s *StageTestSuite) TestCustomEmbodiment_DeferredDuringDrama() {
	url := "https://cdn/robot.glb"
	s.loader.EXPECT().Load(gomock.Any(), url).Return(testTemplate(url, 1.8, baseClips), nil)

	old := s.standStill("alpha", mgl64.Vec3{})
	old.Transition(embodiment.ClipIdle)
	old.Recovering = true

	s.svc.AssignToSlot(s.ctx, "alpha", "drums", &avatar.CustomRef{URL: url})
	s.Same(old, s.svc.EnsureAvatar("alpha"), "swap waits for the drama")
	s.Equal(avatar.RoleSlot, old.Role)
	s.Equal(embodiment.ClipIdle, old.CurrentAction(), "walk waits for the drama")

	s.svc.Tick(0.1, 0)
	s.Same(old, s.svc.EnsureAvatar("alpha"))

	old.Recovering = false
	s.svc.Tick(0.1, 0)

	a := s.svc.EnsureAvatar("alpha")
	s.NotSame(old, a)
	s.Equal(embodiment.KindCustom, a.Embodiment)
	s.Equal(avatar.RoleSlot, a.Role)
	s.Equal(embodiment.ClipWalk, a.CurrentAction())
}

func (s *StageTestSuite) TestCustomEmbodiment_CancelledContext() {
	url := "https://cdn/slow.glb"
	started := make(chan struct{})
	release := make(chan struct{})
	s.loader.EXPECT().Load(gomock.Any(), url).
		DoAndReturn(func(context.Context, string) (*embodiment.Template, error) {
			close(started)
			<-release
			return testTemplate(url, 1.8, baseClips), nil
		})

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.svc.AssignToSlot(ctx, "alpha", "drums", &avatar.CustomRef{URL: url})
	}()

	<-started
	cancel()
	<-done

	a := s.svc.EnsureAvatar("alpha")
	s.Equal(embodiment.KindTemplate, a.Embodiment)
	s.Equal(avatar.RoleSlot, a.Role)

	close(release)
	s.Eventually(func() bool { return s.provisioning.Stats().CustomTemplates == 1 }, time.Second, time.Millisecond)
}

func (s *StageTestSuite) TestCustomEmbodiment_DuplicateRequestsSwapOnce() {
	url := "https://cdn/robot.glb"
	release := make(chan struct{})
	s.loader.EXPECT().Load(gomock.Any(), url).
		DoAndReturn(func(context.Context, string) (*embodiment.Template, error) {
			<-release
			return testTemplate(url, 1.8, baseClips), nil
		})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.svc.AssignToSlot(s.ctx, "alpha", "drums", &avatar.CustomRef{URL: url, Height: 1.7})
		}()
	}

	s.Eventually(func() bool { return s.provisioning.Stats().Waiting == 2 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	a := s.svc.EnsureAvatar("alpha")
	s.Equal(url, a.Custom.URL)
	s.Len(s.eventsOf(events.EventTypeEmbodimentSwapped), 1)
}

func (s *StageTestSuite) TestCustomEmbodiment_RemovalOfOtherKindKeepsPendingSlot() {
	url := "https://cdn/robot.glb"
	s.svc.AssignToJam(s.ctx, "alpha", stage.GroupState{ID: "j", Participants: []string{"alpha"}})

	started := make(chan struct{})
	release := make(chan struct{})
	s.loader.EXPECT().Load(gomock.Any(), url).
		DoAndReturn(func(context.Context, string) (*embodiment.Template, error) {
			close(started)
			<-release
			return testTemplate(url, 1.8, baseClips), nil
		})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.svc.AssignToSlot(s.ctx, "alpha", "drums", &avatar.CustomRef{URL: url})
	}()

	<-started
	s.svc.RemoveFromJam("alpha")
	s.svc.RemoveFromSession("alpha")
	close(release)
	<-done

	a := s.svc.EnsureAvatar("alpha")
	s.Equal(avatar.RoleSlot, a.Role)
	s.Equal("drums", a.RoleID)
}

func (s *StageTestSuite) TestCustomEmbodiment_SlotRemovalSupersedesPendingSlot() {
	url := "https://cdn/robot.glb"
	started := make(chan struct{})
	release := make(chan struct{})
	s.loader.EXPECT().Load(gomock.Any(), url).
		DoAndReturn(func(context.Context, string) (*embodiment.Template, error) {
			close(started)
			<-release
			return testTemplate(url, 1.8, baseClips), nil
		})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.svc.AssignToSlot(s.ctx, "alpha", "drums", &avatar.CustomRef{URL: url})
	}()

	<-started
	s.svc.RemoveFromSlot("alpha")
	close(release)
	<-done

	s.Equal(avatar.RoleNone, s.svc.EnsureAvatar("alpha").Role)
}
