package stage

//go:generate mockgen -destination=mock/mock_service.go -package=mockstage -source=service.go

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/KirkDiggler/bot-stage/internal/animation"
	"github.com/KirkDiggler/bot-stage/internal/domain/avatar"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	"github.com/KirkDiggler/bot-stage/internal/events"
	"github.com/KirkDiggler/bot-stage/internal/metrics"
	"github.com/KirkDiggler/bot-stage/internal/movement"
	"github.com/KirkDiggler/bot-stage/internal/services/provisioning"
	"github.com/KirkDiggler/bot-stage/internal/uuid"
)

// Service owns every avatar on stage. Role changes may come from any
// goroutine; Tick is driven by the frame clock. None of the operations
// return errors: failures degrade visually and are logged.
type Service interface {
	// EnsureAvatar returns the avatar for name, creating it at its arrival
	// point on first reference
	EnsureAvatar(name string) *avatar.Avatar

	// GetAvatar returns the avatar for name without creating it
	GetAvatar(name string) (*avatar.Avatar, bool)

	// GetAllAvatars returns every avatar, sorted by name
	GetAllAvatars() []*avatar.Avatar

	// View returns a copy of one avatar safe to read outside the frame loop
	View(name string) (*avatar.View, bool)

	// Views returns copies of every avatar, sorted by name
	Views() []*avatar.View

	// AssignToSlot sends name to a slot. With custom set, the custom model
	// is loaded first; the call blocks until it resolves or ctx ends.
	AssignToSlot(ctx context.Context, name, slotID string, custom *avatar.CustomRef)

	// AssignToJam places name around the jam's center
	AssignToJam(ctx context.Context, name string, jam GroupState)

	// AssignToSession places name around the session's center
	AssignToSession(ctx context.Context, name string, session GroupState)

	RemoveFromSlot(name string)
	RemoveFromJam(name string)
	RemoveFromSession(name string)

	// PlayOverwriteDrama queues a strike by attacker against victim
	PlayOverwriteDrama(attacker, victim string)

	SetThinking(name, text string)
	ClearThinking(name string)

	// Tick advances animation, movement and drama by dt seconds of frame time
	Tick(dt, elapsed float64)
}

// Drama holds the overwrite choreography tunables
type Drama struct {
	// StrikeThreshold is the distance at which a queued strike lands
	StrikeThreshold float64
	// MaxWait fires a queued strike regardless of distance
	MaxWait time.Duration
	// RecoverDelay is the frame time a victim stays down
	RecoverDelay time.Duration
	// CancelStrikeOnReassign drops a queued strike when its attacker takes a
	// different role or is removed
	CancelStrikeOnReassign bool
}

// DefaultDrama returns the default choreography tunables
func DefaultDrama() Drama {
	return Drama{
		StrikeThreshold: 1.2,
		MaxWait:         6 * time.Second,
		RecoverDelay:    1200 * time.Millisecond,
	}
}

type scheduled struct {
	at float64
	fn func()
}

type swap struct {
	custom *avatar.CustomRef
	visual *embodiment.Instance
}

type service struct {
	provisioning provisioning.Service
	placement    Placement
	scene        Scene
	bus          *events.Bus
	metrics      *metrics.Collectors
	ids          uuid.Generator
	timeProvider TimeProvider
	logger       *slog.Logger

	movement      movement.Config
	drama         Drama
	crossfade     float64
	defaultHeight float64
	radius        float64

	mu      sync.Mutex
	avatars map[string]*avatar.Avatar
	// desired is the latest requested custom embodiment per name; a load
	// result is applied only while it still matches
	desired map[string]*avatar.CustomRef
	// seq counts role requests per name; an assignment that waited on a
	// load applies its role only if nothing newer arrived meanwhile
	seq map[string]uint64
	// pending is the role kind of the assignment waiting on a load
	pending  map[string]avatar.RoleKind
	deferred map[string]*swap
	clock    float64
	schedule []scheduled
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Provisioning provisioning.Service // Required
	Placement    Placement            // Required

	Scene        Scene
	Bus          *events.Bus
	Metrics      *metrics.Collectors
	IDs          uuid.Generator
	TimeProvider TimeProvider
	Logger       *slog.Logger

	Movement         *movement.Config
	Drama            *Drama
	CrossfadeSeconds *float64
	DefaultHeight    float64
	GatheringRadius  float64
}

// NewService creates a new stage service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil || cfg.Provisioning == nil {
		panic("provisioning service is required")
	}
	if cfg.Placement == nil {
		panic("placement is required")
	}

	svc := &service{
		provisioning:  cfg.Provisioning,
		placement:     cfg.Placement,
		scene:         cfg.Scene,
		bus:           cfg.Bus,
		metrics:       cfg.Metrics,
		ids:           cfg.IDs,
		timeProvider:  cfg.TimeProvider,
		logger:        cfg.Logger,
		movement:      movement.DefaultConfig(),
		drama:         DefaultDrama(),
		crossfade:     animation.DefaultCrossfade,
		defaultHeight: cfg.DefaultHeight,
		radius:        cfg.GatheringRadius,
		avatars:       make(map[string]*avatar.Avatar),
		desired:       make(map[string]*avatar.CustomRef),
		seq:           make(map[string]uint64),
		pending:       make(map[string]avatar.RoleKind),
		deferred:      make(map[string]*swap),
	}

	if svc.scene == nil {
		svc.scene = NoopScene{}
	}
	if svc.bus == nil {
		svc.bus = events.NewBus(cfg.Logger)
	}
	if svc.ids == nil {
		svc.ids = uuid.NewGoogleUUIDGenerator()
	}
	if svc.timeProvider == nil {
		svc.timeProvider = RealTimeProvider{}
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if cfg.Movement != nil {
		svc.movement = *cfg.Movement
	}
	if cfg.Drama != nil {
		svc.drama = *cfg.Drama
	}
	if cfg.CrossfadeSeconds != nil {
		svc.crossfade = *cfg.CrossfadeSeconds
	}
	if svc.defaultHeight <= 0 || math.IsNaN(svc.defaultHeight) {
		svc.defaultHeight = 1.7
	}

	return svc
}

func (s *service) EnsureAvatar(name string) *avatar.Avatar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(name)
}

func (s *service) ensureLocked(name string) *avatar.Avatar {
	if a, ok := s.avatars[name]; ok {
		return a
	}

	visual, reason := s.baseVisual(s.defaultHeight)
	a := avatar.New(name, s.ids.New(), visual, s.newMixer(visual))

	a.Position = s.placement.Arrival(name)
	queue := s.placement.Queue(name)
	a.Facing = facingToward(a.Position, queue)
	a.WalkTo(queue, nil)
	if !a.Transition(embodiment.ClipWalk) {
		movement.Settle(a)
	}

	s.avatars[name] = a
	s.scene.Attach(a)

	s.logger.Info("avatar created",
		"avatar", name,
		"instance", a.InstanceID,
		"embodiment", a.Embodiment)

	s.emit(&events.AvatarEvent{
		BaseEvent:  events.NewBase(events.EventTypeAvatarCreated, name, s.timeProvider.Now()),
		InstanceID: a.InstanceID,
		Embodiment: string(a.Embodiment),
	})
	if reason != "" {
		s.emitFallback(a, "", reason)
	}

	return a
}

// baseVisual instantiates the shared template, or procedural geometry when
// the template is unavailable. reason is set when it had to degrade.
func (s *service) baseVisual(height float64) (*embodiment.Instance, string) {
	if s.provisioning.UsingFallback() {
		return s.provisioning.Procedural(height), "base template unavailable"
	}

	base := s.provisioning.BaseTemplate()
	if base == nil {
		return s.provisioning.Procedural(height), "base template not loaded"
	}

	visual, err := s.provisioning.Instantiate(base, embodiment.KindTemplate, height)
	if err != nil {
		s.logger.Warn("base template instantiate failed, using procedural", "error", err)
		return s.provisioning.Procedural(height), err.Error()
	}
	return visual, ""
}

func (s *service) newMixer(visual *embodiment.Instance) *animation.Mixer {
	var clips map[string]*embodiment.Clip
	if visual != nil {
		clips = visual.Clips
	}
	return animation.NewMixer(clips, s.crossfade, s.ids)
}

func (s *service) GetAvatar(name string) (*avatar.Avatar, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.avatars[name]
	return a, ok
}

func (s *service) GetAllAvatars() []*avatar.Avatar {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*avatar.Avatar, 0, len(s.avatars))
	for _, name := range s.namesLocked() {
		out = append(out, s.avatars[name])
	}
	return out
}

func (s *service) View(name string) (*avatar.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.avatars[name]
	if !ok {
		return nil, false
	}
	return a.View(), true
}

func (s *service) Views() []*avatar.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*avatar.View, 0, len(s.avatars))
	for _, name := range s.namesLocked() {
		out = append(out, s.avatars[name].View())
	}
	return out
}

func (s *service) namesLocked() []string {
	names := make([]string, 0, len(s.avatars))
	for name := range s.avatars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *service) SetThinking(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.ensureLocked(name)
	if a.Thinking && a.ThinkingText == text {
		return
	}
	a.Thinking = true
	a.ThinkingText = text
	s.emitThinking(a)
}

func (s *service) ClearThinking(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.avatars[name]; ok {
		s.clearThinkingLocked(a)
	}
}

func (s *service) clearThinkingLocked(a *avatar.Avatar) {
	if !a.Thinking && a.ThinkingText == "" {
		return
	}
	a.Thinking = false
	a.ThinkingText = ""
	s.emitThinking(a)
}

func (s *service) emitThinking(a *avatar.Avatar) {
	s.emit(&events.ThinkingEvent{
		BaseEvent: events.NewBase(events.EventTypeThinkingChanged, a.Name, s.timeProvider.Now()),
		Thinking:  a.Thinking,
		Text:      a.ThinkingText,
	})
}

func (s *service) emitFallback(a *avatar.Avatar, url, reason string) {
	var height float64
	if a.Visual != nil {
		height = a.Visual.Height
	}
	s.emit(&events.EmbodimentEvent{
		BaseEvent: events.NewBase(events.EventTypeEmbodimentFallback, a.Name, s.timeProvider.Now()),
		Kind:      string(a.Embodiment),
		URL:       url,
		Height:    height,
		Reason:    reason,
	})
}

// emit publishes on the bus. Listener failures never reach stage callers.
func (s *service) emit(e events.Event) {
	if err := s.bus.Emit(e); err != nil {
		s.logger.Warn("stage event listener failed", "event", e.GetType(), "avatar", e.GetAvatar(), "error", err)
	}
}
