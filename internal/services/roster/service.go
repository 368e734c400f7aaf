package roster

//go:generate mockgen -destination=mock/mock_service.go -package=mockroster -source=service.go

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/bot-stage/internal/domain/avatar"
	"github.com/KirkDiggler/bot-stage/internal/services/provisioning"
	"github.com/KirkDiggler/bot-stage/internal/services/stage"
)

// Service turns membership snapshots into stage role changes
type Service interface {
	// Apply reconciles the stage with snap. Only an invalid snapshot is an
	// error; stage-side failures degrade and are logged by the stage.
	Apply(ctx context.Context, snap *Snapshot) error

	// Current returns the last applied snapshot
	Current() *Snapshot
}

type service struct {
	stage        stage.Service
	provisioning provisioning.Service
	logger       *slog.Logger

	// applyMu serializes Apply, which can wait on model loads; mu only
	// guards current
	applyMu sync.Mutex
	mu      sync.Mutex
	current *Snapshot
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Stage        stage.Service // Required
	Provisioning provisioning.Service
	Logger       *slog.Logger
}

// NewService creates a new roster service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil || cfg.Stage == nil {
		panic("stage service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &service{
		stage:        cfg.Stage,
		provisioning: cfg.Provisioning,
		logger:       logger,
		current:      &Snapshot{},
	}
}

func (s *service) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *service) Apply(ctx context.Context, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	prev := s.Current()

	if s.provisioning != nil {
		if urls := snap.CustomURLs(); len(urls) > 0 {
			if err := s.provisioning.Preload(ctx, urls); err != nil {
				s.logger.Warn("custom model preload failed", "error", err)
			}
		}
	}

	held := heldBots(snap)

	s.releaseSlots(prev, snap, held)
	s.releaseGroups(prev.Jams, held, s.stage.RemoveFromJam)
	s.releaseGroups(prev.Sessions, held, s.stage.RemoveFromSession)

	s.applyGroups(ctx, prev.Jams, snap.Jams, s.stage.AssignToJam)
	s.applyGroups(ctx, prev.Sessions, snap.Sessions, s.stage.AssignToSession)

	// slot assignments may wait on custom model loads, so they run side by side
	g, gctx := errgroup.WithContext(ctx)
	prevSlots := slotsByID(prev)
	for _, h := range sortedSlots(snap) {
		old, had := prevSlots[h.SlotID]
		if had && old == h {
			continue
		}

		// a displaced holder that keeps another role is not struck
		if had && old.Bot != h.Bot && h.Overwrite && !held[old.Bot] {
			if _, onStage := s.stage.GetAvatar(old.Bot); onStage {
				s.logger.Info("slot overwritten", "slot", h.SlotID, "attacker", h.Bot, "victim", old.Bot)
				s.stage.PlayOverwriteDrama(h.Bot, old.Bot)
			}
		}

		g.Go(func() error {
			s.stage.AssignToSlot(gctx, h.Bot, h.SlotID, customRef(h))
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
	return nil
}

// releaseSlots removes bots that lost their slot and hold nothing new. An
// overwritten holder is left for the drama, which removes it afterwards.
func (s *service) releaseSlots(prev, next *Snapshot, held map[string]bool) {
	nextSlots := slotsByID(next)
	for _, old := range sortedSlots(prev) {
		if held[old.Bot] {
			continue
		}
		if h, ok := nextSlots[old.SlotID]; ok && h.Overwrite && h.Bot != old.Bot {
			if _, onStage := s.stage.GetAvatar(old.Bot); onStage {
				continue
			}
		}
		s.stage.RemoveFromSlot(old.Bot)
	}
}

// releaseGroups removes former members that hold nothing new
func (s *service) releaseGroups(prev []stage.GroupState, held map[string]bool, remove func(string)) {
	for _, g := range prev {
		for _, p := range g.Participants {
			if !held[p] {
				remove(p)
			}
		}
	}
}

// applyGroups reassigns every member of a group whose membership or style
// changed, since member offsets depend on the whole roster
func (s *service) applyGroups(ctx context.Context, prev, next []stage.GroupState,
	assign func(context.Context, string, stage.GroupState)) {
	before := make(map[string]stage.GroupState, len(prev))
	for _, g := range prev {
		before[g.ID] = g
	}

	for _, g := range next {
		if old, ok := before[g.ID]; ok && sameGroup(old, g) {
			continue
		}
		for _, p := range g.Participants {
			assign(ctx, p, g)
		}
	}
}

func sameGroup(a, b stage.GroupState) bool {
	return a.ID == b.ID && a.Style == b.Style && slices.Equal(a.Participants, b.Participants)
}

func heldBots(snap *Snapshot) map[string]bool {
	held := make(map[string]bool)
	for _, h := range snap.Slots {
		held[h.Bot] = true
	}
	for _, g := range snap.Jams {
		for _, p := range g.Participants {
			held[p] = true
		}
	}
	for _, g := range snap.Sessions {
		for _, p := range g.Participants {
			held[p] = true
		}
	}
	return held
}

func slotsByID(snap *Snapshot) map[string]SlotHolder {
	out := make(map[string]SlotHolder, len(snap.Slots))
	for _, h := range snap.Slots {
		out[h.SlotID] = h
	}
	return out
}

func sortedSlots(snap *Snapshot) []SlotHolder {
	out := append([]SlotHolder(nil), snap.Slots...)
	sort.Slice(out, func(i, j int) bool { return out[i].SlotID < out[j].SlotID })
	return out
}

func customRef(h SlotHolder) *avatar.CustomRef {
	if h.CustomURL == "" {
		return nil
	}
	return &avatar.CustomRef{URL: h.CustomURL, Height: h.CustomHeight}
}
