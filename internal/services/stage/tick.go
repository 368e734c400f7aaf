package stage

import (
	"math"
	"sort"
	"time"

	"github.com/KirkDiggler/bot-stage/internal/movement"
)

// after schedules fn to run once delay seconds of frame time have passed.
// Callers hold the stage lock.
func (s *service) after(delay float64, fn func()) {
	if delay < 0 || math.IsNaN(delay) {
		delay = 0
	}
	s.schedule = append(s.schedule, scheduled{at: s.clock + delay, fn: fn})
}

// runDueLocked runs callbacks whose time has come, in due order. Callbacks
// scheduled while running wait for a later tick.
func (s *service) runDueLocked() {
	if len(s.schedule) == 0 {
		return
	}

	sort.SliceStable(s.schedule, func(i, j int) bool {
		return s.schedule[i].at < s.schedule[j].at
	})

	n := 0
	for n < len(s.schedule) && s.schedule[n].at <= s.clock {
		n++
	}
	if n == 0 {
		return
	}

	due := s.schedule[:n]
	s.schedule = append([]scheduled(nil), s.schedule[n:]...)
	for _, job := range due {
		job.fn()
	}
}

func (s *service) Tick(dt, elapsed float64) {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		dt = 0
	}

	start := time.Now()
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.metrics.ObserveTick(time.Since(start))
	}()

	s.clock += dt
	s.runDueLocked()
	s.applyDeferredLocked()

	// drama distance checks must see this tick's movement
	for _, name := range s.namesLocked() {
		a, ok := s.avatars[name]
		if !ok {
			continue
		}
		if a.Mixer != nil {
			a.Mixer.Update(dt)
		}
		movement.Step(a, dt, s.movement)
		s.resolveStrikeLocked(a)
	}
}
