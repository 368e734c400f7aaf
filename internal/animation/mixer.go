package animation

import (
	"math"
	"sort"

	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	"github.com/KirkDiggler/bot-stage/internal/uuid"
)

// DefaultCrossfade is the blend duration used when none is configured
const DefaultCrossfade = 0.3

// Action is one playable clip in a character's action table
type Action struct {
	ClipID   string
	Duration float64
	Loop     bool

	time     float64
	weight   float64
	running  bool
	finished bool
	instance string

	fadeFrom     float64
	fadeTo       float64
	fadeElapsed  float64
	fadeDuration float64
}

// Time returns the playhead position in seconds
func (a *Action) Time() float64 { return a.time }

// Weight returns the current blend weight
func (a *Action) Weight() float64 { return a.weight }

// Running reports whether the action is being advanced
func (a *Action) Running() bool { return a.running }

// Instance returns the play-instance ID of the most recent start
func (a *Action) Instance() string { return a.instance }

func (a *Action) fade(from, to, duration float64) {
	a.fadeFrom = from
	a.fadeTo = to
	a.fadeElapsed = 0
	a.fadeDuration = duration
	a.weight = from
	if duration <= 0 {
		a.weight = to
		a.fadeDuration = 0
	}
}

func (a *Action) advanceFade(dt float64) {
	if a.fadeDuration <= 0 {
		return
	}
	a.fadeElapsed += dt
	if a.fadeElapsed >= a.fadeDuration {
		a.weight = a.fadeTo
		a.fadeDuration = 0
		return
	}
	t := a.fadeElapsed / a.fadeDuration
	a.weight = a.fadeFrom + (a.fadeTo-a.fadeFrom)*t
}

// Mixer owns a character's action table and blends between actions.
// It is not safe for concurrent use; the stage drives it from the frame tick.
type Mixer struct {
	actions   map[string]*Action
	current   string
	crossfade float64
	ids       uuid.Generator

	// completion handlers keyed by play instance
	handlers map[string]func()
}

// NewMixer builds an action table from clips. Drama clips are one-shot;
// everything else loops.
func NewMixer(clips map[string]*embodiment.Clip, crossfade float64, ids uuid.Generator) *Mixer {
	if ids == nil {
		ids = uuid.NewGoogleUUIDGenerator()
	}
	if crossfade < 0 || math.IsNaN(crossfade) {
		crossfade = DefaultCrossfade
	}

	m := &Mixer{
		actions:   make(map[string]*Action, len(clips)),
		crossfade: crossfade,
		ids:       ids,
		handlers:  make(map[string]func()),
	}
	for id, c := range clips {
		m.actions[id] = &Action{
			ClipID:   id,
			Duration: c.Duration,
			Loop:     !embodiment.IsOneShot(id),
		}
	}

	return m
}

// Has reports whether the action table contains id
func (m *Mixer) Has(id string) bool {
	_, ok := m.actions[id]
	return ok
}

// Current returns the ID of the action most recently transitioned to
func (m *Mixer) Current() string { return m.current }

// Action returns the action for id, if present
func (m *Mixer) Action(id string) (*Action, bool) {
	a, ok := m.actions[id]
	return a, ok
}

// ActionIDs returns the action table's IDs in sorted order
func (m *Mixer) ActionIDs() []string {
	ids := make([]string, 0, len(m.actions))
	for id := range m.actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FadeTo switches to action id. The previous action fades out over the
// crossfade duration while the new one restarts and fades in. Switching to
// the current action, or to an action not in the table, does nothing and
// returns ok=false. The returned instance identifies this particular start.
func (m *Mixer) FadeTo(id string) (instance string, ok bool) {
	if id == m.current {
		return "", false
	}
	next, exists := m.actions[id]
	if !exists {
		return "", false
	}

	if prev, had := m.actions[m.current]; had {
		// a superseded play instance must never report completion
		delete(m.handlers, prev.instance)
		prev.fade(prev.weight, 0, m.crossfade)
	}

	next.time = 0
	next.finished = false
	next.running = true
	next.instance = m.ids.New()
	if m.current == "" {
		next.fade(1, 1, 0)
	} else {
		next.fade(0, 1, m.crossfade)
	}

	m.current = id
	return next.instance, true
}

// Restart plays id from its first frame even if it is already current,
// under a new play instance. One-shots use it so back-to-back drama clips
// still report completion.
func (m *Mixer) Restart(id string) (instance string, ok bool) {
	if id != m.current {
		return m.FadeTo(id)
	}
	a, exists := m.actions[id]
	if !exists {
		return "", false
	}

	delete(m.handlers, a.instance)
	a.time = 0
	a.finished = false
	a.running = true
	a.instance = m.ids.New()
	a.fade(1, 1, 0)

	return a.instance, true
}

// OnFinished registers fn to run once when play instance finishes. It is
// dropped if the instance is superseded first.
func (m *Mixer) OnFinished(instance string, fn func()) {
	if instance == "" || fn == nil {
		return
	}
	m.handlers[instance] = fn
}

// Pending reports whether a completion handler is registered for instance
func (m *Mixer) Pending(instance string) bool {
	_, ok := m.handlers[instance]
	return ok
}

// Update advances every running action by dt seconds and fires completion
// handlers for one-shot instances that reached their last frame.
func (m *Mixer) Update(dt float64) {
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}

	var done []string
	for _, id := range m.ActionIDs() {
		a := m.actions[id]
		if !a.running {
			continue
		}

		a.advanceFade(dt)
		if a.weight <= 0 && a.fadeDuration == 0 && id != m.current {
			a.running = false
			continue
		}

		a.time += dt
		if a.Loop {
			if a.Duration > 0 {
				a.time = math.Mod(a.time, a.Duration)
			}
			continue
		}

		if a.time >= a.Duration {
			a.time = a.Duration
			if !a.finished {
				a.finished = true
				done = append(done, a.instance)
			}
		}
	}

	for _, instance := range done {
		if fn, ok := m.handlers[instance]; ok {
			delete(m.handlers, instance)
			fn()
		}
	}
}
