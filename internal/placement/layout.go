package placement

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/bot-stage/internal/domain/avatar"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
)

// unlisted gatherings are spread on a ring of this radius around the origin
const gatheringRingRadius = 5.0

// SlotPose is where a slot holder stands and which way it faces
type SlotPose struct {
	Position mgl64.Vec3
	Rotation float64
	Role     string
}

// Layout answers the stage's placement questions
type Layout struct {
	Slots    map[string]SlotPose
	Jams     map[string]mgl64.Vec3
	Sessions map[string]mgl64.Vec3
	Lanes    Lanes

	// Clips overrides the custom model keyword table when non-empty
	Clips []embodiment.ClipKeyword
}

// DefaultLayout is a small band stage with a front row of slots
func DefaultLayout() *Layout {
	return &Layout{
		Slots: map[string]SlotPose{
			"drums":  {Position: mgl64.Vec3{0, 0, 2}, Rotation: math.Pi, Role: "drums"},
			"bass":   {Position: mgl64.Vec3{-2.5, 0, 1}, Rotation: math.Pi, Role: "bass"},
			"keys":   {Position: mgl64.Vec3{2.5, 0, 1}, Rotation: math.Pi, Role: "keys"},
			"guitar": {Position: mgl64.Vec3{-5, 0, 0}, Rotation: math.Pi, Role: "guitar"},
			"vocals": {Position: mgl64.Vec3{5, 0, 0}, Rotation: math.Pi, Role: "vocals"},
		},
		Jams:     map[string]mgl64.Vec3{},
		Sessions: map[string]mgl64.Vec3{},
		Lanes:    DefaultLanes(),
	}
}

// SlotPose looks up a slot by ID
func (l *Layout) SlotPose(slotID string) (SlotPose, bool) {
	pose, ok := l.Slots[slotID]
	return pose, ok
}

// GatheringCenter returns the center for a jam or session. IDs missing from
// the layout get a stable spot on a ring around the stage.
func (l *Layout) GatheringCenter(kind avatar.RoleKind, id string) mgl64.Vec3 {
	var table map[string]mgl64.Vec3
	switch kind {
	case avatar.RoleJam:
		table = l.Jams
	case avatar.RoleSession:
		table = l.Sessions
	}
	if c, ok := table[id]; ok {
		return c
	}

	u, _ := Units(string(kind), id)
	angle := 2 * math.Pi * u
	return mgl64.Vec3{
		gatheringRingRadius * math.Sin(angle),
		0,
		gatheringRingRadius * math.Cos(angle),
	}
}

// Arrival returns the spawn point for a bot
func (l *Layout) Arrival(name string) mgl64.Vec3 {
	return l.Lanes.ArrivalPoint(name)
}

// Queue returns the rest point for an unassigned bot
func (l *Layout) Queue(name string) mgl64.Vec3 {
	return l.Lanes.QueuePoint(name)
}

type layoutFile struct {
	Slots    map[string]slotEntry     `yaml:"slots"`
	Jams     map[string][]float64     `yaml:"jams"`
	Sessions map[string][]float64     `yaml:"sessions"`
	Lanes    map[string]laneEntry     `yaml:"lanes"`
	Clips    []embodiment.ClipKeyword `yaml:"clips"`
}

type slotEntry struct {
	Position []float64 `yaml:"position"`
	Rotation float64   `yaml:"rotation"`
	Role     string    `yaml:"role"`
}

type laneEntry struct {
	Path   [][]float64 `yaml:"path"`
	Spread *float64    `yaml:"spread"`
}

// LoadLayout reads a YAML layout file. Sections the file leaves out keep
// their defaults.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrapf(err, "read layout %s", path)
	}
	return ParseLayout(data)
}

// ParseLayout decodes layout YAML
func ParseLayout(data []byte) (*Layout, error) {
	var f layoutFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeInvalidArgument, "decode layout")
	}

	layout := DefaultLayout()

	if len(f.Slots) > 0 {
		layout.Slots = make(map[string]SlotPose, len(f.Slots))
		for id, s := range f.Slots {
			pos, err := toVec3(s.Position)
			if err != nil {
				return nil, apperr.InvalidArgument(fmt.Sprintf("slot %s: %v", id, err))
			}
			role := s.Role
			if role == "" {
				role = id
			}
			layout.Slots[id] = SlotPose{Position: pos, Rotation: s.Rotation, Role: role}
		}
	}

	for id, c := range f.Jams {
		pos, err := toVec3(c)
		if err != nil {
			return nil, apperr.InvalidArgument(fmt.Sprintf("jam %s: %v", id, err))
		}
		layout.Jams[id] = pos
	}
	for id, c := range f.Sessions {
		pos, err := toVec3(c)
		if err != nil {
			return nil, apperr.InvalidArgument(fmt.Sprintf("session %s: %v", id, err))
		}
		layout.Sessions[id] = pos
	}

	for name, entry := range f.Lanes {
		var lane *Lane
		switch name {
		case "arrival":
			lane = &layout.Lanes.Arrival
		case "queue":
			lane = &layout.Lanes.Queue
		default:
			return nil, apperr.InvalidArgument(fmt.Sprintf("unknown lane %q", name))
		}
		if len(entry.Path) > 0 {
			path := make(Path, 0, len(entry.Path))
			for _, p := range entry.Path {
				v, err := toVec3(p)
				if err != nil {
					return nil, apperr.InvalidArgument(fmt.Sprintf("lane %s: %v", name, err))
				}
				path = append(path, v)
			}
			lane.Path = path
		}
		if entry.Spread != nil {
			lane.Spread = math.Max(0, *entry.Spread)
		}
	}

	layout.Clips = f.Clips

	return layout, nil
}

func toVec3(v []float64) (mgl64.Vec3, error) {
	switch len(v) {
	case 2:
		// floor coordinates
		return mgl64.Vec3{v[0], 0, v[1]}, nil
	case 3:
		return mgl64.Vec3{v[0], v[1], v[2]}, nil
	default:
		return mgl64.Vec3{}, fmt.Errorf("expected 2 or 3 coordinates, got %d", len(v))
	}
}
