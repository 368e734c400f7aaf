package roster

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
	"github.com/KirkDiggler/bot-stage/internal/services/stage"
)

// Snapshot is the live membership: who holds which slot and who is in
// which jam or session
type Snapshot struct {
	Slots    []SlotHolder       `yaml:"slots" json:"slots"`
	Jams     []stage.GroupState `yaml:"jams" json:"jams"`
	Sessions []stage.GroupState `yaml:"sessions" json:"sessions"`
}

// SlotHolder is one occupied slot
type SlotHolder struct {
	SlotID       string  `yaml:"slot" json:"slot"`
	Bot          string  `yaml:"bot" json:"bot"`
	CustomURL    string  `yaml:"custom_url" json:"custom_url,omitempty"`
	CustomHeight float64 `yaml:"custom_height" json:"custom_height,omitempty"`
	// Overwrite marks a forced takeover; the previous holder gets the drama
	Overwrite bool `yaml:"overwrite" json:"overwrite,omitempty"`
}

// Validate checks that every bot holds at most one role
func (s *Snapshot) Validate() error {
	if s == nil {
		return apperr.InvalidArgument("snapshot is required")
	}

	holds := make(map[string]string)
	claim := func(bot, role string) error {
		if bot == "" {
			return apperr.InvalidArgument(fmt.Sprintf("%s has an empty bot name", role))
		}
		if prev, ok := holds[bot]; ok && prev != role {
			return apperr.InvalidArgument(fmt.Sprintf("bot %s holds both %s and %s", bot, prev, role))
		}
		holds[bot] = role
		return nil
	}

	slots := make(map[string]bool, len(s.Slots))
	for _, h := range s.Slots {
		if h.SlotID == "" {
			return apperr.InvalidArgument("slot holder has an empty slot ID")
		}
		if slots[h.SlotID] {
			return apperr.InvalidArgument(fmt.Sprintf("slot %s listed twice", h.SlotID))
		}
		slots[h.SlotID] = true
		if err := claim(h.Bot, "slot "+h.SlotID); err != nil {
			return err
		}
	}

	for _, groups := range []struct {
		kind string
		list []stage.GroupState
	}{{"jam", s.Jams}, {"session", s.Sessions}} {
		for _, g := range groups.list {
			if g.ID == "" {
				return apperr.InvalidArgument(groups.kind + " has an empty ID")
			}
			for _, p := range g.Participants {
				if err := claim(p, groups.kind+" "+g.ID); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// CustomURLs lists the custom models the snapshot asks for
func (s *Snapshot) CustomURLs() []string {
	var urls []string
	for _, h := range s.Slots {
		if h.CustomURL != "" {
			urls = append(urls, h.CustomURL)
		}
	}
	return urls
}

// ParseSnapshot decodes a YAML snapshot
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeInvalidArgument, "parse snapshot")
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// LoadSnapshot reads a YAML snapshot file
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrapf(err, "read snapshot %s", path)
	}
	return ParseSnapshot(data)
}
