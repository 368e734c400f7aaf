package embodiment

import (
	"strings"
)

// Clip IDs the stage drives directly
const (
	ClipIdle        = "idle"
	ClipWalk        = "walk"
	ClipDance       = "dance"
	ClipHeadbob     = "headbob"
	ClipChat        = "chat"
	ClipThink       = "think"
	ClipPlay        = "play"
	ClipPunch       = "punch"
	ClipFallingDown = "fallingDown"
	ClipGettingUp   = "gettingUp"
)

// ClipKeyword maps a stage clip ID to the substrings that identify it in
// arbitrary source clip names
type ClipKeyword struct {
	ID       string   `yaml:"id"`
	Keywords []string `yaml:"keywords"`
}

// DefaultClipKeywords is the inference table for custom models. Order
// matters: earlier entries claim a source clip first, so the specific
// drama clips come before the generic "stand"/"idle" match.
var DefaultClipKeywords = []ClipKeyword{
	{ID: ClipGettingUp, Keywords: []string{"getup", "get_up", "get up", "getting up", "gettingup", "standup", "stand_up", "stand up"}},
	{ID: ClipFallingDown, Keywords: []string{"fall", "knockdown", "knocked", "death", "die"}},
	{ID: ClipPunch, Keywords: []string{"punch", "hook", "jab", "strike", "hit"}},
	{ID: ClipWalk, Keywords: []string{"walk", "run", "jog", "locomotion"}},
	{ID: ClipDance, Keywords: []string{"danc", "groove", "shuffle"}},
	{ID: ClipHeadbob, Keywords: []string{"headbob", "head_bob", "bob", "nod"}},
	{ID: ClipChat, Keywords: []string{"talk", "chat", "gesture", "wave"}},
	{ID: ClipThink, Keywords: []string{"think", "ponder", "thoughtful"}},
	{ID: ClipPlay, Keywords: []string{"play", "guitar", "drum", "keys", "instrument", "perform"}},
	{ID: ClipIdle, Keywords: []string{"idle", "stand", "breath", "rest"}},
}

// Inference is the outcome of matching source clip names against the table
type Inference struct {
	// Matched maps stage clip ID to source clip name
	Matched map[string]string

	// Unmatched lists source clips no table entry claimed, in source order
	Unmatched []string

	// IdleFallback is set when no source clip matched idle and the first
	// source clip was used instead
	IdleFallback string
}

// InferClips assigns each table ID the first unclaimed source clip whose
// lowercased name contains one of its keywords. If nothing matched idle,
// the first source clip also serves as idle.
func InferClips(sourceNames []string, table []ClipKeyword) *Inference {
	if table == nil {
		table = DefaultClipKeywords
	}

	inf := &Inference{Matched: make(map[string]string)}
	claimed := make(map[int]bool, len(sourceNames))

	for _, entry := range table {
		if _, done := inf.Matched[entry.ID]; done {
			continue
		}
		for i, name := range sourceNames {
			if claimed[i] {
				continue
			}
			if containsAny(strings.ToLower(name), entry.Keywords) {
				inf.Matched[entry.ID] = name
				claimed[i] = true
				break
			}
		}
	}

	for i, name := range sourceNames {
		if !claimed[i] {
			inf.Unmatched = append(inf.Unmatched, name)
		}
	}

	if _, ok := inf.Matched[ClipIdle]; !ok && len(sourceNames) > 0 {
		inf.Matched[ClipIdle] = sourceNames[0]
		inf.IdleFallback = sourceNames[0]
	}

	return inf
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// IsOneShot reports whether a clip plays once and holds its last frame
func IsOneShot(clipID string) bool {
	switch clipID {
	case ClipPunch, ClipFallingDown, ClipGettingUp:
		return true
	}
	return false
}
