package embodiment

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
)

// Kind is the visual backing of a character
type Kind string

const (
	KindTemplate   Kind = "template"
	KindCustom     Kind = "custom"
	KindProcedural Kind = "procedural"
)

// Bounds clamps requested heights and computed scales to a sane range
type Bounds struct {
	MinHeight float64
	MaxHeight float64
	MinScale  float64
	MaxScale  float64
}

// DefaultBounds returns the bounds used when none are configured
func DefaultBounds() Bounds {
	return Bounds{MinHeight: 0.5, MaxHeight: 3.0, MinScale: 0.01, MaxScale: 100}
}

// ClampHeight pins h into [MinHeight, MaxHeight]; NaN maps to MinHeight
func (b Bounds) ClampHeight(h float64) float64 {
	if math.IsNaN(h) {
		return b.MinHeight
	}
	return clamp(h, b.MinHeight, b.MaxHeight)
}

// ClampScale pins s into [MinScale, MaxScale]; NaN maps to 1 before clamping
func (b Bounds) ClampScale(s float64) float64 {
	if math.IsNaN(s) {
		s = 1
	}
	return clamp(s, b.MinScale, b.MaxScale)
}

// Instance is one character's private copy of a template
type Instance struct {
	Kind   Kind
	Source string
	Root   *Node
	Scale  float64
	Height float64
	Clips  map[string]*Clip
}

// Instantiate clones t and scales the clone to targetHeight. A clone whose
// measured height is degenerate is rejected so the caller can fall back.
func Instantiate(t *Template, kind Kind, targetHeight float64, b Bounds) (*Instance, error) {
	if t == nil || t.Root == nil {
		return nil, apperr.InvalidArgument("template has no scene")
	}
	if t.ReferenceHeight < DegenerateHeight {
		return nil, apperr.Newf(apperr.CodeDegenerateGeometry, "template %s has no measurable height", t.Source)
	}

	height := b.ClampHeight(targetHeight)
	scale := b.ClampScale(height / t.ReferenceHeight)

	root := NewNode("embodiment")
	root.Scale = mgl64.Vec3{scale, scale, scale}
	root.AddChild(CloneTree(t))

	measured := MeasureHeight(root)
	if measured < DegenerateHeight {
		return nil, apperr.Newf(apperr.CodeDegenerateGeometry, "clone of %s measured %.6f", t.Source, measured).
			WithMeta("scale", scale)
	}

	clips := make(map[string]*Clip, len(t.Clips))
	for id, c := range t.Clips {
		clips[id] = c
	}

	return &Instance{
		Kind:   kind,
		Source: t.Source,
		Root:   root,
		Scale:  scale,
		Height: measured,
		Clips:  clips,
	}, nil
}

// Procedural builds non-skinned stand-in geometry (a body block and a head
// block) of the requested height. It has no clips.
func Procedural(targetHeight float64, b Bounds) *Instance {
	h := b.ClampHeight(targetHeight)

	root := NewNode("procedural")
	body := NewNode("body")
	body.Mesh = &Mesh{
		Name: "body",
		Min:  mgl64.Vec3{-0.25 * h / 1.7, 0, -0.15 * h / 1.7},
		Max:  mgl64.Vec3{0.25 * h / 1.7, 0.78 * h, 0.15 * h / 1.7},
	}
	head := NewNode("head")
	head.Mesh = &Mesh{
		Name: "head",
		Min:  mgl64.Vec3{-0.12 * h / 1.7, 0.8 * h, -0.12 * h / 1.7},
		Max:  mgl64.Vec3{0.12 * h / 1.7, h, 0.12 * h / 1.7},
	}
	root.AddChild(body)
	root.AddChild(head)

	return &Instance{
		Kind:   KindProcedural,
		Source: "procedural",
		Root:   root,
		Scale:  1,
		Height: h,
		Clips:  map[string]*Clip{},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
