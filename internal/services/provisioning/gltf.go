package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"

	"github.com/KirkDiggler/bot-stage/internal/clients/modelstore"
	"github.com/KirkDiggler/bot-stage/internal/domain/embodiment"
	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
)

const extEmissiveStrength = "KHR_materials_emissive_strength"

// GLTFLoader fetches GLB (or JSON glTF) payloads and decodes them into
// templates
type GLTFLoader struct {
	client   modelstore.Client
	keywords []embodiment.ClipKeyword
	logger   *slog.Logger
}

// GLTFLoaderConfig configures a GLTFLoader
type GLTFLoaderConfig struct {
	Client modelstore.Client // Required
	// Keywords overrides the clip inference table
	Keywords []embodiment.ClipKeyword
	Logger   *slog.Logger
}

// NewGLTFLoader creates a loader backed by a modelstore client
func NewGLTFLoader(cfg *GLTFLoaderConfig) *GLTFLoader {
	if cfg == nil || cfg.Client == nil {
		panic("modelstore client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GLTFLoader{client: cfg.Client, keywords: cfg.Keywords, logger: logger}
}

// Load fetches and decodes one model
func (l *GLTFLoader) Load(ctx context.Context, url string) (*embodiment.Template, error) {
	data, err := l.client.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	t, err := Decode(url, data, l.keywords)
	if err != nil {
		return nil, err
	}

	if t.Inference != nil && len(t.Inference.Unmatched) > 0 {
		l.logger.Debug("unmatched clips", "url", url, "clips", t.Inference.Unmatched)
	}
	return t, nil
}

// Decode parses a GLB or glTF payload into a template. Clips are named with
// the keyword table (nil means the default table); source clips nothing
// claimed stay available under their own names.
func Decode(source string, data []byte, keywords []embodiment.ClipKeyword) (*embodiment.Template, error) {
	var doc gltf.Document
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeLoadFailed, "decode model").WithMeta("url", source)
	}

	d := &decoder{doc: &doc}
	root, err := d.scene()
	if err != nil {
		return nil, apperr.Wrap(err, "build scene").WithMeta("url", source)
	}

	t := &embodiment.Template{
		Source:  source,
		Root:    root,
		Skinned: len(doc.Skins) > 0,
	}

	t.SourceClips = d.clips()
	names := make([]string, len(t.SourceClips))
	byName := make(map[string]*embodiment.Clip, len(t.SourceClips))
	for i, c := range t.SourceClips {
		names[i] = c.SourceName
		byName[c.SourceName] = c
	}

	t.Inference = embodiment.InferClips(names, keywords)
	t.Clips = make(map[string]*embodiment.Clip, len(names))
	for id, name := range t.Inference.Matched {
		src := byName[name]
		t.Clips[id] = &embodiment.Clip{ID: id, SourceName: name, Duration: src.Duration}
	}
	for _, name := range t.Inference.Unmatched {
		if _, taken := t.Clips[name]; taken {
			continue
		}
		t.Clips[name] = &embodiment.Clip{ID: name, SourceName: name, Duration: byName[name].Duration}
	}

	t.ReferenceHeight = embodiment.MeasureHeight(root)

	return t, nil
}

type decoder struct {
	doc       *gltf.Document
	nodes     map[int]*embodiment.Node
	meshes    map[int]*embodiment.Mesh
	materials map[int]*embodiment.Material
}

// scene builds the default scene (or the first one, or every parentless
// node) under a single root
func (d *decoder) scene() (*embodiment.Node, error) {
	d.nodes = make(map[int]*embodiment.Node, len(d.doc.Nodes))
	d.meshes = make(map[int]*embodiment.Mesh)
	d.materials = make(map[int]*embodiment.Material)

	var roots []int
	switch {
	case d.doc.Scene != nil && int(*d.doc.Scene) < len(d.doc.Scenes):
		roots = toInts(d.doc.Scenes[int(*d.doc.Scene)].Nodes)
	case len(d.doc.Scenes) > 0:
		roots = toInts(d.doc.Scenes[0].Nodes)
	default:
		roots = d.parentless()
	}

	root := embodiment.NewNode("scene")
	for _, idx := range roots {
		n, err := d.node(idx, 0)
		if err != nil {
			return nil, err
		}
		root.AddChild(n)
	}

	for i, s := range d.doc.Skins {
		skin := &embodiment.Skin{Name: s.Name}
		if skin.Name == "" {
			skin.Name = fmt.Sprintf("skin_%d", i)
		}
		for _, j := range s.Joints {
			if joint := d.nodes[int(j)]; joint != nil {
				skin.Joints = append(skin.Joints, joint)
			}
		}
		if s.Skeleton != nil {
			skin.Skeleton = d.nodes[int(*s.Skeleton)]
		}
		for idx, gn := range d.doc.Nodes {
			if gn.Skin != nil && int(*gn.Skin) == i && d.nodes[idx] != nil {
				d.nodes[idx].Skin = skin
			}
		}
	}

	return root, nil
}

func (d *decoder) node(idx, depth int) (*embodiment.Node, error) {
	if idx < 0 || idx >= len(d.doc.Nodes) {
		return nil, apperr.LoadFailedf("node index %d out of range", idx)
	}
	if depth > len(d.doc.Nodes) {
		return nil, apperr.LoadFailedf("node hierarchy has a cycle at %d", idx)
	}
	if n, ok := d.nodes[idx]; ok {
		return nil, apperr.LoadFailedf("node %s has more than one parent", n.Name)
	}

	gn := d.doc.Nodes[idx]
	n := embodiment.NewNode(gn.Name)
	if n.Name == "" {
		n.Name = fmt.Sprintf("node_%d", idx)
	}
	d.nodes[idx] = n

	m := mat4(gn.MatrixOrDefault())
	if m != mgl64.Ident4() && m != (mgl64.Mat4{}) {
		n.Translation, n.Rotation, n.Scale = decompose(m)
	} else {
		t := gn.TranslationOrDefault()
		r := gn.RotationOrDefault()
		s := gn.ScaleOrDefault()
		n.Translation = vec3(t[:])
		n.Rotation = mgl64.Quat{W: float64(r[3]), V: vec3(r[:3])}
		n.Scale = vec3(s[:])
	}

	if gn.Mesh != nil {
		mesh, err := d.mesh(int(*gn.Mesh))
		if err != nil {
			return nil, err
		}
		n.Mesh = mesh
	}

	for _, c := range gn.Children {
		child, err := d.node(int(c), depth+1)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}

	return n, nil
}

func (d *decoder) parentless() []int {
	hasParent := make(map[int]bool)
	for _, n := range d.doc.Nodes {
		for _, c := range n.Children {
			hasParent[int(c)] = true
		}
	}
	var roots []int
	for i := range d.doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// mesh keeps the union of the primitives' POSITION bounds
func (d *decoder) mesh(idx int) (*embodiment.Mesh, error) {
	if m, ok := d.meshes[idx]; ok {
		return m, nil
	}
	if idx < 0 || idx >= len(d.doc.Meshes) {
		return nil, apperr.LoadFailedf("mesh index %d out of range", idx)
	}

	gm := d.doc.Meshes[idx]
	mesh := &embodiment.Mesh{Name: gm.Name}
	first := true

	for _, p := range gm.Primitives {
		if p.Material != nil {
			if mat := d.material(int(*p.Material)); mat != nil {
				mesh.Materials = append(mesh.Materials, mat)
			}
		}

		pos, ok := p.Attributes[gltf.POSITION]
		if !ok || int(pos) >= len(d.doc.Accessors) {
			continue
		}
		acc := d.doc.Accessors[int(pos)]
		if len(acc.Min) < 3 || len(acc.Max) < 3 {
			continue
		}

		lo := vec3(acc.Min)
		hi := vec3(acc.Max)
		if first {
			mesh.Min, mesh.Max = lo, hi
			first = false
			continue
		}
		for i := 0; i < 3; i++ {
			mesh.Min[i] = math.Min(mesh.Min[i], lo[i])
			mesh.Max[i] = math.Max(mesh.Max[i], hi[i])
		}
	}

	if first {
		// nothing measurable; keep the mesh out of height measurement
		d.meshes[idx] = nil
		return nil, nil
	}

	d.meshes[idx] = mesh
	return mesh, nil
}

func (d *decoder) material(idx int) *embodiment.Material {
	if m, ok := d.materials[idx]; ok {
		return m
	}
	if idx < 0 || idx >= len(d.doc.Materials) {
		return nil
	}

	gm := d.doc.Materials[idx]
	mat := &embodiment.Material{
		Name:             gm.Name,
		Metalness:        1,
		Roughness:        1,
		Emissive:         vec3(gm.EmissiveFactor[:]),
		EmissiveStrength: 1,
	}
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		mat.Metalness = float64(pbr.MetallicFactorOrDefault())
		mat.Roughness = float64(pbr.RoughnessFactorOrDefault())
	}
	if s, ok := emissiveStrength(gm.Extensions); ok {
		mat.EmissiveStrength = s
	}

	mat.Clamp()
	d.materials[idx] = mat
	return mat
}

// emissiveStrength reads KHR_materials_emissive_strength, which arrives as
// raw JSON when no extension decoder is registered
func emissiveStrength(exts gltf.Extensions) (float64, bool) {
	raw, ok := exts[extEmissiveStrength]
	if !ok {
		return 0, false
	}

	var body struct {
		EmissiveStrength *float64 `json:"emissiveStrength"`
	}
	switch v := raw.(type) {
	case json.RawMessage:
		if err := json.Unmarshal(v, &body); err != nil {
			return 0, false
		}
	case []byte:
		if err := json.Unmarshal(v, &body); err != nil {
			return 0, false
		}
	case map[string]any:
		if f, ok := v["emissiveStrength"].(float64); ok {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}

	if body.EmissiveStrength == nil {
		return 1, true
	}
	return *body.EmissiveStrength, true
}

// clips lists the document's animations in file order. Duration is the
// latest keyframe time across the animation's samplers.
func (d *decoder) clips() []*embodiment.Clip {
	out := make([]*embodiment.Clip, 0, len(d.doc.Animations))
	for i, a := range d.doc.Animations {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("animation_%d", i)
		}

		duration := 0.0
		for _, s := range a.Samplers {
			in := int(s.Input)
			if in < 0 || in >= len(d.doc.Accessors) {
				continue
			}
			if last := d.doc.Accessors[in].Max; len(last) > 0 {
				duration = math.Max(duration, float64(last[0]))
			}
		}

		out = append(out, &embodiment.Clip{ID: name, SourceName: name, Duration: duration})
	}
	return out
}

// decompose splits an affine matrix into translation, rotation and scale
func decompose(m mgl64.Mat4) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	translation := m.Col(3).Vec3()

	sx, sy, sz := mgl64.Extract3DScale(m)
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	scale := mgl64.Vec3{sx, sy, sz}

	rot := mgl64.Ident3()
	if sx != 0 && sy != 0 && sz != 0 {
		rot = mgl64.Mat3FromCols(
			m.Col(0).Vec3().Mul(1/sx),
			m.Col(1).Vec3().Mul(1/sy),
			m.Col(2).Vec3().Mul(1/sz),
		)
	}

	return translation, mgl64.Mat4ToQuat(rot.Mat4()), scale
}

// glTF stores every float as float32
func vec3(v []float32) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

func mat4(v [16]float32) mgl64.Mat4 {
	var m mgl64.Mat4
	for i, f := range v {
		m[i] = float64(f)
	}
	return m
}

func toInts[T ~int | ~uint32](in []T) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
