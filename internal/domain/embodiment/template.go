package embodiment

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Node is one element of a model's scene graph
type Node struct {
	Name        string
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
	Scale       mgl64.Vec3
	Mesh        *Mesh
	Skin        *Skin
	Children    []*Node
	Parent      *Node
}

// NewNode returns a node with an identity transform
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// AddChild attaches child under n
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// LocalMatrix returns the node's TRS matrix
func (n *Node) LocalMatrix() mgl64.Mat4 {
	t := mgl64.Translate3D(n.Translation.X(), n.Translation.Y(), n.Translation.Z())
	r := n.Rotation.Normalize().Mat4()
	s := mgl64.Scale3D(n.Scale.X(), n.Scale.Y(), n.Scale.Z())
	return t.Mul4(r).Mul4(s)
}

// Walk visits n and its descendants depth-first with their world matrices
func (n *Node) Walk(parent mgl64.Mat4, fn func(node *Node, world mgl64.Mat4)) {
	world := parent.Mul4(n.LocalMatrix())
	fn(n, world)
	for _, c := range n.Children {
		c.Walk(world, fn)
	}
}

// Mesh is read-only geometry shared between a template and its clones.
// Only the local bounds are kept; vertex data stays with the renderer.
type Mesh struct {
	Name      string
	Min       mgl64.Vec3
	Max       mgl64.Vec3
	Materials []*Material
}

// Skin binds a mesh to a set of joint nodes
type Skin struct {
	Name     string
	Joints   []*Node
	Skeleton *Node
}

// Clip is a named animation clip
type Clip struct {
	ID         string
	SourceName string
	Duration   float64
}

// Template is a loaded model plus its clip set. It is read-only once loaded
// and cloned for every character that uses it.
type Template struct {
	Source          string
	Root            *Node
	Clips           map[string]*Clip
	// SourceClips holds the file's animations in file order, before inference
	SourceClips     []*Clip
	ReferenceHeight float64
	Skinned         bool
	Inference       *Inference
}

// ClipIDs returns the IDs of the template's clips
func (t *Template) ClipIDs() []string {
	ids := make([]string, 0, len(t.Clips))
	for id := range t.Clips {
		ids = append(ids, id)
	}
	return ids
}
