package embodiment

// CloneTree copies a template's scene graph for one character. Skinned
// templates need the skeleton-aware path: a plain deep clone would leave the
// cloned skins pointing at the template's joints, so every clone would be
// driven by the same bones.
func CloneTree(t *Template) *Node {
	if t == nil || t.Root == nil {
		return nil
	}
	if t.Skinned {
		return cloneSkinned(t.Root)
	}
	root, _ := deepClone(t.Root, nil, nil)
	return root
}

// deepClone copies the node tree. Meshes are shared; skins are shared as-is,
// which is only correct for unskinned trees.
func deepClone(src, parent *Node, mapping map[*Node]*Node) (*Node, map[*Node]*Node) {
	if mapping == nil {
		mapping = make(map[*Node]*Node)
	}

	dst := &Node{
		Name:        src.Name,
		Translation: src.Translation,
		Rotation:    src.Rotation,
		Scale:       src.Scale,
		Mesh:        src.Mesh,
		Skin:        src.Skin,
		Parent:      parent,
	}
	mapping[src] = dst

	for _, c := range src.Children {
		child, _ := deepClone(c, dst, mapping)
		dst.Children = append(dst.Children, child)
	}

	return dst, mapping
}

func cloneSkinned(src *Node) *Node {
	root, mapping := deepClone(src, nil, nil)

	rebound := make(map[*Skin]*Skin)
	for orig, cloned := range mapping {
		if orig.Skin == nil {
			continue
		}
		if s, ok := rebound[orig.Skin]; ok {
			cloned.Skin = s
			continue
		}

		s := &Skin{
			Name:   orig.Skin.Name,
			Joints: make([]*Node, len(orig.Skin.Joints)),
		}
		for i, j := range orig.Skin.Joints {
			if mapped, ok := mapping[j]; ok {
				s.Joints[i] = mapped
			}
		}
		if orig.Skin.Skeleton != nil {
			s.Skeleton = mapping[orig.Skin.Skeleton]
		}

		rebound[orig.Skin] = s
		cloned.Skin = s
	}

	return root
}
