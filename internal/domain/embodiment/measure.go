package embodiment

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DegenerateHeight is the measured height below which a clone is unusable
const DegenerateHeight = 1e-3

// MeasureHeight returns the world-space vertical extent of every mesh under root
func MeasureHeight(root *Node) float64 {
	if root == nil {
		return 0
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	root.Walk(mgl64.Ident4(), func(n *Node, world mgl64.Mat4) {
		if n.Mesh == nil {
			return
		}
		for _, corner := range boxCorners(n.Mesh.Min, n.Mesh.Max) {
			p := world.Mul4x1(corner.Vec4(1))
			minY = math.Min(minY, p.Y())
			maxY = math.Max(maxY, p.Y())
		}
	})

	if minY > maxY {
		return 0
	}
	return maxY - minY
}

func boxCorners(lo, hi mgl64.Vec3) [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{lo.X(), lo.Y(), lo.Z()},
		{hi.X(), lo.Y(), lo.Z()},
		{lo.X(), hi.Y(), lo.Z()},
		{hi.X(), hi.Y(), lo.Z()},
		{lo.X(), lo.Y(), hi.Z()},
		{hi.X(), lo.Y(), hi.Z()},
		{lo.X(), hi.Y(), hi.Z()},
		{hi.X(), hi.Y(), hi.Z()},
	}
}
