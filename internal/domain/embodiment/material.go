package embodiment

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Imported models regularly ship chrome-like or glowing materials that look
// broken under the stage lighting. These limits are applied once at load.
const (
	MaxMetalness         = 0.6
	MinRoughness         = 0.25
	MaxEmissiveComponent = 1.0
	MaxEmissiveStrength  = 1.0
)

// Material holds the PBR factors the stage cares about
type Material struct {
	Name             string
	Metalness        float64
	Roughness        float64
	Emissive         mgl64.Vec3
	EmissiveStrength float64
}

// Clamp pins the material factors into the stage's safe range. It reports
// whether anything changed.
func (m *Material) Clamp() bool {
	changed := false

	if m.Metalness > MaxMetalness {
		m.Metalness = MaxMetalness
		changed = true
	}
	if m.Metalness < 0 {
		m.Metalness = 0
		changed = true
	}
	if m.Roughness < MinRoughness {
		m.Roughness = MinRoughness
		changed = true
	}
	if m.Roughness > 1 {
		m.Roughness = 1
		changed = true
	}
	for i := 0; i < 3; i++ {
		if m.Emissive[i] > MaxEmissiveComponent {
			m.Emissive[i] = MaxEmissiveComponent
			changed = true
		}
	}
	if m.EmissiveStrength > MaxEmissiveStrength {
		m.EmissiveStrength = MaxEmissiveStrength
		changed = true
	}

	return changed
}
