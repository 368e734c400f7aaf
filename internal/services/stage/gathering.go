package stage

import (
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/KirkDiggler/bot-stage/internal/placement"
)

// DefaultGatheringRadius is used when no usable radius is configured
const DefaultGatheringRadius = 1.6

// jitterFraction bounds the hashed angle jitter as a fraction of half a
// member's arc, keeping neighbours' angles strictly ordered
const jitterFraction = 0.35

// GatheringOffset places member index of count around a shared center. The
// angle is spread evenly by index and nudged by a hash of name and index;
// the radius varies by the same hash. For count >= 2 every index gets a
// distinct angle, so members never overlap.
func GatheringOffset(name string, index, count int, radius float64) mgl64.Vec3 {
	if count < 1 {
		count = 1
	}
	if index < 0 {
		index = 0
	}
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		radius = DefaultGatheringRadius
	}

	u, v := placement.Units("gathering", name+"#"+strconv.Itoa(index))
	r := radius * (0.85 + 0.3*v)

	var angle float64
	if count == 1 {
		angle = 2 * math.Pi * u
		r *= 0.5
	} else {
		arc := math.Pi / float64(count)
		jitter := (2*u - 1) * jitterFraction * arc
		angle = 2*math.Pi*float64(index)/float64(count) + jitter
	}

	return mgl64.Vec3{r * math.Sin(angle), 0, r * math.Cos(angle)}
}

// facingToward returns the yaw that looks from 'from' to 'to'
func facingToward(from, to mgl64.Vec3) float64 {
	d := to.Sub(from)
	if d.X() == 0 && d.Z() == 0 {
		return 0
	}
	return math.Atan2(d.X(), d.Z())
}
