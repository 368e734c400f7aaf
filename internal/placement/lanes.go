package placement

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Path is a polyline on the stage floor
type Path []mgl64.Vec3

// Length returns the total length of the path
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p); i++ {
		total += p[i].Sub(p[i-1]).Len()
	}
	return total
}

// PointAt returns the point at fraction t of the path's length together
// with the unit direction of the segment it falls on
func (p Path) PointAt(t float64) (mgl64.Vec3, mgl64.Vec3) {
	switch len(p) {
	case 0:
		return mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}
	case 1:
		return p[0], mgl64.Vec3{1, 0, 0}
	}

	remaining := clampUnit(t) * p.Length()
	for i := 1; i < len(p); i++ {
		seg := p[i].Sub(p[i-1])
		segLen := seg.Len()
		if segLen == 0 {
			continue
		}
		dir := seg.Mul(1 / segLen)
		if remaining <= segLen || i == len(p)-1 {
			if remaining > segLen {
				remaining = segLen
			}
			return p[i-1].Add(dir.Mul(remaining)), dir
		}
		remaining -= segLen
	}

	return p[len(p)-1], mgl64.Vec3{1, 0, 0}
}

// Lane spreads bots deterministically along a path
type Lane struct {
	Salt   string
	Path   Path
	Spread float64
}

// Point returns the bot's spot: a hash-chosen position along the path,
// pushed sideways (in the floor plane) by up to half the spread.
func (l Lane) Point(name string) mgl64.Vec3 {
	along, side := Units(l.Salt, name)
	p, dir := l.Path.PointAt(along)
	normal := mgl64.Vec3{-dir.Z(), 0, dir.X()}
	return p.Add(normal.Mul((side - 0.5) * l.Spread))
}

// Lanes holds the arrival and queue lanes
type Lanes struct {
	Arrival Lane
	Queue   Lane
}

// DefaultLanes places arrivals along the back edge of the stage and the
// queue along the left side
func DefaultLanes() Lanes {
	return Lanes{
		Arrival: Lane{
			Salt:   "arrival",
			Path:   Path{{-8, 0, -9}, {8, 0, -9}},
			Spread: 1.5,
		},
		Queue: Lane{
			Salt:   "queue",
			Path:   Path{{-10, 0, 6}, {-10, 0, -4}, {-6, 0, -7}},
			Spread: 2.0,
		},
	}
}

// ArrivalPoint returns where a bot spawns
func (l Lanes) ArrivalPoint(name string) mgl64.Vec3 {
	return l.Arrival.Point(name)
}

// QueuePoint returns where an unassigned bot rests
func (l Lanes) QueuePoint(name string) mgl64.Vec3 {
	return l.Queue.Point(name)
}

func clampUnit(t float64) float64 {
	if t < 0 || t != t {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
