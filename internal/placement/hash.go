package placement

import (
	"hash/fnv"
)

// splitmix64 is a fast 64-bit mixer used to spread FNV output
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Hash returns a stable 64-bit hash of key under a salt
func Hash(salt, key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(salt))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key))
	return splitmix64(h.Sum64())
}

// Unit maps a hash onto [0, 1)
func Unit(h uint64) float64 {
	return float64(h>>11) / float64(uint64(1)<<53)
}

// Units derives two independent values in [0, 1) from one key
func Units(salt, key string) (float64, float64) {
	h := Hash(salt, key)
	return Unit(h), Unit(splitmix64(h))
}
