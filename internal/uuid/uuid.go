// uuid simple generator that allows swapping in deterministic IDs
package uuid

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator is an interface for generating unique IDs
type Generator interface {
	New() string
}

// GoogleUUIDGenerator implements Generator using Google's UUID package
type GoogleUUIDGenerator struct{}

// New generates a new UUID string
func (g *GoogleUUIDGenerator) New() string {
	return uuid.New().String()
}

// NewGoogleUUIDGenerator creates a new GoogleUUIDGenerator
func NewGoogleUUIDGenerator() *GoogleUUIDGenerator {
	return &GoogleUUIDGenerator{}
}

// SequenceGenerator yields prefix-1, prefix-2, ... and is safe for concurrent use
type SequenceGenerator struct {
	prefix string
	n      atomic.Uint64
}

// NewSequenceGenerator creates a SequenceGenerator
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// New returns the next ID in the sequence
func (g *SequenceGenerator) New() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}
