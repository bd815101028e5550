package models

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator assigns ids to new nodes and edges.
type IDGenerator interface {
	NodeID() string
	EdgeID() string
}

// Sequence generates ids of the form "node_<n>_<suffix>" where n is a
// per-generator counter and suffix is random, so ids stay unique across
// generators while remaining ordered within one.
type Sequence struct {
	counter atomic.Uint64
}

// NewSequence creates a new id sequence starting at 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NodeID returns a fresh node id.
func (s *Sequence) NodeID() string {
	return s.next("node")
}

// EdgeID returns a fresh edge id.
func (s *Sequence) EdgeID() string {
	return s.next("edge")
}

func (s *Sequence) next(prefix string) string {
	n := s.counter.Add(1)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	return fmt.Sprintf("%s_%d_%s", prefix, n, suffix)
}
