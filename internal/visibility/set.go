// Package visibility derives which faces of a section can see each other
// through its non-opaque cells.
package visibility

import (
	"strings"

	"chunkmesh/internal/world"
)

const faceCount = len(world.Directions)

// Set is a symmetric 6x6 face-to-face visibility matrix stored as a bitset.
type Set struct {
	bits uint64
}

func bit(a, b world.Direction) uint64 {
	return 1 << (uint(a)*uint(faceCount) + uint(b))
}

// Visible reports whether face a can see face b.
func (s Set) Visible(a, b world.Direction) bool {
	return s.bits&bit(a, b) != 0
}

// Set marks a and b as mutually visible or not.
func (s *Set) Set(a, b world.Direction, visible bool) {
	if visible {
		s.bits |= bit(a, b) | bit(b, a)
	} else {
		s.bits &^= bit(a, b) | bit(b, a)
	}
}

// Add marks every pair of faces in faces as mutually visible.
func (s *Set) Add(faces []world.Direction) {
	for _, a := range faces {
		for _, b := range faces {
			s.Set(a, b, true)
		}
	}
}

// SetAll marks every pair visible or invisible.
func (s *Set) SetAll(visible bool) {
	if visible {
		s.bits = 1<<(faceCount*faceCount) - 1
	} else {
		s.bits = 0
	}
}

// All returns a set where every face sees every other.
func All() Set {
	var s Set
	s.SetAll(true)
	return s
}

func (s Set) String() string {
	var sb strings.Builder
	sb.WriteByte(' ')
	for _, d := range world.Directions {
		sb.WriteByte(d.String()[0])
	}
	for _, a := range world.Directions {
		sb.WriteByte('\n')
		sb.WriteByte(a.String()[0])
		for _, b := range world.Directions {
			if a == b {
				sb.WriteByte(' ')
			} else if s.Visible(a, b) {
				sb.WriteByte('Y')
			} else {
				sb.WriteByte('n')
			}
		}
	}
	return sb.String()
}
