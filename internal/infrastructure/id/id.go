package id

import "github.com/google/uuid"

// UUID mints random (v4) identifiers.
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

// Sequence returns ids from a fixed list, then falls back to UUIDs. Tests use it
// to predict session and receipt ids.
type Sequence struct {
	ids []string
}

func NewSequence(ids ...string) *Sequence { return &Sequence{ids: ids} }

func (s *Sequence) NewID() string {
	if len(s.ids) == 0 {
		return uuid.NewString()
	}
	next := s.ids[0]
	s.ids = s.ids[1:]
	return next
}
