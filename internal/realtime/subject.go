package realtime

import (
	"fmt"
	"strconv"
)

// SubjectKind distinguishes the two kinds of realtime receivers.
type SubjectKind string

// Subject kinds.
const (
	SubjectUser  SubjectKind = "user"
	SubjectAgent SubjectKind = "agent"
)

// Subject identifies who owns a connection. Users and agents have separate
// ID spaces, so user 7 and agent 7 are different subjects.
type Subject struct {
	Kind SubjectKind
	ID   int64
}

// User returns the subject for a user ID.
func User(id int64) Subject { return Subject{Kind: SubjectUser, ID: id} }

// Agent returns the subject for an agent ID.
func Agent(id int64) Subject { return Subject{Kind: SubjectAgent, ID: id} }

// Validate reports whether s names a known kind with a positive ID.
func (s Subject) Validate() error {
	switch s.Kind {
	case SubjectUser, SubjectAgent:
	default:
		return fmt.Errorf("%w: kind %q", ErrInvalidSubject, s.Kind)
	}
	if s.ID <= 0 {
		return fmt.Errorf("%w: id %d", ErrInvalidSubject, s.ID)
	}
	return nil
}

func (s Subject) String() string {
	return string(s.Kind) + ":" + strconv.FormatInt(s.ID, 10)
}
