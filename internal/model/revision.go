// internal/model/revision.go
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// RevisionKind distinguishes real repository revisions from the two
// sentinel kinds used by the history graph.
type RevisionKind int

const (
	// KindUnknown is the sentinel "alpha" revision used for synthetic
	// ancestors whose true origin was never observed.
	KindUnknown RevisionKind = iota
	// KindRepo is a concrete, committed repository revision.
	KindRepo
	// KindLocal is the working copy state, newer than every repository
	// revision.
	KindLocal
)

// Revision identifies one revision of a repository. It is an immutable
// value type; two revisions are equal iff kind and number match.
type Revision struct {
	Kind   RevisionKind `json:"kind"`
	Number uint64       `json:"number,omitempty"`
}

// NewRevision returns a concrete repository revision.
func NewRevision(number uint64) Revision {
	return Revision{Kind: KindRepo, Number: number}
}

// UnknownRevision returns the sentinel revision for artificial ancestors.
func UnknownRevision() Revision {
	return Revision{Kind: KindUnknown}
}

// LocalRevision returns the revision denoting the working copy.
func LocalRevision() Revision {
	return Revision{Kind: KindLocal}
}

func (r Revision) IsUnknown() bool {
	return r.Kind == KindUnknown
}

func (r Revision) IsLocal() bool {
	return r.Kind == KindLocal
}

// Compare orders revisions chronologically: the unknown sentinel precedes
// every repository revision, and the working copy follows all of them.
func (r Revision) Compare(other Revision) int {
	if r.Kind != other.Kind {
		if r.Kind < other.Kind {
			return -1
		}
		return 1
	}
	switch {
	case r.Number < other.Number:
		return -1
	case r.Number > other.Number:
		return 1
	default:
		return 0
	}
}

// ParseRevision parses the textual forms produced by String, plus bare
// revision numbers.
func ParseRevision(s string) (Revision, error) {
	switch s {
	case "?", "unknown":
		return UnknownRevision(), nil
	case "local":
		return LocalRevision(), nil
	}
	number, err := strconv.ParseUint(strings.TrimPrefix(s, "r"), 10, 64)
	if err != nil {
		return Revision{}, fmt.Errorf("invalid revision %q", s)
	}
	return NewRevision(number), nil
}

func (r Revision) String() string {
	switch r.Kind {
	case KindUnknown:
		return "?"
	case KindLocal:
		return "local"
	default:
		return fmt.Sprintf("r%d", r.Number)
	}
}
