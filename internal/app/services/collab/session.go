package collab

import (
	"fmt"
	"sync"
)

// maxHistory bounds the revision log per session. Clients further behind
// than this are told to rejoin.
const maxHistory = 1000

// Session holds the authoritative state of one collaboratively edited
// document: its content, revision counter, and the log of applied
// operations used to transform late-arriving client operations.
type Session struct {
	mu         sync.Mutex
	documentID string
	content    string
	revision   int
	baseRev    int
	history    []Op
}

// NewSession starts a session at the given content and revision.
func NewSession(documentID, content string, revision int) *Session {
	return &Session{
		documentID: documentID,
		content:    content,
		revision:   revision,
		baseRev:    revision,
	}
}

// Snapshot returns the current content and revision.
func (s *Session) Snapshot() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content, s.revision
}

// ApplyClient transforms a client operation made at revision rev against
// everything applied since, applies it, and returns the transformed
// operation together with the new revision number.
func (s *Session) ApplyClient(op Op, rev int) (Op, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rev < s.baseRev || rev > s.revision {
		return Op{}, 0, fmt.Errorf("revision %d outside window [%d, %d]; rejoin required", rev, s.baseRev, s.revision)
	}

	// Transform against every concurrent operation, oldest first.
	for _, applied := range s.history[rev-s.baseRev:] {
		var err error
		_, op, err = Transform(applied, op)
		if err != nil {
			return Op{}, 0, fmt.Errorf("transform against revision history: %w", err)
		}
	}

	next, err := op.Apply(s.content)
	if err != nil {
		return Op{}, 0, fmt.Errorf("apply operation: %w", err)
	}

	s.content = next
	s.revision++
	s.history = append(s.history, op)
	if len(s.history) > maxHistory {
		drop := len(s.history) - maxHistory
		s.history = s.history[drop:]
		s.baseRev += drop
	}
	return op, s.revision, nil
}
