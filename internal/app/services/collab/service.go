package collab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veltasoft/worksuite/internal/app/metrics"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// Service manages editing sessions over documents. Sessions are created
// lazily on join, keep the authoritative content in memory, and write it
// back through the document store on every applied operation.
type Service struct {
	mu        sync.Mutex
	documents storage.DocumentStore
	log       *logger.Logger
	sessions  map[string]*sessionState
}

type sessionState struct {
	session      *Session
	participants map[string]bool
	lastActive   time.Time
}

// New constructs a collaboration service.
func New(documents storage.DocumentStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("collab")
	}
	return &Service{
		documents: documents,
		log:       log,
		sessions:  make(map[string]*sessionState),
	}
}

// Join opens (or joins) the session for a document and returns the current
// content, revision, and participant list. Trashed documents cannot be
// edited.
func (s *Service) Join(ctx context.Context, documentID, userID string) (string, int, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[documentID]
	if !ok {
		doc, err := s.documents.GetDocument(ctx, documentID)
		if err != nil {
			return "", 0, nil, err
		}
		if doc.Trashed {
			return "", 0, nil, fmt.Errorf("document %s is in the trash", documentID)
		}
		state = &sessionState{
			session:      NewSession(documentID, doc.Content, 0),
			participants: make(map[string]bool),
		}
		s.sessions[documentID] = state
		metrics.SetOpenSessions(len(s.sessions))
	}
	state.participants[userID] = true
	state.lastActive = time.Now()

	content, rev := state.session.Snapshot()
	s.log.WithField("document_id", documentID).
		WithField("user_id", userID).
		Info("collab session joined")
	return content, rev, participantList(state), nil
}

// Leave removes a participant; the session is dropped when empty.
func (s *Service) Leave(documentID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[documentID]
	if !ok {
		return
	}
	delete(state.participants, userID)
	if len(state.participants) == 0 {
		delete(s.sessions, documentID)
		metrics.SetOpenSessions(len(s.sessions))
	}
}

// Apply transforms and applies a client operation made at revision rev and
// persists the resulting content. The returned operation is the transformed
// one, suitable for broadcast to the other participants.
func (s *Service) Apply(ctx context.Context, documentID, userID string, op Op, rev int) (Op, int, error) {
	s.mu.Lock()
	state, ok := s.sessions[documentID]
	s.mu.Unlock()
	if !ok {
		return Op{}, 0, fmt.Errorf("no active session for document %s", documentID)
	}

	if op.IsNoop() {
		_, current := state.session.Snapshot()
		return op, current, nil
	}

	applied, newRev, err := state.session.ApplyClient(op, rev)
	if err != nil {
		metrics.RecordCollabOp("rejected")
		return Op{}, 0, err
	}
	metrics.RecordCollabOp("applied")
	s.mu.Lock()
	state.lastActive = time.Now()
	s.mu.Unlock()

	content, _ := state.session.Snapshot()
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return Op{}, 0, err
	}
	doc.Content = content
	if _, err := s.documents.UpdateDocument(ctx, doc); err != nil {
		s.log.WithError(err).
			WithField("document_id", documentID).
			Warn("persist collaborative edit")
	}

	return applied, newRev, nil
}

// Participants lists the users currently in a session.
func (s *Service) Participants(documentID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[documentID]
	if !ok {
		return nil
	}
	return participantList(state)
}

// ReapIdle drops sessions with no activity since the cutoff. Returns the
// number of sessions closed.
func (s *Service) ReapIdle(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	closed := 0
	for id, state := range s.sessions {
		if state.lastActive.Before(cutoff) {
			delete(s.sessions, id)
			closed++
		}
	}
	if closed > 0 {
		metrics.SetOpenSessions(len(s.sessions))
	}
	return closed
}

func participantList(state *sessionState) []string {
	out := make([]string, 0, len(state.participants))
	for id := range state.participants {
		out = append(out, id)
	}
	return out
}
