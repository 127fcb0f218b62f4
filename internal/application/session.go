package application

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// DocumentSession is the in-memory state of one open document view. It owns
// the view's review history, which only grows while the view is open.
type DocumentSession struct {
	ID       string
	Ref      model.DocumentRef
	OpenedAt time.Time

	control SubmitControl

	mu          sync.RWMutex
	schema      model.Schema
	history     []model.ReviewRecord // Newest first.
	involvement model.InvolvementSet
	pills       []ReviewPill
}

func newDocumentSession(ref model.DocumentRef, schema model.Schema, history []model.ReviewRecord, now time.Time) *DocumentSession {
	h := make([]model.ReviewRecord, len(history))
	copy(h, history)
	return &DocumentSession{
		ID:       uuid.NewString(),
		Ref:      ref,
		OpenedAt: now,
		schema:   schema,
		history:  h,
	}
}

// Control returns the submit control of the session's review dialog.
func (s *DocumentSession) Control() *SubmitControl {
	return &s.control
}

// History returns a copy of the review history, newest first.
func (s *DocumentSession) History() []model.ReviewRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ReviewRecord, len(s.history))
	copy(out, s.history)
	return out
}

// Involvement returns the current eligible recipients.
func (s *DocumentSession) Involvement() model.InvolvementSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(model.InvolvementSet, len(s.involvement))
	copy(out, s.involvement)
	return out
}

// Pills returns the last derived pill list.
func (s *DocumentSession) Pills() []ReviewPill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ReviewPill, len(s.pills))
	copy(out, s.pills)
	return out
}

// Schema returns the schema the session was opened with.
func (s *DocumentSession) Schema() model.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema
}

func (s *DocumentSession) prepend(record model.ReviewRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]model.ReviewRecord{record}, s.history...)
}

func (s *DocumentSession) setInvolvement(set model.InvolvementSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.involvement = set
}

// setPillsFor stores pills derived from the first n history records. It
// refuses, returning false, once the history has grown past n.
func (s *DocumentSession) setPillsFor(n int, pills []ReviewPill) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) != n {
		return false
	}
	s.pills = pills
	return true
}

// lastActivity returns the most recent of the open time and the newest record.
func (s *DocumentSession) lastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := s.OpenedAt
	if len(s.history) > 0 && s.history[0].CreatedAt.After(latest) {
		latest = s.history[0].CreatedAt
	}
	return latest
}

// SessionRegistry tracks open document views by session ID.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*DocumentSession
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*DocumentSession)}
}

func (r *SessionRegistry) add(s *DocumentSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns the session with the given ID or model.ErrSessionNotFound.
func (r *SessionRegistry) Get(id string) (*DocumentSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s, nil
}

// Close discards the session. Closing an unknown session is a no-op.
func (r *SessionRegistry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// LastActivity returns the most recent activity across all open sessions, or
// the zero time when none are open.
func (r *SessionRegistry) LastActivity() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest time.Time
	for _, s := range r.sessions {
		if a := s.lastActivity(); a.After(latest) {
			latest = a
		}
	}
	return latest
}
