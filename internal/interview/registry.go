package interview

import (
	"sync"
	"time"

	"github.com/davidahmann/agegate/pkg/types"
)

const inboxSize = 16

// Session is the in-memory record of one requester's progress. Only the
// goroutine running the interview touches Step, Answers and Evidence.
type Session struct {
	ID             string
	GuildID        string
	Requester      types.Requester
	AccountAgeDays int
	StartedAt      time.Time

	Step     Step
	Answers  []string
	Evidence types.Evidence

	inbox chan types.InboundMessage
}

// discardPending empties the inbox without blocking.
func (s *Session) discardPending() {
	for {
		select {
		case <-s.inbox:
		default:
			return
		}
	}
}

// Registry holds active sessions keyed by requester id. It doubles as the
// per-requester single-flight guard.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// acquire registers s unless the requester already has an active session.
func (r *Registry) acquire(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.Requester.ID]; ok {
		return false
	}
	r.sessions[s.Requester.ID] = s
	return true
}

func (r *Registry) release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[s.Requester.ID]; ok && current == s {
		delete(r.sessions, s.Requester.ID)
	}
}

// deliver hands msg to the author's session. A full inbox drops the message.
func (r *Registry) deliver(msg types.InboundMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[msg.AuthorID]
	if !ok {
		return false
	}
	select {
	case s.inbox <- msg:
		return true
	default:
		return false
	}
}

func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SessionID returns the id of the requester's active session, if any.
func (r *Registry) SessionID(requesterID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[requesterID]
	if !ok {
		return "", false
	}
	return s.ID, true
}
