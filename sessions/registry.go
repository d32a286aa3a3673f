package sessions

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

var ErrNotFound = errors.New("proctoring session not found")

type entry struct {
	ctx    models.SessionContext
	cancel context.CancelFunc // running pipeline, nil when no stream is open
	gen    uint64
	seen   time.Time // last lookup or stream change
}

// Registry tracks the proctoring sessions opened at exam entry.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry // session ID -> session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*entry)}
}

// Create opens a new session for a student entering an exam. A previous
// session for the same pair is stopped and replaced.
func (r *Registry) Create(studentID, examID uint) models.SessionContext {
	sc := models.SessionContext{
		ID:        uuid.NewString(),
		StudentID: studentID,
		ExamID:    examID,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		if e.ctx.StudentID == studentID && e.ctx.ExamID == examID {
			if e.cancel != nil {
				e.cancel()
			}
			delete(r.sessions, id)
			log.Printf("Replaced session %s for student %d exam %d", id, studentID, examID)
		}
	}
	r.sessions[sc.ID] = &entry{ctx: sc, seen: sc.CreatedAt}
	log.Println("Created new proctoring session with ID:", sc.ID)
	return sc
}

func (r *Registry) Lookup(id string) (models.SessionContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return models.SessionContext{}, ErrNotFound
	}
	e.seen = time.Now()
	return e.ctx, nil
}

// Attach binds the cancel func of the session's running pipeline and returns
// a generation to hand back to Detach. A pipeline already attached to the
// session is cancelled first so only one camera is open per session.
func (r *Registry) Attach(id string, cancel context.CancelFunc) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	e.cancel = cancel
	e.seen = time.Now()
	return e.gen, nil
}

// Detach clears the pipeline binding unless a newer pipeline replaced it.
func (r *Registry) Detach(id string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok && e.gen == gen {
		e.cancel = nil
		e.seen = time.Now()
	}
}

// Stop signals the session's pipeline to end. It is a no-op without one.
func (r *Registry) Stop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok && e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		if e.cancel != nil {
			e.cancel()
		}
		delete(r.sessions, id)
	}
}

// Active counts sessions and how many of them are streaming.
func (r *Registry) Active() (sessions, streaming int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.sessions {
		if e.cancel != nil {
			streaming++
		}
	}
	return len(r.sessions), streaming
}

// Sweep drops sessions idle for longer than ttl. A session with an open
// stream is never dropped.
func (r *Registry) Sweep(now time.Time, ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.sessions {
		if e.cancel == nil && now.Sub(e.seen) > ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now, ttl); n > 0 {
				log.Printf("Dropped %d idle proctoring sessions", n)
			}
		}
	}
}
