package broadcast

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

const sinkTimeout = 5 * time.Second

// Sink forwards messages outside the process.
type Sink interface {
	Name() string
	Send(ctx context.Context, msg models.BroadcastMessage) error
	Close() error
}

// Publisher fans warning events out to the local hub and every sink.
// Sinks run on their own goroutines; their failures are logged only.
type Publisher struct {
	hub    *Hub
	origin string
	sinks  []Sink
	wg     sync.WaitGroup

	mu     sync.Mutex // guards closed and wg.Add against Close
	closed bool
}

// NewPublisher tags every message with origin, the ID of this instance.
func NewPublisher(hub *Hub, origin string, sinks ...Sink) *Publisher {
	return &Publisher{hub: hub, origin: origin, sinks: sinks}
}

// Origin identifies this process on shared channels.
func (p *Publisher) Origin() string { return p.origin }

func (p *Publisher) PublishWarning(ev models.WarningEvent) {
	p.publish(models.BroadcastMessage{
		Type:      "warning",
		Warning:   &ev,
		StudentID: ev.StudentID,
		ExamID:    ev.ExamID,
	})
}

// PublishAutoSubmit tells observers an attempt reached the warning limit.
func (p *Publisher) PublishAutoSubmit(studentID, examID uint, count int64) {
	p.publish(models.BroadcastMessage{
		Type:      "auto_submit",
		StudentID: studentID,
		ExamID:    examID,
		Count:     count,
	})
}

func (p *Publisher) publish(msg models.BroadcastMessage) {
	msg.Origin = p.origin
	p.hub.Publish(GroupWarnings, msg)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	for _, sink := range p.sinks {
		p.wg.Add(1)
		go func(s Sink) {
			defer p.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			defer cancel()
			if err := s.Send(ctx, msg); err != nil {
				log.Printf("broadcast: %s sink: %v", s.Name(), err)
			}
		}(sink)
	}
}

// Close waits for in-flight sends and closes the sinks. Messages published
// afterwards still reach local observers but no sink.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			log.Printf("broadcast: closing %s sink: %v", s.Name(), err)
		}
	}
}
