package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

type memSink struct {
	mu     sync.Mutex
	msgs   []models.BroadcastMessage
	err    error
	closed bool
}

func (s *memSink) Name() string { return "mem" }

func (s *memSink) Send(_ context.Context, msg models.BroadcastMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *memSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func TestPublisherFansOut(t *testing.T) {
	hub := NewHub()
	sub := hub.Join(GroupWarnings)
	good := &memSink{}
	bad := &memSink{err: errors.New("broker down")}
	pub := NewPublisher(hub, "instance-a", good, bad)

	ev := models.WarningEvent{StudentID: 5, ExamID: 6, ObjectLabel: "cell phone", WarningType: "Cell phone detected!", Timestamp: time.Now()}
	pub.PublishWarning(ev)
	pub.PublishAutoSubmit(5, 6, 10)
	pub.Close()

	first := <-sub.C
	if first.Type != "warning" || first.Warning.ObjectLabel != "cell phone" || first.Origin != pub.Origin() {
		t.Fatalf("unexpected %+v", first)
	}
	second := <-sub.C
	if second.Type != "auto_submit" || second.Count != 10 || second.StudentID != 5 {
		t.Fatalf("unexpected %+v", second)
	}
	for _, s := range []*memSink{good, bad} {
		if len(s.msgs) != 2 || !s.closed {
			t.Fatalf("sink got %d messages, closed=%v", len(s.msgs), s.closed)
		}
	}
}

func TestPublishWithoutObserversOrSinks(t *testing.T) {
	pub := NewPublisher(NewHub(), "instance-a")
	pub.PublishWarning(models.WarningEvent{ObjectLabel: "book"})
	pub.Close()
}

func TestPublishAfterCloseSkipsSinks(t *testing.T) {
	hub := NewHub()
	sub := hub.Join(GroupWarnings)
	sink := &memSink{}
	pub := NewPublisher(hub, "instance-a", sink)
	pub.Close()
	pub.Close()

	pub.PublishWarning(models.WarningEvent{StudentID: 1, ObjectLabel: "book"})
	select {
	case msg := <-sub.C:
		if msg.StudentID != 1 {
			t.Fatalf("unexpected %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("observer missed warning published after Close")
	}
	if n := sink.count(); n != 0 {
		t.Fatalf("closed sink got %d messages", n)
	}
}

func TestPublishDuringClose(t *testing.T) {
	sink := &memSink{}
	pub := NewPublisher(NewHub(), "instance-a", sink)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				pub.PublishWarning(models.WarningEvent{StudentID: uint(i), ObjectLabel: "book"})
			}
		}()
	}
	pub.Close()
	wg.Wait()

	// every send admitted before Close finished before the sink was closed
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if !sink.closed || len(sink.msgs) > 8*50 {
		t.Fatalf("closed=%v msgs=%d", sink.closed, len(sink.msgs))
	}
}

func TestRelaySkipsOwnMessages(t *testing.T) {
	hub := NewHub()
	sub := hub.Join(GroupWarnings)
	relay := NewRedisRelay(nil, "proctor:warnings", "me", hub)

	own, _ := json.Marshal(models.BroadcastMessage{Type: "warning", Origin: "me"})
	remote, _ := json.Marshal(models.BroadcastMessage{Type: "warning", Origin: "other", StudentID: 3})
	relay.handle(string(own))
	relay.handle("not json")
	relay.handle(string(remote))

	select {
	case msg := <-sub.C:
		if msg.Origin != "other" || msg.StudentID != 3 {
			t.Fatalf("unexpected %+v", msg)
		}
	default:
		t.Fatal("remote message not delivered")
	}
	select {
	case msg := <-sub.C:
		t.Fatalf("unexpected extra message %+v", msg)
	default:
	}
}

func TestKafkaRecordKey(t *testing.T) {
	key := recordKey(models.BroadcastMessage{StudentID: 12, ExamID: 4})
	if string(key) != "12:4" {
		t.Fatalf("key = %q", key)
	}
}
