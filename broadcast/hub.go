// Package broadcast delivers warning events to live observers, in this
// process through the Hub and to other processes through sinks.
package broadcast

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/models"
)

// GroupWarnings is the group every warnings observer joins.
const GroupWarnings = "warnings"

// subscriberBuffer is how many messages an observer may fall behind before
// new messages to it are dropped.
const subscriberBuffer = 64

type Subscriber struct {
	ID string
	C  <-chan models.BroadcastMessage
	c  chan models.BroadcastMessage
}

type HubStats struct {
	Groups      int    `json:"groups"`
	Subscribers int    `json:"subscribers"`
	Published   uint64 `json:"published"`
	Delivered   uint64 `json:"delivered"`
	Dropped     uint64 `json:"dropped"`
}

// Hub is an in-process group messaging registry. Publish never blocks.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[string]*Subscriber // group -> subscriber ID -> subscriber

	statsMu   sync.Mutex
	published uint64
	delivered uint64
	dropped   uint64
}

func NewHub() *Hub {
	return &Hub{groups: make(map[string]map[string]*Subscriber)}
}

func (h *Hub) Join(group string) *Subscriber {
	c := make(chan models.BroadcastMessage, subscriberBuffer)
	sub := &Subscriber{ID: uuid.NewString(), C: c, c: c}

	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*Subscriber)
		h.groups[group] = members
	}
	members[sub.ID] = sub
	log.Printf("Observer %s joined %s (%d in group)", sub.ID, group, len(members))
	return sub
}

// Leave removes sub from group and closes its channel. Leaving twice is a
// no-op.
func (h *Hub) Leave(group string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		return
	}
	if _, ok := members[sub.ID]; !ok {
		return
	}
	delete(members, sub.ID)
	close(sub.c)
	if len(members) == 0 {
		delete(h.groups, group)
	}
	log.Printf("Observer %s left %s", sub.ID, group)
}

// Publish offers msg to every member of group and returns how many took it.
// A member whose buffer is full misses the message.
func (h *Hub) Publish(group string, msg models.BroadcastMessage) int {
	h.mu.RLock()
	delivered, dropped := 0, 0
	for _, sub := range h.groups[group] {
		select {
		case sub.c <- msg:
			delivered++
		default:
			dropped++
		}
	}
	h.mu.RUnlock()

	h.statsMu.Lock()
	h.published++
	h.delivered += uint64(delivered)
	h.dropped += uint64(dropped)
	h.statsMu.Unlock()
	return delivered
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	st := HubStats{Groups: len(h.groups)}
	for _, members := range h.groups {
		st.Subscribers += len(members)
	}
	h.mu.RUnlock()

	h.statsMu.Lock()
	st.Published, st.Delivered, st.Dropped = h.published, h.delivered, h.dropped
	h.statsMu.Unlock()
	return st
}
