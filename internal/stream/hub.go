package stream

import (
	"log"
	"sync"
	"time"
)

// Event is one live log line for a chat run.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Phase     string    `json:"phase,omitempty"`
	Message   string    `json:"message"`
}

// Subscriber receives run events. *websocket.Conn satisfies it.
type Subscriber interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub fans run events out to every subscriber watching that run.
type Hub struct {
	mutex       sync.RWMutex
	subscribers map[uint]map[Subscriber]bool
}

var GlobalHub = NewHub()

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint]map[Subscriber]bool),
	}
}

func (h *Hub) Subscribe(runID uint, sub Subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.subscribers[runID] == nil {
		h.subscribers[runID] = make(map[Subscriber]bool)
	}
	h.subscribers[runID][sub] = true
}

func (h *Hub) Unsubscribe(runID uint, sub Subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if subs, exists := h.subscribers[runID]; exists {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, runID)
		}
	}
}

// Publish sends the event to every subscriber of the run. Subscribers whose
// write fails are dropped and closed.
func (h *Hub) Publish(runID uint, event Event) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	subs, exists := h.subscribers[runID]
	if !exists {
		return
	}

	for sub := range subs {
		if err := sub.WriteJSON(event); err != nil {
			log.Printf("⚠️ Dropping log subscriber for run %d: %v", runID, err)
			sub.Close()
			delete(subs, sub)
		}
	}
	if len(subs) == 0 {
		delete(h.subscribers, runID)
	}
}

// CloseRun disconnects every subscriber of a finished run.
func (h *Hub) CloseRun(runID uint) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for sub := range h.subscribers[runID] {
		sub.Close()
	}
	delete(h.subscribers, runID)
}

// SubscriberCount reports how many clients are watching a run.
func (h *Hub) SubscriberCount(runID uint) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subscribers[runID])
}
