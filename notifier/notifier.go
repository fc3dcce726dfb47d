// Package notifier turns order status changes into user-facing alerts.
package notifier

import (
	"fmt"
	"log"
	"sync"

	"autoparts-store/models"
)

type Notification struct {
	Title string
	Body  string
	Sound string
}

// Sink delivers a notification immediately. Implementations decide the
// channel (push gateway, log, test capture).
type Sink interface {
	Schedule(n Notification)
}

// LogSink writes notifications to the process log.
type LogSink struct{}

func (LogSink) Schedule(n Notification) {
	log.Printf("notify: %s — %s", n.Title, n.Body)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Reduce maps a status-change event to at most one notification. Only
// forward edges into a terminal state produce output: a no-op update, an
// unknown transition, or a backward one is dropped.
func Reduce(ev models.OrderStatusEvent) (Notification, bool) {
	if ev.NewStatus == ev.OldStatus {
		return Notification{}, false
	}
	if !models.CanTransition(ev.OldStatus, ev.NewStatus) {
		return Notification{}, false
	}
	if !ev.NewStatus.Terminal() {
		return Notification{}, false
	}

	switch ev.NewStatus {
	case models.OrderApproved:
		return Notification{
			Title: "Order Approved! ✅",
			Body:  fmt.Sprintf("Your order #%s has been verified and is being prepared.", shortID(ev.OrderID)),
			Sound: "default",
		}, true
	case models.OrderRejected:
		return Notification{
			Title: "Order Rejected ❌",
			Body:  fmt.Sprintf("There was an issue with order #%s. Please check details.", shortID(ev.OrderID)),
			Sound: "default",
		}, true
	}
	return Notification{}, false
}

// Hub routes events to the owning user's sink. A user has at most one live
// subscription: subscribing again replaces the previous one, signing out
// tears it down.
type Hub struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

func NewHub() *Hub {
	return &Hub{sinks: make(map[string]Sink)}
}

func (h *Hub) Subscribe(userID string, sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks[userID] = sink
}

func (h *Hub) Unsubscribe(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sinks, userID)
}

func (h *Hub) Subscribed(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sinks[userID]
	return ok
}

// HandleOrderUpdate applies the reducer and delivers to the owner's sink if
// one is registered.
func (h *Hub) HandleOrderUpdate(ev models.OrderStatusEvent) {
	n, ok := Reduce(ev)
	if !ok {
		return
	}

	h.mu.RLock()
	sink := h.sinks[ev.UserID]
	h.mu.RUnlock()

	if sink != nil {
		sink.Schedule(n)
	}
}
