package events

import (
	"sync"

	"github.com/hongjun500/feedwatch/pkg/logger"
	"go.uber.org/zap"
)

type EventHandler func(Event)

type handlerEntry struct {
	id uint64
	fn EventHandler
}

// Hub fans events out to subscribers. Emit runs handlers synchronously, in
// subscription order, so reports keep the order of the frames that caused them.
type Hub struct {
	handlersMu sync.RWMutex
	handlers   map[EventType][]handlerEntry
	nextHID    uint64

	Log *zap.Logger
}

func NewHub() *Hub {
	return &Hub{
		handlers: make(map[EventType][]handlerEntry),
	}
}

func (h *Hub) Subscribe(t EventType, fn EventHandler) { _ = h.SubscribeCancelable(t, fn) }

// SubscribeCancelable registers fn and returns a function that removes it.
func (h *Hub) SubscribeCancelable(t EventType, fn EventHandler) (cancel func()) {
	h.handlersMu.Lock()
	h.nextHID++
	id := h.nextHID
	h.handlers[t] = append(h.handlers[t], handlerEntry{id: id, fn: fn})
	h.handlersMu.Unlock()

	return func() {
		h.handlersMu.Lock()
		defer h.handlersMu.Unlock()
		entries := h.handlers[t]
		filtered := make([]handlerEntry, 0, len(entries))
		for _, e := range entries {
			if e.id != id {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			delete(h.handlers, t)
		} else {
			h.handlers[t] = filtered
		}
	}
}

// Emit delivers e to every handler subscribed to its type. A panicking handler is
// logged and does not stop the others.
func (h *Hub) Emit(e Event) {
	h.handlersMu.RLock()
	copied := append([]handlerEntry(nil), h.handlers[e.Type()]...)
	h.handlersMu.RUnlock()

	for _, entry := range copied {
		h.call(entry.fn, e)
	}
}

func (h *Hub) call(fn EventHandler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Or(h.Log).Sugar().Errorw("event_handler_panic", "type", e.Type(), "panic", r)
		}
	}()
	fn(e)
}
