package protocol

import (
	"fmt"
	"sync"
)

// MessageHandler handles one decoded frame.
type MessageHandler func(env *Envelope) error

// MessageRouter dispatches frames to handlers by type tag.
type MessageRouter struct {
	mu             sync.RWMutex
	handlers       map[MessageType]MessageHandler
	defaultHandler MessageHandler
}

func NewMessageRouter() *MessageRouter {
	return &MessageRouter{
		handlers: make(map[MessageType]MessageHandler),
	}
}

func (r *MessageRouter) RegisterHandler(msgType MessageType, handler MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = handler
}

// SetDefaultHandler sets the handler for types with no registered handler.
func (r *MessageRouter) SetDefaultHandler(handler MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = handler
}

func (r *MessageRouter) Dispatch(env *Envelope) error {
	r.mu.RLock()
	handler, ok := r.handlers[env.T]
	defaultHandler := r.defaultHandler
	r.mu.RUnlock()

	if ok {
		return handler(env)
	}
	if defaultHandler != nil {
		return defaultHandler(env)
	}
	return fmt.Errorf("no handler registered for message type: %q", env.T)
}
