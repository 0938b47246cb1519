package session

import (
	"context"
	"errors"
	"sync"

	"github.com/eapache/queue"
)

const maxQueuedStates = 16

var ErrUnsubscribed = errors.New("subscription is closed")

// Hub fans out session state changes to the subscribers of a browser session
type Hub struct {
	subscribers map[string]map[*Subscription]struct{}
	mu          sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe returns a subscription receiving every state published for key until it's
// unsubscribed
func (h *Hub) Subscribe(key string) *Subscription {
	s := &Subscription{
		key:    key,
		hub:    h,
		queue:  queue.New(),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[key]; !ok {
		h.subscribers[key] = make(map[*Subscription]struct{})
	}
	h.subscribers[key][s] = struct{}{}
	return s
}

func (h *Hub) Publish(key string, state State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subscribers[key] {
		s.push(state)
	}
}

func (h *Hub) Subscribers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers[key])
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subscribers, ok := h.subscribers[s.key]; ok {
		delete(subscribers, s)
		if len(subscribers) == 0 {
			delete(h.subscribers, s.key)
		}
	}
}

type Subscription struct {
	key    string
	hub    *Hub
	queue  *queue.Queue
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
}

// Next blocks until a state is published, the subscription is closed or ctx is done
func (s *Subscription) Next(ctx context.Context) (State, error) {
	for {
		if state, ok := s.pop(); ok {
			return state, nil
		}

		select {
		case <-s.notify:
		case <-s.done:
			return State{}, ErrUnsubscribed
		case <-ctx.Done():
			return State{}, ctx.Err()
		}
	}
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}

// push drops the oldest state when a slow subscriber falls too far behind
func (s *Subscription) push(state State) {
	s.mu.Lock()
	if s.queue.Length() >= maxQueuedStates {
		s.queue.Remove()
	}
	s.queue.Add(state)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) pop() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Length() == 0 {
		return State{}, false
	}
	return s.queue.Remove().(State), true
}
