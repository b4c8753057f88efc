package local

import (
	"sync"

	"github.com/pilotapi/pilotapi/orchestrator"
)

// notifier fans notifications out to subscribers. Every subscriber has an
// unbounded queue so a slow reader never blocks the publisher, and sees
// notifications in publication order.
type notifier struct {
	mu     sync.Mutex
	subs   []*subscription
	closed bool
}

type subscription struct {
	out   chan orchestrator.Notification
	wake  chan struct{}
	mu    sync.Mutex
	queue []orchestrator.Notification
	done  bool
}

func (n *notifier) subscribe() <-chan orchestrator.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := &subscription{
		out:  make(chan orchestrator.Notification),
		wake: make(chan struct{}, 1),
	}
	if n.closed {
		close(s.out)
		return s.out
	}
	n.subs = append(n.subs, s)
	go s.deliver()
	return s.out
}

func (n *notifier) publish(note orchestrator.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	for _, s := range n.subs {
		s.push(note)
	}
}

// close ends every subscription once its queue has been delivered.
// It does not wait for subscribers to read.
func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for _, s := range n.subs {
		s.finish()
	}
}

func (s *subscription) push(note orchestrator.Notification) {
	s.mu.Lock()
	s.queue = append(s.queue, note)
	s.mu.Unlock()
	s.signal()
}

func (s *subscription) finish() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.signal()
}

func (s *subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) deliver() {
	for range s.wake {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		done := s.done
		s.mu.Unlock()

		for _, note := range batch {
			s.out <- note
		}
		if done {
			s.mu.Lock()
			empty := len(s.queue) == 0
			s.mu.Unlock()
			if empty {
				close(s.out)
				return
			}
			s.signal()
		}
	}
}
