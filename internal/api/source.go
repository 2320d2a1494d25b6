package api

import (
	"context"
	"sync"
	"time"
)

// subscription is the channel-backed Subscription shared by the in-process
// sources.
type subscription struct {
	ch   chan string
	done chan struct{}
	once sync.Once
}

func newSubscription() *subscription {
	return &subscription{ch: make(chan string), done: make(chan struct{})}
}

func (s *subscription) Messages() <-chan string { return s.ch }

func (s *subscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// deliver sends msg unless the subscription or ctx has ended.
func (s *subscription) deliver(ctx context.Context, msg string) bool {
	select {
	case s.ch <- msg:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Replay is a MessageSource that plays a fixed list of messages to every
// subscriber. Unless Hold is set the feed ends after the last message;
// with Hold it stays open until closed.
type Replay struct {
	Messages []string
	Hold     bool
}

// Open implements MessageSource.
func (r Replay) Open(ctx context.Context) (Subscription, error) {
	sub := newSubscription()
	go func() {
		defer close(sub.ch)
		for _, m := range r.Messages {
			if !sub.deliver(ctx, m) {
				return
			}
		}
		if r.Hold {
			select {
			case <-sub.done:
			case <-ctx.Done():
			}
		}
	}()
	return sub, nil
}

// Hub is a MessageSource that fans published messages out to every open
// subscription. Publish blocks until each subscriber has taken the message
// or gone away.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscription]chan string
	closed bool
	opened chan struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*subscription]chan string), opened: make(chan struct{}, 1)}
}

// Open implements MessageSource.
func (h *Hub) Open(ctx context.Context) (Subscription, error) {
	sub := newSubscription()
	inbox := make(chan string)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub, nil
	}
	h.subs[sub] = inbox
	h.mu.Unlock()

	// The forwarding goroutine is the only writer of sub.ch.
	go func() {
		defer h.remove(sub)
		defer sub.Close()
		defer close(sub.ch)
		for {
			select {
			case m := <-inbox:
				if !sub.deliver(ctx, m) {
					return
				}
			case <-sub.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	select {
	case h.opened <- struct{}{}:
	default:
	}
	return sub, nil
}

func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

// Publish delivers msg to every current subscriber.
func (h *Hub) Publish(msg string) {
	h.mu.Lock()
	targets := make(map[*subscription]chan string, len(h.subs))
	for s, inbox := range h.subs {
		targets[s] = inbox
	}
	h.mu.Unlock()

	for s, inbox := range targets {
		select {
		case inbox <- msg:
		case <-s.done:
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// WaitForSubscribers blocks until at least n subscriptions are open or ctx
// ends.
func (h *Hub) WaitForSubscribers(ctx context.Context, n int) error {
	for h.Subscribers() < n {
		select {
		case <-h.opened:
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	return nil
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}
