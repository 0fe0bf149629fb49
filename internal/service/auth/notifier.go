package auth

import (
	"sync"

	"upgradify/internal/domain"
)

// Notifier fans identity changes out to subscribers. Deliveries are
// serialized so every subscriber observes changes in emission order.
type Notifier struct {
	mu     sync.Mutex
	emitMu sync.Mutex

	nextID      int
	subscribers map[int]*subscriber

	resolved bool
	current  *domain.Identity
}

type subscriber struct {
	fn     func(*domain.Identity)
	primed bool
}

// NewNotifier creates an empty notifier
func NewNotifier() *Notifier {
	return &Notifier{subscribers: make(map[int]*subscriber)}
}

// Subscribe registers fn. If the identity has already been resolved, fn is
// called once with the current state unless a regular emission reached it first.
func (n *Notifier) Subscribe(fn func(*domain.Identity)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	sub := &subscriber{fn: fn}
	n.subscribers[id] = sub
	n.mu.Unlock()

	n.emitMu.Lock()
	n.mu.Lock()
	_, still := n.subscribers[id]
	deliver := still && n.resolved && !sub.primed
	current := n.current.Clone()
	sub.primed = true
	n.mu.Unlock()
	if deliver {
		fn(current)
	}
	n.emitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subscribers, id)
			n.mu.Unlock()
		})
	}
}

// Emit records identity as the current state and delivers it to every subscriber
func (n *Notifier) Emit(identity *domain.Identity) {
	n.emitMu.Lock()
	defer n.emitMu.Unlock()

	n.mu.Lock()
	n.resolved = true
	n.current = identity.Clone()
	subs := make([]*subscriber, 0, len(n.subscribers))
	for _, sub := range n.subscribers {
		sub.primed = true
		subs = append(subs, sub)
	}
	n.mu.Unlock()

	for _, sub := range subs {
		sub.fn(identity.Clone())
	}
}

// Current returns the last emitted identity and whether one was emitted at all
func (n *Notifier) Current() (*domain.Identity, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current.Clone(), n.resolved
}
