package auth

import (
	"sync"
	"testing"

	"upgradify/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	seen []*domain.Identity
}

func (r *recorder) record(identity *domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, identity)
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.seen))
	for _, identity := range r.seen {
		if identity == nil {
			ids = append(ids, "<nil>")
			continue
		}
		ids = append(ids, identity.ID)
	}
	return ids
}

func TestNotifier_DeliversInEmissionOrder(t *testing.T) {
	n := NewNotifier()
	rec := &recorder{}
	unsubscribe := n.Subscribe(rec.record)
	defer unsubscribe()

	n.Emit(&domain.Identity{ID: "u-1"})
	n.Emit(nil)
	n.Emit(&domain.Identity{ID: "u-2"})

	assert.Equal(t, []string{"u-1", "<nil>", "u-2"}, rec.ids())
}

func TestNotifier_LateSubscriberReceivesCurrentStateOnce(t *testing.T) {
	n := NewNotifier()
	n.Emit(&domain.Identity{ID: "u-1"})

	rec := &recorder{}
	unsubscribe := n.Subscribe(rec.record)
	defer unsubscribe()

	assert.Equal(t, []string{"u-1"}, rec.ids())

	n.Emit(nil)
	assert.Equal(t, []string{"u-1", "<nil>"}, rec.ids())
}

func TestNotifier_UnresolvedSubscriberWaitsForFirstEmission(t *testing.T) {
	n := NewNotifier()
	rec := &recorder{}
	unsubscribe := n.Subscribe(rec.record)
	defer unsubscribe()

	assert.Empty(t, rec.ids())

	_, resolved := n.Current()
	assert.False(t, resolved)

	n.Emit(nil)
	assert.Equal(t, []string{"<nil>"}, rec.ids())

	current, resolved := n.Current()
	assert.True(t, resolved)
	assert.Nil(t, current)
}

func TestNotifier_UnsubscribeStopsDelivery(t *testing.T) {
	n := NewNotifier()
	rec := &recorder{}
	unsubscribe := n.Subscribe(rec.record)

	n.Emit(&domain.Identity{ID: "u-1"})
	unsubscribe()
	unsubscribe()
	n.Emit(&domain.Identity{ID: "u-2"})

	assert.Equal(t, []string{"u-1"}, rec.ids())
}

func TestNotifier_SubscribersGetCopies(t *testing.T) {
	n := NewNotifier()
	var got *domain.Identity
	unsubscribe := n.Subscribe(func(identity *domain.Identity) {
		got = identity
	})
	defer unsubscribe()

	original := &domain.Identity{ID: "u-1", DisplayName: "Ann"}
	n.Emit(original)
	require.NotNil(t, got)

	got.DisplayName = "changed"
	current, _ := n.Current()
	assert.Equal(t, "Ann", current.DisplayName)
	assert.Equal(t, "Ann", original.DisplayName)
}
