package bus

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestPublish_SubscriptionOrder(t *testing.T) {
	b := New(zerolog.Nop())

	var order []int
	b.Subscribe(func() { order = append(order, 1) })
	b.Subscribe(func() { order = append(order, 2) })
	b.Subscribe(func() { order = append(order, 3) })

	b.Publish()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("delivery order = %v, want [1 2 3]", order)
	}
}

func TestSubscribe_ClosuresFromSameBodyAreIndependent(t *testing.T) {
	// Closures created from one func literal share a code pointer, so any
	// pointer-identity scheme would collapse them. Each must be its own
	// registration with its own unsubscribe.
	b := New(zerolog.Nop())

	counts := make([]int, 2)
	var unsubs []func()
	for i := 0; i < 2; i++ {
		i := i
		unsubs = append(unsubs, b.Subscribe(func() { counts[i]++ }))
	}

	b.Publish()
	if counts[0] != 1 || counts[1] != 1 {
		t.Fatalf("counts = %v, want both subscribers delivered", counts)
	}

	unsubs[0]()
	b.Publish()
	if counts[0] != 1 || counts[1] != 2 {
		t.Errorf("counts = %v, want only the second subscriber after unsubscribe", counts)
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	b := New(zerolog.Nop())

	calls := 0
	first := b.Subscribe(func() { calls++ })
	second := b.Subscribe(func() { calls++ })

	first()
	first() // second call must not remove anyone else
	b.Publish()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	second()
}

func TestUnsubscribe(t *testing.T) {
	b := New(zerolog.Nop())

	calls := 0
	unsubscribe := b.Subscribe(func() { calls++ })

	b.Publish()
	unsubscribe()
	b.Publish()

	if calls != 1 {
		t.Errorf("calls = %d, want 1 after unsubscribe", calls)
	}
}

func TestPublish_IsolatesPanickingSubscriber(t *testing.T) {
	b := New(zerolog.Nop())

	var delivered []string
	b.Subscribe(func() { delivered = append(delivered, "first") })
	b.Subscribe(func() { panic("subscriber exploded") })
	b.Subscribe(func() { delivered = append(delivered, "third") })

	b.Publish()

	if len(delivered) != 2 || delivered[0] != "first" || delivered[1] != "third" {
		t.Errorf("delivered = %v; a panicking subscriber must not block the rest", delivered)
	}
}

func TestPublish_NoSubscribers(t *testing.T) {
	b := New(zerolog.Nop())
	b.Publish() // must not panic
}

func TestSubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	b := New(zerolog.Nop())

	var unsubscribe func()
	calls := 0
	unsubscribe = b.Subscribe(func() {
		calls++
		unsubscribe()
	})

	b.Publish()
	b.Publish()

	if calls != 1 {
		t.Errorf("calls = %d, want 1 after self-unsubscribe", calls)
	}
}
