package broadcaster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/common"
)

type memQueue struct {
	ch chan []byte
}

func newMemQueue() *memQueue {
	return &memQueue{ch: make(chan []byte, 64)}
}

func (q *memQueue) Pop(ctx context.Context) ([]byte, error) {
	select {
	case v := <-q.ch:
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *memQueue) Push(ctx context.Context, payload []byte) error {
	q.ch <- payload
	return nil
}

func recv(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func assertNoMessage(t *testing.T, ch <-chan Message) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("expected no message, got %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

// A FullFill event goes only to its own user, even when other sessions
// are subscribed to that market.
func TestBroadcaster_FullFillRoutesOnlyToOwner(t *testing.T) {
	registry := NewRegistry()
	owner := registry.Register("owner")
	bystander := registry.Register("bystander")
	registry.Subscribe("bystander", common.TataInr)

	events := newMemQueue()
	b := New(registry, events)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	ev := common.MatchEvent{
		OrderID: "t1", UserID: "owner", MatchedWith: "m1",
		Quantity: 10, Price: common.PriceFromFloat(5),
		Market: common.TataInr, EventType: common.FullFill,
	}
	payload, err := ev.Encode()
	require.NoError(t, err)
	require.NoError(t, events.Push(ctx, payload))

	recv(t, owner)
	assertNoMessage(t, bystander)
}

// PartialFill events reach the originating user and every subscriber of
// that market, without deduplicating the originator.
func TestBroadcaster_PartialFillFansOutToSubscribers(t *testing.T) {
	registry := NewRegistry()
	owner := registry.Register("owner")
	sub := registry.Register("subscriber")
	registry.Subscribe("owner", common.TataInr)
	registry.Subscribe("subscriber", common.TataInr)

	events := newMemQueue()
	b := New(registry, events)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	ev := common.MatchEvent{
		OrderID: "t1", UserID: "owner", MatchedWith: "m1",
		Quantity: 10, Price: common.PriceFromFloat(5),
		Market: common.TataInr, EventType: common.PartialFill,
	}
	payload, err := ev.Encode()
	require.NoError(t, err)
	require.NoError(t, events.Push(ctx, payload))

	recv(t, sub)
	// The owner is also a subscriber and receives the event twice, with
	// no deduplication: once as originator, once as subscriber.
	recv(t, owner)
	recv(t, owner)
}

// An event for a user with no live session is a routing miss, not an
// error; the broadcaster loop keeps consuming.
func TestBroadcaster_DeliveryMissDoesNotBlockLoop(t *testing.T) {
	registry := NewRegistry()
	owner := registry.Register("owner")

	events := newMemQueue()
	b := New(registry, events)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	ghost := common.MatchEvent{
		OrderID: "g1", UserID: "ghost", EventType: common.FullFill, Market: common.TataInr,
	}
	payload, err := ghost.Encode()
	require.NoError(t, err)
	require.NoError(t, events.Push(ctx, payload))

	real := common.MatchEvent{
		OrderID: "t1", UserID: "owner", EventType: common.FullFill, Market: common.TataInr,
	}
	payload, err = real.Encode()
	require.NoError(t, err)
	require.NoError(t, events.Push(ctx, payload))

	msg := recv(t, owner)
	decoded, err := common.DecodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, "t1", decoded.OrderID)
}
