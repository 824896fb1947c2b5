package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/common"
)

// memQueue is an in-process Queue used to drive the engine loop in tests
// without a real Redis instance.
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

func mustEncode(t *testing.T, o common.Order) []byte {
	t.Helper()
	payload, err := o.Encode()
	require.NoError(t, err)
	return payload
}

// An order pushed onto ingress produces no events (it rests) but still
// reaches the egress-free path without blocking the worker.
func TestEngine_RestingOrderProducesNoEvents(t *testing.T) {
	ingress := newMemQueue()
	egress := newMemQueue()
	eng := New(ingress, egress)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	order := common.Order{
		UserID: "u1", OrderID: "o1", Side: common.Buy, Kind: common.Limit,
		Price: common.PriceFromFloat(10), Quantity: 5, Market: common.TataInr,
	}
	require.NoError(t, ingress.Push(ctx, mustEncode(t, order)))

	select {
	case payload := <-egress.ch:
		t.Fatalf("expected no egress event, got %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

// Two crossing orders on the same market produce a match event on the
// egress queue.
func TestEngine_CrossingOrdersProduceMatchEvent(t *testing.T) {
	ingress := newMemQueue()
	egress := newMemQueue()
	eng := New(ingress, egress)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	maker := common.Order{
		UserID: "maker", OrderID: "m1", Side: common.Sell, Kind: common.Limit,
		Price: common.PriceFromFloat(10), Quantity: 5, Market: common.TataInr,
	}
	taker := common.Order{
		UserID: "taker", OrderID: "t1", Side: common.Buy, Kind: common.Limit,
		Price: common.PriceFromFloat(10), Quantity: 5, Market: common.TataInr,
	}
	require.NoError(t, ingress.Push(ctx, mustEncode(t, maker)))
	require.NoError(t, ingress.Push(ctx, mustEncode(t, taker)))

	select {
	case payload := <-egress.ch:
		ev, err := common.DecodeEvent(payload)
		require.NoError(t, err)
		assert.Equal(t, common.FullFill, ev.EventType)
		assert.Equal(t, "t1", ev.OrderID)
		assert.Equal(t, "m1", ev.MatchedWith)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for match event")
	}
}

// A malformed payload is dropped rather than blocking the ingress loop;
// a valid order pushed afterward is still processed.
func TestEngine_DropsMalformedPayloadAndContinues(t *testing.T) {
	ingress := newMemQueue()
	egress := newMemQueue()
	eng := New(ingress, egress)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	require.NoError(t, ingress.Push(ctx, []byte("not json")))

	maker := common.Order{
		UserID: "maker", OrderID: "m1", Side: common.Sell, Kind: common.Limit,
		Price: common.PriceFromFloat(10), Quantity: 5, Market: common.TataInr,
	}
	taker := common.Order{
		UserID: "taker", OrderID: "t1", Side: common.Buy, Kind: common.Limit,
		Price: common.PriceFromFloat(10), Quantity: 5, Market: common.TataInr,
	}
	require.NoError(t, ingress.Push(ctx, mustEncode(t, maker)))
	require.NoError(t, ingress.Push(ctx, mustEncode(t, taker)))

	select {
	case payload := <-egress.ch:
		ev, err := common.DecodeEvent(payload)
		require.NoError(t, err)
		assert.Equal(t, "t1", ev.OrderID)
	case <-time.After(time.Second):
		t.Fatal("timed out: orders after the malformed payload were not processed")
	}
}
