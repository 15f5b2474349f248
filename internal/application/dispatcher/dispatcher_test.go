package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/po-workflow/internal/domain/event"
)

func newTestDispatcher() *Dispatcher {
	return New(WithLogger(zap.NewNop().Sugar()))
}

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := newTestDispatcher()
	var order []string

	d.Subscribe(event.TypeStateChanged, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.Subscribe(event.TypeStateChanged, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})
	d.Subscribe(event.TypeMachineCreated, "other", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "other")
		return nil
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeStateChanged, "m-1"))

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, []string{"first", "second"}, d.Handlers(event.TypeStateChanged))
}

func TestDispatch_StopsAtFirstError(t *testing.T) {
	d := newTestDispatcher()
	boom := errors.New("boom")
	var secondRan bool

	d.Subscribe(event.TypeStateChanged, "failing", func(ctx context.Context, evt *event.Event) error {
		return boom
	})
	d.Subscribe(event.TypeStateChanged, "second", func(ctx context.Context, evt *event.Event) error {
		secondRan = true
		return nil
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeStateChanged, "m-1"))

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing")
	assert.False(t, secondRan)
}

func TestDispatch_RecoversPanics(t *testing.T) {
	d := newTestDispatcher()
	d.Subscribe(event.TypeStateChanged, "panicky", func(ctx context.Context, evt *event.Event) error {
		panic("unexpected")
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeStateChanged, "m-1"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
}

func TestDispatchAsync_CloseWaitsForHandlers(t *testing.T) {
	d := newTestDispatcher()
	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	for _, name := range []string{"a", "b", "c"} {
		d.Subscribe(event.TypeStateChanged, name, func(ctx context.Context, evt *event.Event) error {
			defer wg.Done()
			count.Add(1)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.DispatchAsync(ctx, event.NewEvent(event.TypeStateChanged, "m-1"))
	cancel()

	require.NoError(t, d.Close())
	wg.Wait()
	assert.Equal(t, int32(3), count.Load())
}

func TestClose(t *testing.T) {
	d := newTestDispatcher()

	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Close(), ErrClosed)
	assert.ErrorIs(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeStateChanged, "m-1")), ErrClosed)

	// Async dispatch after close is dropped
	d.DispatchAsync(context.Background(), event.NewEvent(event.TypeStateChanged, "m-1"))
}
