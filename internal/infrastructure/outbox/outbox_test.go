package outbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinged struct{}

func (pinged) EventName() string { return "test.pinged" }

func TestBusDeliversToEverySubscriberBeforeStopReturns(t *testing.T) {
	bus := NewBus(nil)
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
			calls.Add(1)
			return nil
		})
	}
	bus.Subscribe("test.other", func(context.Context, domoutbox.Event) error {
		t.Error("unrelated handler invoked")
		return nil
	})
	bus.Start(context.Background())

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), pinged{}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	assert.Equal(t, int32(15), calls.Load())
}

func TestBusSurvivesFailingAndPanickingHandlers(t *testing.T) {
	bus := NewBus(nil)
	var ok atomic.Bool
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("test.pinged", func(context.Context, domoutbox.Event) error {
		ok.Store(true)
		return nil
	})
	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), pinged{}))
	require.NoError(t, bus.Stop(context.Background()))
	assert.True(t, ok.Load())
}

func TestPublishAfterStop(t *testing.T) {
	bus := NewBus(nil)
	require.NoError(t, bus.Stop(context.Background()))
	require.ErrorIs(t, bus.Publish(context.Background(), pinged{}), ErrClosed)
	require.NoError(t, bus.Publish(context.Background(), nil))
}
