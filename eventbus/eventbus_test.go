package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ N int }
type pong struct{ S string }

func TestPublishDispatchesByType(t *testing.T) {
	b := New()
	var pings []int
	var pongs []string
	Subscribe(b, func(_ context.Context, e ping) { pings = append(pings, e.N) })
	Subscribe(b, func(_ context.Context, e pong) { pongs = append(pongs, e.S) })

	Publish(context.Background(), b, ping{N: 1})
	Publish(context.Background(), b, pong{S: "a"})
	Publish(context.Background(), b, ping{N: 2})

	require.Equal(t, []int{1, 2}, pings)
	require.Equal(t, []string{"a"}, pongs)
}

func TestUnsubscribeRemovesOnlyThatHandler(t *testing.T) {
	b := New()
	var first, second int
	h := func(_ context.Context, _ ping) { first++ }
	unsub := Subscribe(b, h)
	// same function value subscribed twice must be tracked separately
	Subscribe(b, Handler[ping](h))
	Subscribe(b, func(_ context.Context, _ ping) { second++ })
	require.Equal(t, 3, Len[ping](b))

	unsub()
	unsub()
	require.Equal(t, 2, Len[ping](b))

	Publish(context.Background(), b, ping{})
	require.Equal(t, 1, first)
	require.Equal(t, 1, second)
}

func TestNilBus(t *testing.T) {
	var b *Bus
	unsub := Subscribe(b, func(context.Context, ping) { t.Fatal("must not be called") })
	Publish(context.Background(), b, ping{})
	unsub()
	require.Zero(t, Len[ping](b))
}

func TestContextIsForwarded(t *testing.T) {
	type key struct{}
	b := New()
	var got any
	Subscribe(b, func(ctx context.Context, _ pong) { got = ctx.Value(key{}) })
	Publish(context.WithValue(context.Background(), key{}, "v"), b, pong{})
	require.Equal(t, "v", got)
}
