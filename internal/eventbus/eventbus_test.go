package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type actionDone struct{ ID string }

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestPublishFansOut(t *testing.T) {
	b := New()
	defer b.Close()
	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.Publish(actionDone{ID: "a1"})
	require.Equal(t, actionDone{ID: "a1"}, recv(t, s1))
	require.Equal(t, actionDone{ID: "a1"}, recv(t, s2))
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	b := New()
	defer b.Close()
	s := b.Subscribe()
	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(actionDone{ID: "x"})
	}
	// Only the buffered events are retained.
	for i := 0; i < subscriberBuffer; i++ {
		recv(t, s)
	}
	select {
	case e := <-s:
		t.Fatalf("unexpected extra event %v", e)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	defer b.Close()
	s := b.Subscribe()
	b.Unsubscribe(s)
	_, open := <-s
	require.False(t, open)

	// Publishing after unsubscribe must not panic.
	b.Publish(actionDone{ID: "a1"})
}

func TestCloseStopsDelivery(t *testing.T) {
	b := New()
	s := b.Subscribe()
	b.Close()
	_, open := <-s
	require.False(t, open)
	b.Publish(actionDone{ID: "a1"})

	late := b.Subscribe()
	_, open = <-late
	require.False(t, open, "subscribing after close yields a closed channel")
}
