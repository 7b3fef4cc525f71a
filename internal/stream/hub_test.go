package stream

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSubscriber struct {
	events  []Event
	failAll bool
	closed  bool
}

func (f *fakeSubscriber) WriteJSON(v interface{}) error {
	if f.failAll {
		return errors.New("write failed")
	}
	f.events = append(f.events, v.(Event))
	return nil
}

func (f *fakeSubscriber) Close() error {
	f.closed = true
	return nil
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	a, b := &fakeSubscriber{}, &fakeSubscriber{}
	h.Subscribe(1, a)
	h.Subscribe(1, b)

	h.Publish(1, Event{Timestamp: time.Now(), Level: "info", Message: "started"})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Equal(t, "started", a.events[0].Message)
}

func TestPublishIsolatedPerRun(t *testing.T) {
	h := NewHub()
	a, b := &fakeSubscriber{}, &fakeSubscriber{}
	h.Subscribe(1, a)
	h.Subscribe(2, b)

	h.Publish(1, Event{Message: "only run 1"})

	assert.Len(t, a.events, 1)
	assert.Empty(t, b.events)
}

func TestFailingSubscriberIsDropped(t *testing.T) {
	h := NewHub()
	good, bad := &fakeSubscriber{}, &fakeSubscriber{failAll: true}
	h.Subscribe(1, good)
	h.Subscribe(1, bad)

	h.Publish(1, Event{Message: "first"})
	h.Publish(1, Event{Message: "second"})

	assert.True(t, bad.closed)
	assert.Len(t, good.events, 2)
	assert.Equal(t, 1, h.SubscriberCount(1))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	a := &fakeSubscriber{}
	h.Subscribe(1, a)
	h.Unsubscribe(1, a)

	h.Publish(1, Event{Message: "late"})

	assert.Empty(t, a.events)
	assert.Equal(t, 0, h.SubscriberCount(1))
}

func TestCloseRunDisconnectsEveryone(t *testing.T) {
	h := NewHub()
	a, b := &fakeSubscriber{}, &fakeSubscriber{}
	h.Subscribe(3, a)
	h.Subscribe(3, b)

	h.CloseRun(3)

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Equal(t, 0, h.SubscriberCount(3))
}
