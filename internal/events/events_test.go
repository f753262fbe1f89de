package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	bus := NewEventBus()

	var got []Event
	bus.Subscribe(TypeReservationDeleted, func(e Event) error {
		got = append(got, e)
		return nil
	})
	bus.Subscribe(TypeReservationCreated, func(Event) error {
		t.Fatal("unexpected event type")
		return nil
	})

	at := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	bus.Publish(TypeReservationDeleted, Deleted{ReservationID: "r1", CourtID: "c1", ActorID: "u1", At: at})
	bus.Publish(TypeReservationDeleted, Deleted{ReservationID: "r2"})

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.False(t, got[0].CreatedAt.IsZero())

	var payload Deleted
	require.NoError(t, got[0].Decode(&payload))
	assert.Equal(t, Deleted{ReservationID: "r1", CourtID: "c1", ActorID: "u1", At: at}, payload)
}

func TestEventBus_HandlerErrors(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("handler failed")

	var reported []error
	bus.OnError(func(_ Event, err error) { reported = append(reported, err) })

	calls := 0
	bus.Subscribe(TypeReservationsCompleted, func(Event) error { calls++; return boom })
	bus.Subscribe(TypeReservationsCompleted, func(Event) error { calls++; return nil })

	bus.Publish(TypeReservationsCompleted, Completed{Count: 3})
	assert.Equal(t, 2, calls, "a failing handler does not stop the others")
	assert.Equal(t, []error{boom}, reported)

	bus.Publish(TypeReservationsCompleted, func() {})
	assert.Len(t, reported, 2, "unencodable payloads are reported")
	assert.Equal(t, 2, calls)
}

func TestEventBus_NoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NotPanics(t, func() {
		bus.PublishEvent(Event{Type: TypeReservationCreated, Payload: []byte(`{}`)})
	})
}
