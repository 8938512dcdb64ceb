package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w, topic: "calbook.appointments"}

	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), AppointmentEvent{
		Type:            TypeAppointmentBooked,
		AppointmentID:   "a1",
		CalendarID:      "c1",
		Owner:           "alice",
		Participant:     "bob",
		Name:            "sync",
		Start:           start,
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "calbook.appointments", msg.Topic)
	assert.Equal(t, "c1", string(msg.Key))

	var got AppointmentEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.NotEmpty(t, got.EventID)
	assert.False(t, got.OccurredAt.IsZero())
	assert.True(t, got.Start.Equal(start))
	assert.Equal(t, "bob", got.Participant)

	carrier := &headerCarrier{headers: msg.Headers}
	assert.Equal(t, got.EventID, carrier.Get("event_id"))
	assert.Equal(t, TypeAppointmentBooked, carrier.Get("event_type"))
}

func TestKafkaPublisher_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	w := &fakeWriter{}
	p := &KafkaPublisher{w: w, topic: "t"}
	require.NoError(t, p.Publish(ctx, AppointmentEvent{Type: TypeAppointmentCancelled, CalendarID: "c1"}))

	carrier := &headerCarrier{headers: w.msgs[0].Headers}
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", carrier.Get("traceparent"))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{w: &fakeWriter{err: boom}, topic: "t"}

	err := p.Publish(context.Background(), AppointmentEvent{Type: TypeAppointmentBooked})
	assert.ErrorIs(t, err, boom)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, SplitBrokers(" k1:9092, ,k2:9092 "))
	assert.Nil(t, SplitBrokers(""))
}
