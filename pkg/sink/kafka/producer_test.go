package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	skafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultimatefreight/freightdesk/pkg/sink"
	"github.com/ultimatefreight/freightdesk/pkg/sink/kafka"
)

// fakeWriter records messages written.
type fakeWriter struct {
	msgs   []skafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...skafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_Send(t *testing.T) {
	fw := &fakeWriter{}
	p := kafka.NewProducerWithWriter(fw)

	ev := sink.Event{ID: "query_9", Type: sink.TypePriceCalculation, Data: json.RawMessage(`{"weight":2}`)}
	require.NoError(t, p.Send(context.Background(), ev))

	require.Len(t, fw.msgs, 1)
	msg := fw.msgs[0]
	assert.Equal(t, "query_9", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "price_calculation", string(msg.Headers[0].Value))

	var decoded sink.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
	assert.JSONEq(t, `{"weight":2}`, string(decoded.Data))
}

func TestProducer_SendError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	p := kafka.NewProducerWithWriter(fw)

	err := p.Send(context.Background(), sink.Event{ID: "x", Data: json.RawMessage(`{}`)})
	require.Error(t, err)
	assert.True(t, sink.IsRetryable(err))
	assert.Contains(t, err.Error(), "broker down")
}

func TestProducer_Close(t *testing.T) {
	fw := &fakeWriter{}
	p := kafka.NewProducerWithWriter(fw)
	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
	assert.Equal(t, "kafka", p.Name())
}
