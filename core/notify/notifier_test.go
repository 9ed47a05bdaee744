package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaNotifier_Notify(t *testing.T) {
	w := &recordingWriter{}
	n := newKafkaNotifier(w, 0)

	produced := time.Date(2017, 1, 2, 3, 0, 0, 0, time.UTC)
	err := n.Notify(context.Background(),
		Event{JobID: 201701, Variable: "PR1h", Kind: "remapped", Member: 3, ProducedAt: produced,
			Path: "2017010203/PR1h/remapped/processed:20170102-03.m03.nc"},
		Event{JobID: 201701, Variable: "T2M", Kind: "native", Member: 4, ProducedAt: produced,
			Path: "2017010203/T2M/native/processed:20170102-03.m04.nc"},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "2017010203/PR1h/remapped/processed:20170102-03.m03.nc", string(w.msgs[0].Key))
	assert.Equal(t, "2017010203/T2M/native/processed:20170102-03.m04.nc", string(w.msgs[1].Key))
	assert.Equal(t, "kind", w.msgs[0].Headers[0].Key)
	assert.Equal(t, "remapped", string(w.msgs[0].Headers[0].Value))
	assert.Equal(t, "2017-01-02T03:00:00Z", string(w.msgs[0].Headers[1].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &decoded))
	assert.Equal(t, "T2M", decoded.Variable)
	assert.Equal(t, 4, decoded.Member)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifier_Errors(t *testing.T) {
	n := newKafkaNotifier(&recordingWriter{err: errors.New("broker down")}, 1)
	err := n.Notify(context.Background(), Event{Variable: "tp"})
	assert.ErrorContains(t, err, "broker down")

	assert.NoError(t, n.Notify(context.Background()))
}

func TestNew(t *testing.T) {
	assert.IsType(t, Noop{}, New(Config{}))
	assert.IsType(t, &KafkaNotifier{}, New(Config{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "t"}))
	assert.NoError(t, Noop{}.Notify(context.Background(), Event{}))
}
