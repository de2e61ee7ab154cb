package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisherEnvelope(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(context.Background(), BallotCommitted{IssuanceToken: "tok", At: at}))
	require.Len(t, w.msgs, 1)
	require.Equal(t, "tok", string(w.msgs[0].Key))

	var got struct {
		Type Type           `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	require.Equal(t, TypeBallotCommitted, got.Type)
	require.Equal(t, "tok", got.Data["issuanceToken"])
	require.NotContains(t, got.Data, "voterId")
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &recordingWriter{err: boom}}

	err := p.Publish(context.Background(), VoterVerified{VoterID: "v1", Method: "otp"})
	require.ErrorIs(t, err, boom)
}
