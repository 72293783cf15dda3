package feedback

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/pkg/logger"
)

func TestEncodeRecord(t *testing.T) {
	at := time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	rec := &core.InteractionRecord{
		ID:        "id-1",
		SellerID:  "s1",
		RequestID: "r1",
		Type:      core.InteractionOfferAccepted,
		Features:  &core.FeatureVector{SpeciesMatch: 1},
		Timestamp: at,
	}

	r, err := encodeRecord("interactions", rec)
	require.NoError(t, err)
	assert.Equal(t, "interactions", r.Topic)
	assert.Equal(t, []byte("s1"), r.Key)
	assert.Equal(t, at, r.Timestamp)
	require.Len(t, r.Headers, 1)
	assert.Equal(t, "offer_accepted", string(r.Headers[0].Value))

	var decoded core.InteractionRecord
	require.NoError(t, json.Unmarshal(r.Value, &decoded))
	assert.Equal(t, "r1", decoded.RequestID)
	assert.Equal(t, 1.0, decoded.Features.SpeciesMatch)

	_, err = encodeRecord("interactions", nil)
	assert.Error(t, err)
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaPublisherConfig{Topic: "t"}, nil)
	assert.Error(t, err)
	_, err = NewKafkaPublisher(KafkaPublisherConfig{Brokers: []string{"127.0.0.1:9092"}}, nil)
	assert.Error(t, err)
}

func TestKafkaPublisher_PublishAfterClose(t *testing.T) {
	p, err := NewKafkaPublisher(KafkaPublisherConfig{
		Brokers:       []string{"127.0.0.1:1"},
		Topic:         "interactions",
		FlushInterval: time.Hour,
	}, logger.NewTestLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))
	require.NoError(t, p.Close(ctx))

	err = p.Publish(context.Background(), &core.InteractionRecord{SellerID: "s1"})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}
