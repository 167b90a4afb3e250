package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisher_DisabledWithoutBrokers(t *testing.T) {
	p := NewKafkaPublisher(nil, "velora.orders")
	assert.False(t, p.Enabled())

	// publishing with no brokers is a no-op, not an error
	require.NoError(t, p.Publish(context.Background(), Event{Type: TypeOrderPaid, OrderID: "abc"}))
	require.NoError(t, p.Close())
}

func TestKafkaPublisher_EnabledWithBrokers(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "velora.orders")
	assert.True(t, p.Enabled())
	require.NoError(t, p.Close())
}

func TestOrderEventListener_StopBeforeStartIsSafe(t *testing.T) {
	l := NewOrderEventListener(nil, NewKafkaPublisher(nil, "velora.orders"))
	l.Stop()
	assert.False(t, l.Health().IsHealthy)
}
