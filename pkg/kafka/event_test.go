package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	data := map[string]any{"coupon_id": "c-1", "type": "cart_wise"}

	event, err := NewEvent("ecommerce.coupon.created", "c-1", "coupon", "coupon-service", data)

	require.NoError(t, err)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "ecommerce.coupon.created", event.EventType)
	assert.Equal(t, "c-1", event.AggregateID)
	assert.Equal(t, "coupon", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, "coupon-service", event.Source)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	event, err := NewEvent("ecommerce.coupon.applied", "c-2", "coupon", "coupon-service",
		map[string]any{"total_price": 90.0})
	require.NoError(t, err)

	event.WithCorrelationID("corr-1")

	raw, err := event.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"correlation_id":"corr-1"`)

	var payload map[string]any
	require.NoError(t, event.UnmarshalData(&payload))
	assert.Equal(t, 90.0, payload["total_price"])
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("x", "y", "z", "s", make(chan int))
	assert.Error(t, err)
}
