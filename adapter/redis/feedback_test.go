package redis

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatsToBytes(t *testing.T) {
	t.Parallel()

	vec := []float32{0.5, -1.25, 3.75}
	buf := floatsToBytes(vec)
	require.Len(t, buf, len(vec)*4)

	for i, f := range vec {
		u := binary.NativeEndian.Uint32(buf[i*4:])
		assert.Equal(t, f, math.Float32frombits(u))
	}
}

func TestDistanceToScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{name: "identical vectors", distance: 0, want: 1},
		{name: "partial similarity", distance: 0.25, want: 0.75},
		{name: "orthogonal", distance: 1, want: 0},
		{name: "opposite direction clamps to zero", distance: 1.8, want: 0},
		{name: "negative distance clamps to one", distance: -0.1, want: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.want, distanceToScore(tt.distance), 1e-9)
		})
	}
}

func TestMapRedisRecord(t *testing.T) {
	t.Parallel()

	record, err := mapRedisRecord(redis.Document{
		ID: "feedback:F-1001",
		Fields: map[string]string{
			"vector_distance": "0.128",
			"feedback_id":     "F-1001",
			"content":         "our regional jet sat on the tarmac forever",
			"flight_number":   "UA101",
			"aircraft":        "CRJ-700",
			"origin":          "ORD",
			"destination":     "DEN",
			"delay_minutes":   "45.5",
			"food_score":      "2",
			"class":           "Economy",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "F-1001", record.ID)
	assert.InDelta(t, 0.872, record.Score, 1e-9)
	assert.Equal(t, "CRJ-700", record.Fields["aircraft"])
	assert.Equal(t, 45.5, record.Fields["delay_minutes"])
	assert.Equal(t, "our regional jet sat on the tarmac forever", record.Fields["text"])
}

func TestMapRedisRecord_MissingID(t *testing.T) {
	t.Parallel()

	_, err := mapRedisRecord(redis.Document{
		ID:     "feedback:broken",
		Fields: map[string]string{"vector_distance": "0.5"},
	})
	require.Error(t, err)
}
