package utils

import (
	"testing"

	"quote-charts/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(ts int64) models.MIntradayPoint {
	return models.MIntradayPoint{Timestamp: ts, Price: decimal.NewFromInt(ts)}
}

func timestamps(points []models.MIntradayPoint) []int64 {
	out := make([]int64, len(points))
	for i, p := range points {
		out[i] = p.Timestamp
	}
	return out
}

func TestRingBuffer_DefaultCapacity(t *testing.T) {
	rb := NewRingBuffer(0)
	assert.Equal(t, DefaultIntradayCapacity, rb.Capacity())
	assert.Empty(t, rb.GetAll())
}

func TestRingBuffer_EvictsOldest(t *testing.T) {
	rb := NewRingBuffer(3)
	for ts := int64(1); ts <= 5; ts++ {
		rb.Append(point(ts))
		assert.LessOrEqual(t, rb.Size(), 3)
	}

	require.True(t, rb.IsFull())
	assert.Equal(t, []int64{3, 4, 5}, timestamps(rb.GetAll()))
	assert.Equal(t, []int64{4, 5}, timestamps(rb.GetLatest(2)))
	assert.Equal(t, []int64{3, 4, 5}, timestamps(rb.GetLatest(10)))
}

func TestRingBuffer_PartialFill(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Append(point(7))
	rb.Append(point(8))

	assert.False(t, rb.IsFull())
	assert.Equal(t, []int64{7, 8}, timestamps(rb.GetAll()))
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer(2)
	rb.Append(point(1))
	rb.Append(point(2))
	rb.Append(point(3))
	rb.Clear()

	assert.Equal(t, 0, rb.Size())
	rb.Append(point(9))
	assert.Equal(t, []int64{9}, timestamps(rb.GetAll()))
}

func TestRingBuffer_KeepsMostRecent500(t *testing.T) {
	rb := NewRingBuffer(DefaultIntradayCapacity)
	for ts := int64(0); ts < 1234; ts++ {
		rb.Append(point(ts))
	}

	all := rb.GetAll()
	require.Len(t, all, 500)
	assert.Equal(t, int64(734), all[0].Timestamp)
	assert.Equal(t, int64(1233), all[499].Timestamp)
	for i := 1; i < len(all); i++ {
		assert.Equal(t, all[i-1].Timestamp+1, all[i].Timestamp)
	}
}
