package utils

import (
	"quote-charts/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of intraday points.
// Appending to a full buffer overwrites the oldest point.
// -----------------------------------------------------------------------------

// DefaultIntradayCapacity is the number of intraday points kept per symbol
const DefaultIntradayCapacity = 500

type RingBuffer struct {
	data     []models.MIntradayPoint
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultIntradayCapacity
	}

	return &RingBuffer{
		data:     make([]models.MIntradayPoint, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds a point, evicting the oldest one when full
func (rb *RingBuffer) Append(point models.MIntradayPoint) {
	rb.data[rb.index] = point
	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// GetLatest returns the n most recent points, oldest first
func (rb *RingBuffer) GetLatest(n int) []models.MIntradayPoint {
	if rb.size == 0 || n <= 0 {
		return []models.MIntradayPoint{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]models.MIntradayPoint, count)

	// Latest data is at index-1
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	return result
}

// -----------------------------------------------------------------------------

// GetAll returns all data in insertion order (oldest to newest)
func (rb *RingBuffer) GetAll() []models.MIntradayPoint {
	return rb.GetLatest(rb.size)
}

// -----------------------------------------------------------------------------

// Size returns current number of elements
func (rb *RingBuffer) Size() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Capacity returns buffer capacity (fixed)
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// -----------------------------------------------------------------------------

// IsFull returns whether buffer is full
func (rb *RingBuffer) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Clear resets the buffer
func (rb *RingBuffer) Clear() {
	for i := range rb.data {
		rb.data[i] = models.MIntradayPoint{}
	}
	rb.index = 0
	rb.size = 0
}
