package helpers

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportError_Unwrap(t *testing.T) {
	err := fmt.Errorf("session: %w", NewTransportError("dial", io.ErrUnexpectedEOF))

	assert.True(t, IsTransport(err))
	assert.False(t, IsMalformedFrame(err))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Contains(t, err.Error(), "transport dial failed")
}

func TestMalformedFrameError_TruncatesFrame(t *testing.T) {
	frame := []byte(strings.Repeat("x", 500))
	err := NewMalformedFrameError("invalid json", frame, nil)

	assert.True(t, IsMalformedFrame(err))
	assert.Equal(t, "malformed frame: invalid json", err.Error())
	assert.Len(t, err.Frame, maxFrameExcerpt+3)
}

func TestDatabaseError_Message(t *testing.T) {
	err := NewDatabaseError("insert ticks", errors.New("disk full"))
	assert.Equal(t, "database insert ticks failed: disk full", err.Error())
}
