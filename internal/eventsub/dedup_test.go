package eventsub

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupBufferRejectsDuplicates(t *testing.T) {
	buf := NewDedupBuffer(10)

	assert.True(t, buf.Push("a"))
	assert.True(t, buf.Push("b"))
	assert.False(t, buf.Push("a"))
	assert.False(t, buf.Push("b"))
	assert.True(t, buf.Push("c"))
}

func TestDedupBufferEvictsOldest(t *testing.T) {
	buf := NewDedupBuffer(3)

	assert.True(t, buf.Push("a"))
	assert.True(t, buf.Push("b"))
	assert.True(t, buf.Push("c"))
	assert.True(t, buf.Push("d"))

	// "a" was evicted to make room for "d".
	assert.True(t, buf.Push("a"))
	assert.False(t, buf.Push("c"))
	assert.False(t, buf.Push("d"))
}

func TestDedupBufferCapacityHolds(t *testing.T) {
	buf := NewDedupBuffer(10)
	for i := 0; i < 10; i++ {
		assert.True(t, buf.Push(fmt.Sprintf("id-%d", i)))
	}
	for i := 0; i < 10; i++ {
		assert.False(t, buf.Push(fmt.Sprintf("id-%d", i)))
	}
	assert.True(t, buf.Push("id-10"))
	// The oldest entry rolled out.
	assert.True(t, buf.Push("id-0"))
}
