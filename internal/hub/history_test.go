package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_UnboundedAppend(t *testing.T) {
	h := newHistory(0)

	for _, msg := range []string{"a", "b", "c"} {
		h.append([]byte(msg))
	}

	assert.Equal(t, 3, h.len())
	snapshot := h.snapshot()
	assert.Equal(t, "a", string(snapshot[0]))
	assert.Equal(t, "b", string(snapshot[1]))
	assert.Equal(t, "c", string(snapshot[2]))
}

func TestHistory_RingDropsOldest(t *testing.T) {
	h := newHistory(2)

	h.append([]byte("a"))
	h.append([]byte("b"))
	h.append([]byte("c"))

	assert.Equal(t, 2, h.len())
	snapshot := h.snapshot()
	assert.Equal(t, "b", string(snapshot[0]))
	assert.Equal(t, "c", string(snapshot[1]))
}

func TestHistory_RingWrapsRepeatedly(t *testing.T) {
	h := newHistory(3)

	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		h.append([]byte(msg))
	}

	assert.Equal(t, 3, h.len())
	snapshot := h.snapshot()
	assert.Equal(t, "c", string(snapshot[0]))
	assert.Equal(t, "d", string(snapshot[1]))
	assert.Equal(t, "e", string(snapshot[2]))
}

func TestHistory_SnapshotIsACopy(t *testing.T) {
	h := newHistory(0)
	h.append([]byte("a"))

	snapshot := h.snapshot()
	h.append([]byte("b"))

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, h.len())
}
