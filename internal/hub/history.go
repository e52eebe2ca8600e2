package hub

// history is the log of published messages, replayed to joiners in publish
// order. Only the hub goroutine touches it. A limit of 0 means unbounded
// growth, matching the original behavior of the service; a positive limit
// turns the buffer into a fixed-size ring where head marks the oldest entry
// and each append at capacity overwrites it in place.
type history struct {
	limit    int
	messages [][]byte
	head     int
}

func newHistory(limit int) *history {
	return &history{limit: limit}
}

func (h *history) append(msg []byte) {
	if h.limit > 0 && len(h.messages) == h.limit {
		h.messages[h.head] = msg
		h.head = (h.head + 1) % h.limit
		return
	}
	h.messages = append(h.messages, msg)
}

// snapshot returns the replay backlog for a joining channel, in publish order.
func (h *history) snapshot() [][]byte {
	out := make([][]byte, 0, len(h.messages))
	out = append(out, h.messages[h.head:]...)
	out = append(out, h.messages[:h.head]...)
	return out
}

func (h *history) len() int {
	return len(h.messages)
}
