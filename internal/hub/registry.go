package hub

import "github.com/google/uuid"

// registry tracks live channels in insertion order. Only the hub goroutine
// touches it, so it needs no locking of its own.
type registry struct {
	order    []uuid.UUID
	channels map[uuid.UUID]*clientWriter
}

func newRegistry() *registry {
	return &registry{
		channels: make(map[uuid.UUID]*clientWriter),
	}
}

func (r *registry) register(cw *clientWriter) uuid.UUID {
	handle := uuid.New()
	r.channels[handle] = cw
	r.order = append(r.order, handle)
	return handle
}

// unregister removes the handle and returns its writer, or nil if absent.
// Absence is a no-op so disconnect cleanup can race slow-client eviction.
func (r *registry) unregister(handle uuid.UUID) *clientWriter {
	cw, exists := r.channels[handle]
	if !exists {
		return nil
	}
	delete(r.channels, handle)
	for i, h := range r.order {
		if h == handle {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return cw
}

func (r *registry) get(handle uuid.UUID) *clientWriter {
	return r.channels[handle]
}

// broadcast enqueues msg to every registered channel, in insertion order.
// A full send buffer on one channel never stops the sweep; the handles that
// failed are collected and returned afterwards.
func (r *registry) broadcast(msg []byte) []uuid.UUID {
	var failed []uuid.UUID
	for _, handle := range r.order {
		if !r.channels[handle].enqueue(msg) {
			failed = append(failed, handle)
		}
	}
	return failed
}

func (r *registry) len() int {
	return len(r.channels)
}
