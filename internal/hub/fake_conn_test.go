package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// fakeConn records text frames written to it, for tests that need a
// deterministic handle or a transport that never drains.
type fakeConn struct {
	mu      sync.Mutex
	writes  []string
	closed  bool
	blockCh chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{}
}

// blockWrites makes every WriteMessage hang until the conn is closed,
// simulating a peer that stopped reading.
func (f *fakeConn) blockWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockCh = make(chan struct{})
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	blockCh := f.blockCh
	f.mu.Unlock()
	if blockCh != nil {
		<-blockCh
		return websocket.ErrCloseSent
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.TextMessage {
		f.writes = append(f.writes, string(data))
	}
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.blockCh != nil {
		close(f.blockCh)
		f.blockCh = nil
	}
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	copy(out, f.writes)
	return out
}

// waitForWrites polls until at least n text frames have been recorded.
func (f *fakeConn) waitForWrites(n int) bool {
	for i := 0; i < 100; i++ {
		if len(f.messages()) >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}
