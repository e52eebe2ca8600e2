package hub

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/bendog/following-api/internal/logging"
	"github.com/bendog/following-api/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// ErrHubFull is returned by Join when the channel limit is reached.
var ErrHubFull = errors.New("hub channel limit reached")

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type joinReply struct {
	handle uuid.UUID
	err    error
}

type joinCmd struct {
	baseHubCmd
	connection   Conn
	replyChannel chan joinReply
}

type leaveCmd struct {
	baseHubCmd
	handle uuid.UUID
}

type publishCmd struct {
	baseHubCmd
	message []byte
}

type unicastCmd struct {
	baseHubCmd
	handle  uuid.UUID
	message []byte
}

type channelCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type historyLengthCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// --- Hub ---

// Hub coordinates join/leave/broadcast/history for a set of channels.
// All state is owned by a single goroutine fed through cmdCh.
type Hub struct {
	name        string
	log         *slog.Logger
	cmdCh       chan hubCmd
	clock       clockwork.Clock
	registry    *registry
	history     *history
	maxChannels int
	done        chan struct{}
}

// New creates a hub and starts its actor goroutine.
// historyLimit bounds the history ring (0 = unbounded).
// maxChannels limits concurrently registered channels (0 = unlimited).
func New(name string, clock clockwork.Clock, historyLimit, maxChannels int) *Hub {
	h := &Hub{
		name:        name,
		log:         logging.WithHub(name),
		cmdCh:       make(chan hubCmd, 256),
		clock:       clock,
		registry:    newRegistry(),
		history:     newHistory(historyLimit),
		maxChannels: maxChannels,
		done:        make(chan struct{}),
	}
	go h.run()
	return h
}

// Name returns the hub's name, used in logs and metric labels.
func (h *Hub) Name() string {
	return h.name
}

// Join replays the history into conn and admits it to the broadcast set,
// returning the handle for the new channel. Replay and admission happen in a
// single actor command, so the channel misses nothing and duplicates nothing.
func (h *Hub) Join(conn Conn) (uuid.UUID, error) {
	replyCh := make(chan joinReply, 1)
	h.cmdCh <- joinCmd{connection: conn, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		return reply.handle, reply.err
	case <-timer.Chan():
		return uuid.Nil, fmt.Errorf("join command timed out after %v", commandTimeout)
	}
}

// Leave removes the channel from the hub. Unknown handles are a no-op.
func (h *Hub) Leave(handle uuid.UUID) {
	h.cmdCh <- leaveCmd{handle: handle}
}

// Publish records the message in history and broadcasts it to every channel
// registered at the time the command is handled. This is the only path by
// which a message becomes visible to current and future participants.
func (h *Hub) Publish(message string) {
	h.cmdCh <- publishCmd{message: []byte(message)}
}

// Unicast sends directly to one channel, bypassing history. Personal echoes
// go through here so they are never replayed to later joiners.
func (h *Hub) Unicast(handle uuid.UUID, message string) {
	h.cmdCh <- unicastCmd{handle: handle, message: []byte(message)}
}

// ChannelCount returns the number of registered channels.
// Returns -1 if the command times out.
func (h *Hub) ChannelCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- channelCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		h.log.Warn("ChannelCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// HistoryLength returns the current history buffer length.
// Returns -1 if the command times out.
func (h *Hub) HistoryLength() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- historyLengthCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case length := <-replyCh:
		return length
	case <-timer.Chan():
		h.log.Warn("HistoryLength timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, closing all channels.
// Blocks until the actor goroutine has exited or the timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		h.log.Info("Hub stopped gracefully")
	case <-timer.Chan():
		h.log.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

func (h *Hub) run() {
	defer close(h.done)

	// Track command channel depth every second
	depthTicker := h.clock.NewTicker(1 * time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			metrics.HubCommandChannelDepth.WithLabelValues(h.name).Set(float64(len(h.cmdCh)))

		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case joinCmd:
				h.handleJoin(c)
			case leaveCmd:
				h.handleLeave(c.handle)
			case publishCmd:
				h.handlePublish(c)
			case unicastCmd:
				h.handleUnicast(c)
			case channelCountCmd:
				c.replyChannel <- h.registry.len()
			case historyLengthCmd:
				c.replyChannel <- h.history.len()
			case stopCmd:
				h.handleStop()
				return
			default:
				h.log.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (h *Hub) handleJoin(c joinCmd) {
	if h.maxChannels > 0 && h.registry.len() >= h.maxChannels {
		h.log.Warn("Rejecting channel: limit reached", "max_channels", h.maxChannels)
		_ = c.connection.Close()
		c.replyChannel <- joinReply{err: ErrHubFull}
		return
	}

	// The writer drains the history backlog before live messages, so handing
	// it the snapshot and registering in the same step closes the replay gap.
	cw := newClientWriter(c.connection, h.clock, h.history.snapshot())
	handle := h.registry.register(cw)

	metrics.HubConnectedChannels.WithLabelValues(h.name).Set(float64(h.registry.len()))

	h.log.Debug("Channel joined", "handle", handle.String(), "total_channels", h.registry.len())
	c.replyChannel <- joinReply{handle: handle}
}

func (h *Hub) handleLeave(handle uuid.UUID) {
	cw := h.registry.unregister(handle)
	if cw == nil {
		return
	}
	cw.stop()

	metrics.HubConnectedChannels.WithLabelValues(h.name).Set(float64(h.registry.len()))

	h.log.Debug("Channel left", "handle", handle.String(), "remaining_channels", h.registry.len())
}

func (h *Hub) handlePublish(c publishCmd) {
	h.history.append(c.message)
	metrics.HubHistorySize.WithLabelValues(h.name).Set(float64(h.history.len()))
	metrics.HubMessagesPublished.WithLabelValues(h.name).Inc()

	h.evictFailed(h.registry.broadcast(c.message))
}

func (h *Hub) handleUnicast(c unicastCmd) {
	cw := h.registry.get(c.handle)
	if cw == nil {
		h.log.Debug("Unicast to unknown handle", "handle", c.handle.String())
		return
	}
	if !cw.enqueue(c.message) {
		h.evictFailed([]uuid.UUID{c.handle})
	}
}

// evictFailed removes channels whose send buffer filled up. A failed send is
// terminal for that channel's participation until it reconnects.
func (h *Hub) evictFailed(failed []uuid.UUID) {
	for _, handle := range failed {
		h.log.Warn("Evicting slow channel", "handle", handle.String())
		metrics.HubSlowChannelsEvicted.WithLabelValues(h.name).Inc()
		h.handleLeave(handle)
	}
}

func (h *Hub) handleStop() {
	total := h.registry.len()
	h.log.Info("Hub shutting down", "channels", total)

	for _, handle := range h.registry.order {
		h.registry.channels[handle].stopGraceful("Server shutting down")
	}
	h.registry = newRegistry()
	metrics.HubConnectedChannels.WithLabelValues(h.name).Set(0)

	h.log.Info("Hub shutdown complete", "disconnected_channels", total)
}
