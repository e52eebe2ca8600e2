package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/bendog/following-api/internal/hub"
	"github.com/bendog/following-api/internal/metrics"
)

var (
	// ErrClientNotFound is returned when an identity is absent from the ledger.
	// Benign during disconnect races, a programming error during UpdateValue.
	ErrClientNotFound = errors.New("client not found")

	// ErrEmptyLedger is returned when aggregating over zero clients. Lifecycle
	// ordering (AddClient before UpdateValue) keeps it unreachable in practice.
	ErrEmptyLedger = errors.New("ledger has no clients")
)

// Snapshot is the serialized aggregate payload broadcast to monitors.
type Snapshot struct {
	Detail map[string]int `json:"detail"`
	Mean   float64        `json:"mean"`
	Median int            `json:"median"`
}

// StatusLedger maps client identities to integer scores. It owns a private
// broadcast hub, distinct from any chat hub, through which every aggregate
// update is published.
type StatusLedger struct {
	mu     sync.Mutex
	scores map[string]int
	hub    *hub.Hub
}

// New creates a ledger with its own hub. historyLimit and maxChannels are
// passed through to the owned hub.
func New(clock clockwork.Clock, historyLimit, maxChannels int) *StatusLedger {
	return &StatusLedger{
		scores: make(map[string]int),
		hub:    hub.New("status", clock, historyLimit, maxChannels),
	}
}

// AddClient registers the identity with a zero score. Re-adding a present
// identity resets its score to zero; reconnecting clients rely on that.
func (l *StatusLedger) AddClient(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.scores[identity] = 0
	metrics.LedgerClients.Set(float64(len(l.scores)))
}

// RemoveClient deletes the identity's entry.
func (l *StatusLedger) RemoveClient(identity string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.scores[identity]; !exists {
		return fmt.Errorf("remove client %q: %w", identity, ErrClientNotFound)
	}
	delete(l.scores, identity)
	metrics.LedgerClients.Set(float64(len(l.scores)))
	return nil
}

// UpdateValue sets the identity's score and publishes the refreshed aggregate
// snapshot through the owned hub. The identity must have been added first.
// Publishing only enqueues onto the hub actor, so holding the lock across it
// keeps aggregate broadcasts in mutation order without blocking on I/O.
func (l *StatusLedger) UpdateValue(identity string, value int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.scores[identity]; !exists {
		return fmt.Errorf("update value for %q: %w", identity, ErrClientNotFound)
	}
	l.scores[identity] = value

	snapshot, err := l.aggregateLocked()
	if err != nil {
		return fmt.Errorf("aggregate after update: %w", err)
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal aggregate: %w", err)
	}

	l.hub.Publish(string(data))
	metrics.LedgerAggregatesPublished.Inc()
	return nil
}

// ClientStatus returns the identity's current score.
func (l *StatusLedger) ClientStatus(identity string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	score, exists := l.scores[identity]
	if !exists {
		return 0, fmt.Errorf("status of client %q: %w", identity, ErrClientNotFound)
	}
	return score, nil
}

// Average returns the arithmetic mean of all current scores.
func (l *StatusLedger) Average() (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.scores) == 0 {
		return 0, ErrEmptyLedger
	}
	return mean(l.values()), nil
}

// Aggregate computes the snapshot over the current entry set.
func (l *StatusLedger) Aggregate() (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.aggregateLocked()
}

func (l *StatusLedger) aggregateLocked() (Snapshot, error) {
	if len(l.scores) == 0 {
		return Snapshot{}, ErrEmptyLedger
	}

	detail := make(map[string]int, len(l.scores))
	for identity, score := range l.scores {
		detail[identity] = score
	}
	values := l.values()

	return Snapshot{
		Detail: detail,
		Mean:   mean(values),
		Median: int(math.Floor(groupedMedian(values))),
	}, nil
}

// values returns the current scores. Callers hold l.mu.
func (l *StatusLedger) values() []int {
	values := make([]int, 0, len(l.scores))
	for _, score := range l.scores {
		values = append(values, score)
	}
	return values
}

// JoinMonitor admits a channel to the owned hub: it replays past aggregate
// snapshots and receives new ones, but its input never reaches Publish.
func (l *StatusLedger) JoinMonitor(conn hub.Conn) (uuid.UUID, error) {
	return l.hub.Join(conn)
}

// LeaveMonitor removes a monitor channel from the owned hub.
func (l *StatusLedger) LeaveMonitor(handle uuid.UUID) {
	l.hub.Leave(handle)
}

// MonitorCount returns the number of channels on the owned hub.
func (l *StatusLedger) MonitorCount() int {
	return l.hub.ChannelCount()
}

// Stop shuts down the owned hub.
func (l *StatusLedger) Stop() {
	l.hub.Stop()
}
