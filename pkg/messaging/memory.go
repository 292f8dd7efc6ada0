package messaging

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDedupWindow mirrors the five minute deduplication interval of FIFO queues and topics.
const DefaultDedupWindow = 5 * time.Minute

// DefaultVisibilityTimeout is how long a received message stays hidden before it is redelivered.
const DefaultVisibilityTimeout = 30 * time.Second

var errQueueClosed = errors.New("memory queue closed")

type memoryEntry struct {
	delivery   Delivery
	sentAt     time.Time
	receivedAt time.Time
}

// MemoryQueue is an in-process Queue. In FIFO mode it drops sends whose dedup key was seen inside the
// dedup window and withholds messages whose group still has an unacknowledged delivery. Deliveries not
// deleted within the visibility timeout go back to the head of the queue.
type MemoryQueue struct {
	mu         sync.Mutex
	fifo       bool
	window     time.Duration
	visibility time.Duration
	now        func() time.Time
	pending    []memoryEntry
	inFlight   map[string]memoryEntry
	seen       map[string]seenKey
	signal     chan struct{}
	closed     bool
}

type seenKey struct {
	id string
	at time.Time
}

// MemoryOption tweaks the in-memory drivers.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	fifo       bool
	window     time.Duration
	visibility time.Duration
	now        func() time.Time
}

// WithFIFO enables ordering groups and deduplication.
func WithFIFO(enabled bool) MemoryOption {
	return func(o *memoryOptions) { o.fifo = enabled }
}

// WithDedupWindow overrides DefaultDedupWindow.
func WithDedupWindow(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.window = d }
}

// WithVisibilityTimeout overrides DefaultVisibilityTimeout. Zero or less keeps deliveries in flight until
// they are deleted or released.
func WithVisibilityTimeout(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.visibility = d }
}

// WithClock overrides time.Now, used by tests to age the dedup window.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

func buildMemoryOptions(opts []MemoryOption) memoryOptions {
	o := memoryOptions{window: DefaultDedupWindow, visibility: DefaultVisibilityTimeout, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// NewMemoryQueue returns an empty in-process queue.
func NewMemoryQueue(opts ...MemoryOption) *MemoryQueue {
	o := buildMemoryOptions(opts)
	return &MemoryQueue{
		fifo:       o.fifo,
		window:     o.window,
		visibility: o.visibility,
		now:        o.now,
		inFlight:   map[string]memoryEntry{},
		seen:       map[string]seenKey{},
		signal:     make(chan struct{}),
	}
}

func (q *MemoryQueue) FIFO() bool { return q.fifo }

func (q *MemoryQueue) Send(_ context.Context, msg Message) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", errQueueClosed
	}

	now := q.now()
	if q.fifo && msg.DedupKey != "" {
		q.expireSeenLocked(now)
		if prior, ok := q.seen[msg.DedupKey]; ok {
			return prior.id, nil
		}
	}

	id := uuid.NewString()
	body := make([]byte, len(msg.Body))
	copy(body, msg.Body)
	q.pending = append(q.pending, memoryEntry{
		delivery: Delivery{
			ID:         id,
			Body:       body,
			GroupKey:   msg.GroupKey,
			DedupKey:   msg.DedupKey,
			Attributes: CloneAttributes(msg.Attributes),
		},
		sentAt: now,
	})
	if q.fifo && msg.DedupKey != "" {
		q.seen[msg.DedupKey] = seenKey{id: id, at: now}
	}
	q.wakeLocked()
	return id, nil
}

// Receive returns up to opts.MaxMessages deliveries, waiting up to opts.WaitTime when the queue is empty.
func (q *MemoryQueue) Receive(ctx context.Context, opts ReceiveOptions) ([]Delivery, error) {
	max := opts.MaxMessages
	if max <= 0 {
		max = 1
	}
	var deadline <-chan time.Time
	if opts.WaitTime > 0 {
		timer := time.NewTimer(opts.WaitTime)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, errQueueClosed
		}
		batch := q.takeLocked(max)
		signal := q.signal
		expiry, hasExpiry := q.nextExpiryLocked()
		q.mu.Unlock()

		if len(batch) > 0 || deadline == nil {
			return batch, nil
		}

		var (
			expired     <-chan time.Time
			expiryTimer *time.Timer
		)
		if hasExpiry {
			expiryTimer = time.NewTimer(expiry)
			expired = expiryTimer.C
		}

		select {
		case <-ctx.Done():
			stopTimer(expiryTimer)
			return nil, ctx.Err()
		case <-deadline:
			stopTimer(expiryTimer)
			return nil, nil
		case <-signal:
		case <-expired:
		}
		stopTimer(expiryTimer)
	}
}

func (q *MemoryQueue) takeLocked(max int) []Delivery {
	now := q.now()
	q.requeueExpiredLocked(now)

	busyGroups := map[string]bool{}
	if q.fifo {
		for _, entry := range q.inFlight {
			busyGroups[entry.delivery.GroupKey] = true
		}
	}

	var (
		batch []Delivery
		rest  []memoryEntry
	)
	for _, entry := range q.pending {
		if len(batch) >= max || (q.fifo && busyGroups[entry.delivery.GroupKey]) {
			rest = append(rest, entry)
			continue
		}
		entry.delivery.ReceiptHandle = uuid.NewString()
		entry.delivery.ReceiveCount++
		entry.receivedAt = now
		q.inFlight[entry.delivery.ReceiptHandle] = entry
		batch = append(batch, entry.delivery)
	}
	q.pending = rest
	return batch
}

func (q *MemoryQueue) Delete(_ context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.inFlight[receiptHandle]; !ok {
		return errors.New("unknown receipt handle")
	}
	delete(q.inFlight, receiptHandle)
	q.wakeLocked()
	return nil
}

// ReleaseInFlight returns every unacknowledged delivery to the head of the queue, emulating a visibility
// timeout expiring after a consumer crashed between receive and delete.
func (q *MemoryQueue) ReleaseInFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.requeueLocked(func(memoryEntry) bool { return true })
	if n > 0 {
		q.wakeLocked()
	}
	return n
}

func (q *MemoryQueue) requeueExpiredLocked(now time.Time) {
	if q.visibility <= 0 {
		return
	}
	q.requeueLocked(func(entry memoryEntry) bool {
		return now.Sub(entry.receivedAt) >= q.visibility
	})
}

// requeueLocked moves matching in-flight entries back to the head of pending, oldest send first.
func (q *MemoryQueue) requeueLocked(match func(memoryEntry) bool) int {
	var released []memoryEntry
	for handle, entry := range q.inFlight {
		if !match(entry) {
			continue
		}
		entry.delivery.ReceiptHandle = ""
		released = append(released, entry)
		delete(q.inFlight, handle)
	}
	if len(released) == 0 {
		return 0
	}
	slices.SortStableFunc(released, func(a, b memoryEntry) int { return a.sentAt.Compare(b.sentAt) })
	q.pending = append(released, q.pending...)
	return len(released)
}

// nextExpiryLocked reports how long until the oldest in-flight delivery becomes visible again.
func (q *MemoryQueue) nextExpiryLocked() (time.Duration, bool) {
	if q.visibility <= 0 || len(q.inFlight) == 0 {
		return 0, false
	}
	now := q.now()
	var (
		wait  time.Duration
		found bool
	)
	for _, entry := range q.inFlight {
		left := q.visibility - now.Sub(entry.receivedAt)
		if !found || left < wait {
			wait, found = left, true
		}
	}
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, true
}

// Len reports pending plus in-flight messages.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) + len(q.inFlight)
}

// Close wakes any blocked receivers and rejects further use.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.signal)
	}
	return nil
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func (q *MemoryQueue) wakeLocked() {
	if q.closed {
		return
	}
	close(q.signal)
	q.signal = make(chan struct{})
}

func (q *MemoryQueue) expireSeenLocked(now time.Time) {
	for key, entry := range q.seen {
		if now.Sub(entry.at) >= q.window {
			delete(q.seen, key)
		}
	}
}

// MemoryTopic is an in-process Topic that records what was published.
type MemoryTopic struct {
	mu        sync.Mutex
	fifo      bool
	window    time.Duration
	now       func() time.Time
	seen      map[string]seenKey
	published []Notification
}

// NewMemoryTopic returns an empty in-process topic.
func NewMemoryTopic(opts ...MemoryOption) *MemoryTopic {
	o := buildMemoryOptions(opts)
	return &MemoryTopic{
		fifo:   o.fifo,
		window: o.window,
		now:    o.now,
		seen:   map[string]seenKey{},
	}
}

func (t *MemoryTopic) FIFO() bool { return t.fifo }

func (t *MemoryTopic) Publish(_ context.Context, n Notification) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.fifo && n.DedupKey != "" {
		for key, entry := range t.seen {
			if now.Sub(entry.at) >= t.window {
				delete(t.seen, key)
			}
		}
		if prior, ok := t.seen[n.DedupKey]; ok {
			return prior.id, nil
		}
	}

	id := uuid.NewString()
	n.Attributes = CloneAttributes(n.Attributes)
	t.published = append(t.published, n)
	if t.fifo && n.DedupKey != "" {
		t.seen[n.DedupKey] = seenKey{id: id, at: now}
	}
	return id, nil
}

// Published returns a copy of every notification accepted so far.
func (t *MemoryTopic) Published() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Notification, len(t.published))
	copy(out, t.published)
	return out
}
