/*
Package notify delivers ledger notifications after their transition commits.

DESIGN:
  - Dispatcher implements ledger.Notifier. Emit never blocks: it pushes onto a
    buffered queue and drops (with a log line) when the queue is full.
  - A single worker persists each notification through the notification
    store, then publishes it to the Hub for connected websocket clients.
  - Store and publish failures are logged and swallowed.

USAGE:
  d := notify.NewDispatcher(store, hub, 256)
  d.Start()
  defer d.Stop() // drains the queue

SEE ALSO:
  - hub.go: websocket fan-out per user
  - ledger/notify.go: Notifier interface and Notification type
*/
package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/project-engine/ledger"
)

// DefaultBuffer is the queue size used when none is given.
const DefaultBuffer = 256

// Publisher pushes a message to a user's live connections.
type Publisher interface {
	Publish(userID string, msg Message)
}

// Dispatcher is an asynchronous ledger.Notifier.
type Dispatcher struct {
	store     ledger.NotificationStore
	publisher Publisher

	// Timeout bounds each store write.
	Timeout time.Duration
	Now     func() time.Time

	queue   chan ledger.Notification
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	closed  bool
}

var _ ledger.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher. publisher may be nil.
func NewDispatcher(store ledger.NotificationStore, publisher Publisher, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Dispatcher{
		store:     store,
		publisher: publisher,
		Timeout:   5 * time.Second,
		Now:       func() time.Time { return time.Now().UTC() },
		queue:     make(chan ledger.Notification, buffer),
	}
}

// Emit queues n for delivery.
func (d *Dispatcher) Emit(n ledger.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		log.Printf("[Dispatcher] Stopped, dropping %s for %s", n.Type, n.UserID)
		return
	}
	select {
	case d.queue <- n:
	default:
		log.Printf("[Dispatcher] Queue full, dropping %s for %s", n.Type, n.UserID)
	}
}

// Start launches the worker.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	d.wg.Add(1)
	go d.run()
	log.Printf("[Dispatcher] Started with buffer: %d", cap(d.queue))
}

// Stop refuses new notifications, delivers the queued ones and waits.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		// Nothing is consuming; deliver inline.
		for n := range d.queue {
			d.deliver(n)
		}
		return
	}
	d.wg.Wait()
	log.Println("[Dispatcher] Stopped")
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n ledger.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.Now()
	}
	if n.Priority == "" {
		n.Priority = ledger.PriorityMedium
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()
	if err := d.store.CreateNotification(ctx, n); err != nil {
		log.Printf("[Dispatcher] Failed to store %s for %s: %v", n.Type, n.UserID, err)
		return
	}

	if d.publisher != nil {
		d.publisher.Publish(n.UserID, Message{
			Type:      "notification",
			Data:      NewPayload(n),
			Timestamp: n.CreatedAt,
		})
	}
}

// Payload is the JSON shape of a notification on the wire.
type Payload struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Type        string     `json:"type"`
	RelatedID   string     `json:"relatedId,omitempty"`
	RelatedType string     `json:"relatedType,omitempty"`
	Priority    string     `json:"priority"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewPayload converts a ledger notification for JSON output.
func NewPayload(n ledger.Notification) Payload {
	return Payload{
		ID:          n.ID,
		UserID:      n.UserID,
		Title:       n.Title,
		Message:     n.Message,
		Type:        string(n.Type),
		RelatedID:   n.RelatedID,
		RelatedType: n.RelatedType,
		Priority:    string(n.Priority),
		IsRead:      n.IsRead,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}
