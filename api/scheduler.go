/*
scheduler.go - Assignment response reminder scheduler

PURPOSE:
  Periodically reminds employees about pending assignments whose response
  deadline is close or already passed. Each assignment is reminded once.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Delegates the scan to ledger.Service.SendDueReminders
  - Lead controls how far before the deadline a reminder goes out

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Lead: Reminder lead time before the deadline (default: 12 hours)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReminderScheduler(service)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - ledger/project.go: SendDueReminders
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/project-engine/ledger"
)

// ReminderScheduler sends assignment response reminders.
type ReminderScheduler struct {
	Service       *ledger.Service
	CheckInterval time.Duration
	Lead          time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReminderScheduler creates a new scheduler.
func NewReminderScheduler(svc *ledger.Service) *ReminderScheduler {
	return &ReminderScheduler{
		Service:       svc,
		CheckInterval: time.Hour,
		Lead:          12 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled || rs.CheckInterval <= 0 {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Scheduler] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the scheduler and waits for a running check to finish.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (rs *ReminderScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunOnce(context.Background())

	for {
		select {
		case <-rs.ticker.C:
			rs.RunOnce(context.Background())
		case <-rs.stop:
			return
		}
	}
}

// RunOnce performs a single reminder pass and returns the number sent.
func (rs *ReminderScheduler) RunOnce(ctx context.Context) int {
	sent, err := rs.Service.SendDueReminders(ctx, rs.Lead)
	if err != nil {
		log.Printf("[Scheduler] Reminder pass failed after %d reminders: %v", sent, err)
		return sent
	}
	if sent > 0 {
		log.Printf("[Scheduler] Sent %d assignment reminders", sent)
	}
	return sent
}
