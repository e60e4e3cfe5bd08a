package worker

import (
	"context"
	"log"
	"time"

	"quickcourt/internal/domain"
	"quickcourt/internal/models"
)

// Backoff doubles the wait between delivery attempts, starting at Base
// and never exceeding Cap. Notification delivery has no use for a
// configurable factor; the doubling is fixed.
type Backoff struct {
	MaxAttempts int
	Base        time.Duration
	Cap         time.Duration
}

func (b Backoff) wait(attempt int) time.Duration {
	d := b.Base
	if d <= 0 {
		d = time.Second
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Cap > 0 && d >= b.Cap {
			return b.Cap
		}
	}
	return d
}

type notifyTask struct {
	Recipient int64
	Kind      string
	Data      map[string]string
	Attempts  int
}

// NotifyDispatcher decouples booking transitions from notification
// delivery. Notify enqueues and returns immediately; the loop started by
// Start delivers with exponential backoff. A full queue drops the
// notification rather than block a booking.
type NotifyDispatcher struct {
	sender  domain.NotificationSender
	backoff Backoff
	queue   chan notifyTask
	logger  *log.Logger
}

func NewNotifyDispatcher(sender domain.NotificationSender, backoff Backoff, logger *log.Logger) *NotifyDispatcher {
	if backoff.MaxAttempts == 0 {
		backoff.MaxAttempts = 5
	}
	if backoff.Base == 0 {
		backoff.Base = 2 * time.Second
	}
	if backoff.Cap == 0 {
		backoff.Cap = 1 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}

	return &NotifyDispatcher{
		sender:  sender,
		backoff: backoff,
		queue:   make(chan notifyTask, models.NotifyQueueSize),
		logger:  logger,
	}
}

// Notify implements domain.NotificationSender by enqueueing the message.
func (d *NotifyDispatcher) Notify(ctx context.Context, recipient int64, kind string, data map[string]string) error {
	select {
	case d.queue <- notifyTask{Recipient: recipient, Kind: kind, Data: data}:
	default:
		d.logger.Printf("notify_dispatcher: queue full, %s to %d dropped", kind, recipient)
	}
	return nil
}

// Start launches the delivery loop; stops when ctx is done.
func (d *NotifyDispatcher) Start(ctx context.Context) {
	d.logger.Printf("notify_dispatcher: started")
	defer d.logger.Printf("notify_dispatcher: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-d.queue:
			d.deliver(ctx, task)
		}
	}
}

func (d *NotifyDispatcher) deliver(ctx context.Context, task notifyTask) {
	for {
		err := d.sender.Notify(ctx, task.Recipient, task.Kind, task.Data)
		if err == nil {
			return
		}

		task.Attempts++
		if task.Attempts >= d.backoff.MaxAttempts {
			d.logger.Printf("notify_dispatcher: %s to %d dropped after %d attempts: %v",
				task.Kind, task.Recipient, task.Attempts, err)
			return
		}

		delay := d.backoff.wait(task.Attempts)
		d.logger.Printf("notify_dispatcher: %s to %d failed (attempt %d), retrying in %s: %v",
			task.Kind, task.Recipient, task.Attempts, delay, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}
