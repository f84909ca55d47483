package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/gift-portal/internal/events"
	"github.com/spec-kit/gift-portal/internal/service"
)

// ErrQueueFull is returned to the dispatcher when a notification cannot be buffered.
var ErrQueueFull = errors.New("notification queue full")

const (
	defaultQueueSize = 256
	deliveryTimeout  = 5 * time.Second
)

// NotificationWorker delivers submission notifications off the request path.
type NotificationWorker struct {
	notifications *service.NotificationService
	queue         chan events.Event
	logger        *zap.Logger
	done          chan struct{}
}

// NewNotificationWorker builds a worker with a bounded queue.
func NewNotificationWorker(notifications *service.NotificationService, logger *zap.Logger, queueSize int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &NotificationWorker{
		notifications: notifications,
		queue:         make(chan events.Event, queueSize),
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// Subscribe routes notification events from dispatcher into the queue.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher) {
	for _, eventType := range w.notifications.EventTypes() {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
}

func (w *NotificationWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued events until ctx is cancelled, then flushes what is buffered.
func (w *NotificationWorker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case event := <-w.queue:
			w.deliver(event)
		}
	}
}

// Wait blocks until Run has returned.
func (w *NotificationWorker) Wait() {
	<-w.done
}

func (w *NotificationWorker) drain() {
	for {
		select {
		case event := <-w.queue:
			w.deliver(event)
		default:
			return
		}
	}
}

func (w *NotificationWorker) deliver(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := w.notifications.Handle(ctx, event); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("submission_id", event.SubmissionID),
			zap.Error(err))
	}
}

// StartNotificationWorker subscribes a worker to dispatcher and runs it until ctx ends.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, notifications *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	w := NewNotificationWorker(notifications, logger, defaultQueueSize)
	w.Subscribe(dispatcher)
	go w.Run(ctx)
	return w
}
