package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Kind string

const (
	KindText     Kind = "text"
	KindPhoto    Kind = "photo"
	KindDocument Kind = "document"
)

// Message одно исходящее уведомление
type Message struct {
	ID       string
	Kind     Kind
	ChatID   int64
	Text     string // для фото и документов - подпись
	Filename string
	Data     []byte
	Attempt  int
	Enqueued time.Time
}

// ResultObserver получает исход каждой отправки: sent, failed, dropped
type ResultObserver interface {
	NotificationSent(result string)
}

type DispatcherConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Observer   ResultObserver
	Logger     *zap.Logger
}

// Dispatcher отправляет уведомления в фоне. Enqueue никогда не блокирует.
type Dispatcher struct {
	sender Notifier

	workers    int
	maxRetries int
	retryDelay time.Duration
	observer   ResultObserver
	logger     *zap.Logger

	messages chan Message
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	stopped  bool
}

func NewDispatcher(sender Notifier, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Dispatcher{
		sender:     sender,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		observer:   cfg.Observer,
		logger:     cfg.Logger,
		messages:   make(chan Message, cfg.BufferSize),
	}
}

// Start запускает воркеры. Повторный вызов ничего не делает.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i + 1)
	}
	d.started = true
	d.logger.Info("Notification dispatcher started", zap.Int("workers", d.workers))
}

// Stop останавливает воркеры и ждёт их завершения. Неотправленные сообщения теряются.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
	d.logger.Info("Notification dispatcher stopped", zap.Int("pending", len(d.messages)))
}

// Enqueue ставит сообщение в очередь. false - очередь полна или остановлена, сообщение отброшено.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Enqueued.IsZero() {
		msg.Enqueued = time.Now().UTC()
	}

	if stopped {
		d.drop(msg, "dispatcher stopped")
		return false
	}

	select {
	case d.messages <- msg:
		return true
	default:
		d.drop(msg, "queue full")
		return false
	}
}

func (d *Dispatcher) drop(msg Message, reason string) {
	d.logger.Warn("Notification dropped",
		zap.String("message_id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.Int64("chat_id", msg.ChatID),
		zap.String("reason", reason),
	)
	d.observe("dropped")
}

func (d *Dispatcher) observe(result string) {
	if d.observer != nil {
		d.observer.NotificationSent(result)
	}
}

func (d *Dispatcher) worker(workerID int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case msg := <-d.messages:
			if err := d.send(d.ctx, msg); err != nil {
				d.handleFailure(msg, err)
				continue
			}
			d.observe("sent")
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, msg Message) error {
	switch msg.Kind {
	case KindText, "":
		return d.sender.SendText(ctx, msg.ChatID, msg.Text)
	case KindPhoto:
		return d.sender.SendPhoto(ctx, msg.ChatID, msg.Filename, msg.Data, msg.Text)
	case KindDocument:
		return d.sender.SendDocument(ctx, msg.ChatID, msg.Filename, msg.Data, msg.Text)
	default:
		return fmt.Errorf("unknown message kind %q", msg.Kind)
	}
}

func (d *Dispatcher) handleFailure(msg Message, err error) {
	msg.Attempt++
	if msg.Attempt > d.maxRetries {
		d.logger.Error("Notification failed",
			zap.String("message_id", msg.ID),
			zap.Int64("chat_id", msg.ChatID),
			zap.Int("attempts", msg.Attempt),
			zap.Error(err),
		)
		d.observe("failed")
		return
	}
	d.logger.Warn("Notification failed, retrying",
		zap.String("message_id", msg.ID),
		zap.Int64("chat_id", msg.ChatID),
		zap.Int("attempt", msg.Attempt),
		zap.Error(err),
	)

	go func(m Message) {
		timer := time.NewTimer(d.retryDelay)
		defer timer.Stop()
		select {
		case <-d.ctx.Done():
			return
		case <-timer.C:
			d.Enqueue(m)
		}
	}(msg)
}
