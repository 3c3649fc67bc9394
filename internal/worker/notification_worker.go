package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"taskManager/internal/logger"
	"taskManager/internal/notifier"
	"time"

	"go.uber.org/zap"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationWorker отправляет письма в фоне. HTTP-обработчики только кладут
// письмо в очередь и не ждут доставки; ошибки пишутся в лог и не возвращаются.
type NotificationWorker struct {
	sender       Sender
	queue        chan notifier.Message
	workers      int
	sendTimeout  time.Duration
	drainTimeout time.Duration

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

func NewNotificationWorker(sender Sender, queueSize *int, workers *int) *NotificationWorker {
	var queueToSet int
	if queueSize == nil || *queueSize <= 0 {
		queueToSet = 100
	} else {
		queueToSet = *queueSize
	}

	var workersToSet int
	if workers == nil || *workers <= 0 {
		workersToSet = 2
	} else {
		workersToSet = *workers
	}

	return &NotificationWorker{
		sender:       sender,
		queue:        make(chan notifier.Message, queueToSet),
		workers:      workersToSet,
		sendTimeout:  30 * time.Second,
		drainTimeout: 10 * time.Second,
	}
}

// Enqueue не блокируется: при полной очереди письмо отбрасывается
func (w *NotificationWorker) Enqueue(msg notifier.Message) bool {
	select {
	case w.queue <- msg:
		return true
	default:
		w.dropped.Add(1)
		logger.Warn("Worker: Очередь писем переполнена, письмо отброшено",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject))
		return false
	}
}

// Start блокируется до отмены ctx, затем дочищает очередь и возвращается
func (w *NotificationWorker) Start(ctx context.Context) {
	logger.Info("Worker: Запуск отправки уведомлений", zap.Int("workers", w.workers))

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.run(ctx, id)
		}(i)
	}
	wg.Wait()

	logger.Info("Worker: Отправка уведомлений остановлена",
		zap.Int64("sent", w.sent.Load()),
		zap.Int64("failed", w.failed.Load()),
		zap.Int64("dropped", w.dropped.Load()))
}

func (w *NotificationWorker) run(ctx context.Context, id int) {
	for {
		select {
		case msg := <-w.queue:
			w.Process(ctx, msg)
		case <-ctx.Done():
			w.drain(id)
			return
		}
	}
}

// drain отправляет то, что осталось в очереди, с отдельным таймаутом
func (w *NotificationWorker) drain(id int) {
	ctx, cancel := context.WithTimeout(context.Background(), w.drainTimeout)
	defer cancel()

	for {
		select {
		case msg := <-w.queue:
			w.Process(ctx, msg)
		default:
			return
		}
		if ctx.Err() != nil {
			logger.Warn("Worker: Очередь писем не дочищена", zap.Int("worker", id), zap.Int("left", len(w.queue)))
			return
		}
	}
}

func (w *NotificationWorker) Process(ctx context.Context, msg notifier.Message) {
	start := time.Now()

	// отмена ctx не прерывает отправку, но более ранний дедлайн (drain) соблюдается
	deadline := start.Add(w.sendTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	sendCtx, cancel := context.WithDeadline(context.WithoutCancel(ctx), deadline)
	defer cancel()

	if err := w.sender.Send(sendCtx, msg.To, msg.Subject, msg.Body); err != nil {
		w.failed.Add(1)
		logger.Warn("Worker: Ошибка отправки письма",
			zap.Error(err),
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject))
		return
	}

	w.sent.Add(1)
	logger.Debug("Worker: Письмо отправлено",
		zap.String("subject", msg.Subject),
		zap.Duration("ms", time.Since(start)))
}

type Stats struct {
	Sent    int64
	Failed  int64
	Dropped int64
}

func (w *NotificationWorker) Stats() Stats {
	return Stats{
		Sent:    w.sent.Load(),
		Failed:  w.failed.Load(),
		Dropped: w.dropped.Load(),
	}
}
