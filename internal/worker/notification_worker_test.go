package worker

import (
	"context"
	"errors"
	"taskManager/internal/notifier"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func intPtr(v int) *int { return &v }

func TestNewNotificationWorker_Defaults(t *testing.T) {
	w := NewNotificationWorker(new(MockSender), nil, intPtr(-1))

	assert.Equal(t, 100, cap(w.queue))
	assert.Equal(t, 2, w.workers)

	w = NewNotificationWorker(new(MockSender), intPtr(5), intPtr(3))
	assert.Equal(t, 5, cap(w.queue))
	assert.Equal(t, 3, w.workers)
}

func TestNotificationWorker_EnqueueDropsWhenFull(t *testing.T) {
	w := NewNotificationWorker(new(MockSender), intPtr(1), intPtr(1))

	assert.True(t, w.Enqueue(notifier.Message{To: "a@x.io", Subject: "first"}))
	assert.False(t, w.Enqueue(notifier.Message{To: "b@x.io", Subject: "second"}))

	assert.Equal(t, Stats{Dropped: 1}, w.Stats())
}

func TestNotificationWorker_Process(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, "ok@x.io", "Task Assigned", "body").Return(nil).Once()
	sender.On("Send", mock.Anything, "bad@x.io", "Task Assigned", "body").Return(errors.New("smtp down")).Once()

	w := NewNotificationWorker(sender, nil, nil)
	w.Process(context.Background(), notifier.Message{To: "ok@x.io", Subject: "Task Assigned", Body: "body"})
	w.Process(context.Background(), notifier.Message{To: "bad@x.io", Subject: "Task Assigned", Body: "body"})

	assert.Equal(t, Stats{Sent: 1, Failed: 1}, w.Stats())
	sender.AssertExpectations(t)
}

func TestNotificationWorker_ProcessIgnoresCancelledCaller(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), "ok@x.io", "s", "b").Return(nil).Once()

	w := NewNotificationWorker(sender, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Process(ctx, notifier.Message{To: "ok@x.io", Subject: "s", Body: "b"})

	assert.Equal(t, int64(1), w.Stats().Sent)
	sender.AssertExpectations(t)
}

func TestNotificationWorker_StartDeliversAndDrainsOnStop(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	w := NewNotificationWorker(sender, intPtr(10), intPtr(2))
	for i := 0; i < 3; i++ {
		require.True(t, w.Enqueue(notifier.Message{To: "u@x.io", Subject: "Task Deadline Approaching"}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return w.Stats().Sent == 3 }, time.Second, 10*time.Millisecond)

	// после остановки оставшиеся письма всё равно отправляются
	require.True(t, w.Enqueue(notifier.Message{To: "late@x.io", Subject: "late"}))
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker не остановился")
	}

	stats := w.Stats()
	assert.Equal(t, int64(4), stats.Sent)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, len(w.queue))
}

// blockingSender висит до отмены контекста, как SMTP-сервер, который не отвечает
type blockingSender struct{}

func (blockingSender) Send(ctx context.Context, to, subject, body string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestNotificationWorker_DrainRespectsDeadline(t *testing.T) {
	w := NewNotificationWorker(blockingSender{}, intPtr(10), intPtr(1))
	w.drainTimeout = 100 * time.Millisecond
	w.sendTimeout = time.Second

	for i := 0; i < 3; i++ {
		require.True(t, w.Enqueue(notifier.Message{To: "u@x.io", Subject: "stuck"}))
	}

	start := time.Now()
	w.drain(0)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Equal(t, int64(1), w.Stats().Failed)
	assert.Equal(t, 2, len(w.queue))
}

func TestNotificationWorker_ProcessUsesSendTimeout(t *testing.T) {
	w := NewNotificationWorker(blockingSender{}, nil, nil)
	w.sendTimeout = 50 * time.Millisecond

	start := time.Now()
	w.Process(context.Background(), notifier.Message{To: "u@x.io", Subject: "stuck"})

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int64(1), w.Stats().Failed)
}
