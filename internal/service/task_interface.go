package service

import (
	"context"
	"strings"
	"taskManager/internal/models/task"
	"taskManager/internal/notifier"
	"time"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	Delete(context.Context, uuid.UUID) error
	AppendComment(context.Context, uuid.UUID, task.Comment) (*task.Task, error)
	AppendAttachment(context.Context, uuid.UUID, string) (*task.Task, error)
	ListByCreator(context.Context, uuid.UUID) ([]*task.Task, error)
	ListDueBefore(context.Context, uuid.UUID, time.Time) ([]*task.Task, error)
	ListDueBetween(context.Context, time.Time, time.Time) ([]*task.Task, error)
	CountByStatus(context.Context, *uuid.UUID) (map[task.Status]int, error)
	ProgressByWeek(context.Context) ([]task.WeeklyProgress, error)
	GetUser(context.Context, uuid.UUID) (*task.User, error)
}

// Notifier отправляет письмо синхронно
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Dispatcher принимает письмо на фоновую отправку и сразу возвращается
type Dispatcher interface {
	Enqueue(notifier.Message) bool
}

type Resource string

const ResourceTask Resource = "task"

func (r Resource) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}
