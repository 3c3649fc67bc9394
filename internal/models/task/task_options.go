package task

import (
	"time"

	"github.com/google/uuid"
)

// TaskOption перезаписывает одно поле задачи.
// Конструкторы возвращают nil для пустого значения: пустое поле при обновлении не меняет задачу.
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	if title == "" {
		return nil
	}
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	if description == "" {
		return nil
	}
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithDeadline(deadline *time.Time) TaskOption {
	if deadline == nil || deadline.IsZero() {
		return nil
	}
	d := *deadline
	return func(task *Task) {
		task.Deadline = &d
	}
}

func WithAssignedTo(userID *uuid.UUID) TaskOption {
	if userID == nil || *userID == uuid.Nil {
		return nil
	}
	id := *userID
	return func(task *Task) {
		if task.AssignedTo == nil || *task.AssignedTo != id {
			// старый исполнитель больше не актуален
			task.Assignee = nil
		}
		task.AssignedTo = &id
	}
}

// Apply применяет непустые опции по порядку
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}
}
