package handlers

import (
	"context"
	"taskManager/internal/models/task"
	"taskManager/internal/service"

	"github.com/google/uuid"
)

type Service interface {
	HealthCheck(context.Context) error
	CreateTask(context.Context, uuid.UUID, string, service.CreateTaskInput) (*task.Task, error)
	ListTasks(context.Context, uuid.UUID) ([]*task.Task, error)
	GetTask(context.Context, uuid.UUID, uuid.UUID) (*task.Task, error)
	UpdateTask(context.Context, uuid.UUID, uuid.UUID, service.UpdateTaskInput) (*task.Task, error)
	DeleteTask(context.Context, uuid.UUID, uuid.UUID) error
	AddComment(context.Context, uuid.UUID, uuid.UUID, string) (*task.Task, error)
	AttachFile(context.Context, uuid.UUID, uuid.UUID, string) (*task.Task, error)
	GetTaskReport(context.Context, uuid.UUID) (*service.TaskReport, error)
	NotifyDeadlines(context.Context, uuid.UUID, string) (int, error)
}

type ReportService interface {
	GetTaskCompletionReport(context.Context) (*service.CompletionReport, error)
	GetUpcomingDeadlines(context.Context) ([]*task.Task, error)
	GetProgressReport(context.Context) ([]task.WeeklyProgress, error)
}
