package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/notifier"
	rep "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

const deadlineWindow = 24 * time.Hour

type TaskService struct {
	repo       TaskRepository
	notifier   Notifier
	dispatcher Dispatcher
	now        func() time.Time
}

func NewTaskService(repo TaskRepository, notifier Notifier, dispatcher Dispatcher) *TaskService {
	return &TaskService{
		repo:       repo,
		notifier:   notifier,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    task.Priority
	AssignedTo  *uuid.UUID
}

// UpdateTaskInput: пустые поля не меняют задачу
type UpdateTaskInput struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    task.Priority
	Status      task.Status
	AssignedTo  *uuid.UUID
}

type TaskReport struct {
	TotalTasks      int `json:"totalTasks"`
	CompletedTasks  int `json:"completedTasks"`
	PendingTasks    int `json:"pendingTasks"`
	InProgressTasks int `json:"inProgressTasks"`
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, creatorID uuid.UUID, creatorEmail string, input CreateTaskInput) (*task.Task, error) {
	if creatorID == uuid.Nil {
		return nil, NewUnauthorized()
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, NewValidationError("title", "title is required")
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, NewValidationError("priority", "must be one of Low, Medium, High")
	}

	newTask := task.New(input.Title, creatorID)
	newTask.Description = input.Description
	newTask.Deadline = input.Deadline
	newTask.AssignedTo = input.AssignedTo
	if input.Priority != "" {
		newTask.Priority = input.Priority
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		logger.Error("Service: Не удалось создать задачу", err)
		return nil, NewPersistenceError("create task", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.UUID.String()),
		zap.String("created_by", creatorID.String()))

	if newTask.AssignedTo != nil {
		// письмо уходит автору задачи, а не исполнителю: так ведёт себя текущий API
		s.dispatch(notifier.Message{
			To:      creatorEmail,
			Subject: "Task Assigned",
			Body:    assignedBody(newTask),
		})
	}

	return newTask, nil
}

func (s *TaskService) ListTasks(ctx context.Context, creatorID uuid.UUID) ([]*task.Task, error) {
	tasks, err := s.repo.ListByCreator(ctx, creatorID)
	if err != nil {
		logger.Error("Service: Не удалось получить задачи", err)
		return nil, NewPersistenceError("list tasks", err)
	}
	return tasks, nil
}

// GetTask доступен автору и исполнителю
func (s *TaskService) GetTask(ctx context.Context, id, callerID uuid.UUID) (*task.Task, error) {
	t, err := s.load(ctx, id, "get task")
	if err != nil {
		return nil, err
	}
	if !t.IsOwnedBy(callerID) && !t.IsAssignedTo(callerID) {
		return nil, NewForbidden(ResourceTask, "view")
	}
	return t, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id, callerID uuid.UUID, input UpdateTaskInput) (*task.Task, error) {
	t, err := s.load(ctx, id, "update task")
	if err != nil {
		return nil, err
	}
	if !t.IsOwnedBy(callerID) {
		logger.Info("Service: Попытка изменить чужую задачу",
			zap.String("task_id", id.String()),
			zap.String("caller_id", callerID.String()))
		return nil, NewForbidden(ResourceTask, "update")
	}

	// значения проверяются после поиска и проверки прав: 404 и 403 важнее 400
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, NewValidationError("priority", "must be one of Low, Medium, High")
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, NewValidationError("status", "must be one of Pending, In Progress, Completed")
	}

	t.Apply(
		task.WithTitle(strings.TrimSpace(input.Title)),
		task.WithDescription(input.Description),
		task.WithDeadline(input.Deadline),
		task.WithPriority(input.Priority),
		task.WithStatus(input.Status),
		task.WithAssignedTo(input.AssignedTo),
	)

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			// задачу удалили между чтением и записью
			return nil, NewNotFound(ResourceTask, id.String())
		}
		logger.Error("Service: Не удалось обновить задачу", err, zap.String("task_id", id.String()))
		return nil, NewPersistenceError("update task", err)
	}

	assignee := s.resolveAssignee(ctx, t)
	if assignee == nil || assignee.Email == "" {
		return t, nil
	}

	// этот путь ждёт отправки: ошибка письма возвращается клиенту, хотя задача уже сохранена
	if err := s.notifier.Send(ctx, assignee.Email, "Task Update: "+t.Title, updateBody(t)); err != nil {
		logger.Error("Service: Не удалось уведомить исполнителя", err,
			zap.String("task_id", id.String()),
			zap.String("to", assignee.Email))
		return nil, NewNotificationError(assignee.Email, err)
	}

	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id, callerID uuid.UUID) error {
	if callerID == uuid.Nil {
		return NewUnauthorized()
	}

	t, err := s.load(ctx, id, "delete task")
	if err != nil {
		return err
	}
	if !t.IsOwnedBy(callerID) {
		return NewForbidden(ResourceTask, "delete")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(ResourceTask, id.String())
		}
		logger.Error("Service: Не удалось удалить задачу", err, zap.String("task_id", id.String()))
		return NewPersistenceError("delete task", err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}

// AddComment: комментировать может любой авторизованный пользователь
func (s *TaskService) AddComment(ctx context.Context, id, authorID uuid.UUID, text string) (*task.Task, error) {
	if authorID == uuid.Nil {
		return nil, NewUnauthorized()
	}
	if strings.TrimSpace(text) == "" {
		return nil, NewValidationError("text", "comment text is required")
	}

	if _, err := s.load(ctx, id, "add comment"); err != nil {
		return nil, err
	}

	updated, err := s.repo.AppendComment(ctx, id, task.Comment{
		User:      authorID,
		Text:      text,
		CreatedAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(ResourceTask, id.String())
		}
		logger.Error("Service: Не удалось добавить комментарий", err, zap.String("task_id", id.String()))
		return nil, NewPersistenceError("add comment", err)
	}
	return updated, nil
}

// AttachFile: путь к файлу - непрозрачная строка, существование файла не проверяется
func (s *TaskService) AttachFile(ctx context.Context, id, callerID uuid.UUID, filePath string) (*task.Task, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, NewValidationError("filePath", "file path is required")
	}

	t, err := s.load(ctx, id, "attach file")
	if err != nil {
		return nil, err
	}
	if !t.IsOwnedBy(callerID) {
		return nil, NewForbidden(ResourceTask, "modify")
	}

	updated, err := s.repo.AppendAttachment(ctx, id, filePath)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(ResourceTask, id.String())
		}
		logger.Error("Service: Не удалось прикрепить файл", err, zap.String("task_id", id.String()))
		return nil, NewPersistenceError("attach file", err)
	}
	return updated, nil
}

func (s *TaskService) GetTaskReport(ctx context.Context, callerID uuid.UUID) (*TaskReport, error) {
	counts, err := s.repo.CountByStatus(ctx, &callerID)
	if err != nil {
		logger.Error("Service: Не удалось построить отчёт", err)
		return nil, NewPersistenceError("build task report", err)
	}

	report := &TaskReport{
		CompletedTasks:  counts[task.StatusCompleted],
		PendingTasks:    counts[task.StatusPending],
		InProgressTasks: counts[task.StatusInProgress],
	}
	for _, n := range counts {
		report.TotalTasks += n
	}
	return report, nil
}

// NotifyDeadlines ставит в очередь по письму на каждую задачу с дедлайном в ближайшие 24 часа.
// Повторный вызов отправит письма ещё раз.
func (s *TaskService) NotifyDeadlines(ctx context.Context, callerID uuid.UUID, callerEmail string) (int, error) {
	tasks, err := s.repo.ListDueBefore(ctx, callerID, s.now().Add(deadlineWindow))
	if err != nil {
		logger.Error("Service: Не удалось получить задачи с дедлайном", err)
		return 0, NewPersistenceError("find approaching deadlines", err)
	}

	queued := 0
	for _, t := range tasks {
		if s.dispatch(notifier.Message{
			To:      callerEmail,
			Subject: "Task Deadline Approaching",
			Body:    deadlineBody(t),
		}) {
			queued++
		}
	}

	logger.Info("Service: Уведомления о дедлайнах",
		zap.String("caller_id", callerID.String()),
		zap.Int("tasks", len(tasks)),
		zap.Int("queued", queued))
	return queued, nil
}

func (s *TaskService) load(ctx context.Context, id uuid.UUID, operation string) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(ResourceTask, id.String())
		}
		logger.Error("Service: Ошибка получения задачи", err, zap.String("target_id", id.String()))
		return nil, NewPersistenceError(operation, err)
	}
	return t, nil
}

// resolveAssignee возвращает исполнителя задачи, если его удалось найти
func (s *TaskService) resolveAssignee(ctx context.Context, t *task.Task) *task.User {
	if t.AssignedTo == nil {
		return nil
	}
	if t.Assignee != nil && t.Assignee.ID == *t.AssignedTo && t.Assignee.Email != "" {
		return t.Assignee
	}

	user, err := s.repo.GetUser(ctx, *t.AssignedTo)
	if err != nil {
		if !errors.Is(err, rep.ErrNotFound) {
			logger.Warn("Service: Не удалось получить исполнителя", zap.Error(err))
		}
		return nil
	}
	t.Assignee = user
	return user
}

func (s *TaskService) dispatch(msg notifier.Message) bool {
	if s.dispatcher == nil {
		return false
	}
	if err := msg.Validate(); err != nil {
		logger.Warn("Service: Письмо не поставлено в очередь", zap.Error(err), zap.String("subject", msg.Subject))
		return false
	}
	return s.dispatcher.Enqueue(msg)
}
