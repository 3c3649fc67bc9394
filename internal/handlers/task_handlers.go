package handlers

import (
	"net/http"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/service"
	"time"

	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService Service
}

func NewTaskHandler(taskService Service) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("message", "Storage is unavailable"))
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("time", time.Now().UTC()))
}

func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := identity(w, r)
	if !ok {
		return
	}

	logger.Info("HTTP: Вызов сервиса для получения задач")

	tasks, err := s.TaskService.ListTasks(r.Context(), caller.UserID)
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	assignedTo, ok := parseAssignee(w, request.AssignedTo)
	if !ok {
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задач")

	created, err := s.TaskService.CreateTask(r.Context(), caller.UserID, caller.Email, service.CreateTaskInput{
		Title:       request.Title,
		Description: request.Description,
		Deadline:    request.Deadline,
		Priority:    task.Priority(request.Priority),
		AssignedTo:  assignedTo,
	})
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	writeJSON(w, http.StatusCreated, dto.FromTask(created))
}

func (s *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	logger.Info("HTTP: Вызов сервиса для получения задачи")

	found, err := s.TaskService.GetTask(r.Context(), id, caller.UserID)
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", found.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(found))
}

func (s *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	assignedTo, ok := parseAssignee(w, request.AssignedTo)
	if !ok {
		return
	}

	logger.Info("HTTP: Запрос к сервису обновления данных")

	updated, err := s.TaskService.UpdateTask(r.Context(), id, caller.UserID, service.UpdateTaskInput{
		Title:       request.Title,
		Description: request.Description,
		Deadline:    request.Deadline,
		Priority:    task.Priority(request.Priority),
		Status:      task.Status(request.Status),
		AssignedTo:  assignedTo,
	})
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(updated))
}

func (s *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления задачи")

	if err := s.TaskService.DeleteTask(r.Context(), id, caller.UserID); err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithMessage(w, http.StatusOK, "Task deleted successfully")
}

func (s *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var request dto.CommentRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	commented, err := s.TaskService.AddComment(r.Context(), id, caller.UserID, request.Text)
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Комментарий добавлен",
		zap.String("task_id", id.String()),
		zap.Int("comments", len(commented.Comments)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	writeJSON(w, http.StatusCreated, dto.FromTask(commented))
}

func (s *TaskHandler) AttachFile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var request dto.AttachmentRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	attached, err := s.TaskService.AttachFile(r.Context(), id, caller.UserID, request.FilePath)
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Файл прикреплён",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTask(attached))
}

// GetTaskReport: id в пути не используется, отчёт строится по задачам вызывающего
func (s *TaskHandler) GetTaskReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := identity(w, r)
	if !ok {
		return
	}

	report, err := s.TaskService.GetTaskReport(r.Context(), caller.UserID)
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Отчёт построен",
		zap.Int("total", report.TotalTasks),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, report)
}

func (s *TaskHandler) NotifyDeadlines(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	caller, ok := identity(w, r)
	if !ok {
		return
	}

	queued, err := s.TaskService.NotifyDeadlines(r.Context(), caller.UserID, caller.Email)
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Уведомления о дедлайнах поставлены в очередь",
		zap.Int("queued", queued),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithMessage(w, http.StatusOK, "Notifications sent for approaching deadlines")
}
