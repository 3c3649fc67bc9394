package dto

import (
	"taskManager/internal/models/task"
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
}

// UpdateTaskRequest: пустые поля задачу не меняют
type UpdateTaskRequest struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Status      string     `json:"status,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

type AttachmentRequest struct {
	FilePath string `json:"filePath"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

type CommentResponse struct {
	User      uuid.UUID `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type TaskResponse struct {
	UUID        uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Deadline    *time.Time        `json:"deadline,omitempty"`
	Priority    string            `json:"priority"`
	Status      string            `json:"status"`
	AssignedTo  *UserResponse     `json:"assignedTo,omitempty"`
	CreatedBy   uuid.UUID         `json:"createdBy"`
	Comments    []CommentResponse `json:"comments"`
	Attachments []string          `json:"attachments"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func FromTask(t *task.Task) TaskResponse {
	resp := TaskResponse{
		UUID:        t.UUID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		CreatedBy:   t.CreatedBy,
		Comments:    make([]CommentResponse, 0, len(t.Comments)),
		Attachments: append([]string{}, t.Attachments...),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}

	// исполнитель раскрывается, если хранилище его нашло
	if t.AssignedTo != nil {
		resp.AssignedTo = &UserResponse{ID: *t.AssignedTo}
		if t.Assignee != nil {
			resp.AssignedTo.Name = t.Assignee.Name
			resp.AssignedTo.Email = t.Assignee.Email
		}
	}

	for _, c := range t.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{
			User:      c.User,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return resp
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type MessageResponse struct {
	Message string `json:"message"`
}
