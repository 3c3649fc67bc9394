package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID  `json:"uuid" db:"uuid"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Deadline    *time.Time `json:"deadline,omitempty" db:"deadline"`
	Priority    Priority   `json:"priority" db:"priority"`
	Status      Status     `json:"status" db:"status"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedBy   uuid.UUID  `json:"created_by" db:"created_by"`
	Comments    []Comment  `json:"comments" db:"-"`
	Attachments []string   `json:"attachments" db:"attachments"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	// заполняется хранилищем при чтении, если пользователь известен
	Assignee *User `json:"assignee,omitempty" db:"-"`
}

type Comment struct {
	User      uuid.UUID `json:"user" db:"user_id"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// User - внешний пользователь, данными владеет сервис авторизации
type User struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Email string    `json:"email" db:"email"`
}

type Status string
type Priority string

const StatusPending Status = "Pending"
const StatusInProgress Status = "In Progress"
const StatusCompleted Status = "Completed"

const PriorityLow Priority = "Low"
const PriorityMedium Priority = "Medium"
const PriorityHigh Priority = "High"

var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// New собирает задачу со значениями по умолчанию
func New(title string, createdBy uuid.UUID) *Task {
	return &Task{
		UUID:        uuid.New(),
		Title:       title,
		Priority:    PriorityMedium,
		Status:      StatusPending,
		CreatedBy:   createdBy,
		Comments:    []Comment{},
		Attachments: []string{},
	}
}

// IsOwnedBy проверяет, что задачу создал пользователь id
func (t *Task) IsOwnedBy(id uuid.UUID) bool {
	return t.CreatedBy == id
}

func (t *Task) IsAssignedTo(id uuid.UUID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == id
}

// WeeklyProgress - строка отчёта о прогрессе по неделям
type WeeklyProgress struct {
	Week           string `json:"week"`
	CompletedTasks int    `json:"completedTasks"`
	TotalTasks     int    `json:"totalTasks"`
}

// WeekKey возвращает ISO-неделю в виде "2026-W07", такие ключи сортируются как строки
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Clone возвращает глубокую копию, хранилища не отдают наружу свои указатели
func (t *Task) Clone() *Task {
	c := *t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.AssignedTo != nil {
		id := *t.AssignedTo
		c.AssignedTo = &id
	}
	if t.Assignee != nil {
		u := *t.Assignee
		c.Assignee = &u
	}
	c.Comments = append([]Comment{}, t.Comments...)
	c.Attachments = append([]string{}, t.Attachments...)
	return &c
}
