package service_test

import (
	"context"
	"errors"
	"strings"
	"taskManager/internal/models/task"
	"taskManager/internal/notifier"
	rep "taskManager/internal/repository"
	"taskManager/internal/service"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) AppendComment(ctx context.Context, id uuid.UUID, c task.Comment) (*task.Task, error) {
	args := m.Called(ctx, id, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) AppendAttachment(ctx context.Context, id uuid.UUID, path string) (*task.Task, error) {
	args := m.Called(ctx, id, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ListDueBefore(ctx context.Context, creatorID uuid.UUID, before time.Time) ([]*task.Task, error) {
	args := m.Called(ctx, creatorID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) CountByStatus(ctx context.Context, creatorID *uuid.UUID) (map[task.Status]int, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[task.Status]int), args.Error(1)
}

func (m *MockTaskRepository) ProgressByWeek(ctx context.Context) ([]task.WeeklyProgress, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.WeeklyProgress), args.Error(1)
}

func (m *MockTaskRepository) GetUser(ctx context.Context, id uuid.UUID) (*task.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.User), args.Error(1)
}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

// MockNotifier - мок синхронной отправки
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// recordingDispatcher запоминает письма вместо отправки
type recordingDispatcher struct {
	messages []notifier.Message
	accept   bool
}

func newDispatcher() *recordingDispatcher {
	return &recordingDispatcher{accept: true}
}

func (d *recordingDispatcher) Enqueue(msg notifier.Message) bool {
	if !d.accept {
		return false
	}
	d.messages = append(d.messages, msg)
	return true
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var busErr *service.BusinessError
	require.True(t, errors.As(err, &busErr), "Expected BusinessError, got %v", err)
	assert.Equal(t, code, busErr.Code)
}

func existingTask(id, creator uuid.UUID) *task.Task {
	deadline := time.Now().Add(72 * time.Hour)
	return &task.Task{
		UUID:        id,
		Title:       "Old Title",
		Description: "Old Desc",
		Deadline:    &deadline,
		Priority:    task.PriorityMedium,
		Status:      task.StatusPending,
		CreatedBy:   creator,
		Comments:    []task.Comment{},
		Attachments: []string{},
	}
}

// TestTaskService_HealthCheck тестирует HealthCheck
func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectError: false,
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, new(MockNotifier), newDispatcher())
			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "проверка здоровья сервиса")
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_CreateTask тестирует создание задачи
func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()
	creator := uuid.New()
	assignee := uuid.New()
	deadline := time.Date(2026, 11, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		input        service.CreateTaskInput
		setupMock    func(*MockTaskRepository)
		expectCode   string
		expectMails  int
		expectedPrio task.Priority
	}{
		{
			name: "success - defaults without assignee",
			input: service.CreateTaskInput{
				Title: "Write report",
			},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
					return t.CreatedBy == creator && t.Status == task.StatusPending && t.Priority == task.PriorityMedium
				})).Return(nil)
			},
			expectMails:  0,
			expectedPrio: task.PriorityMedium,
		},
		{
			name: "success - assigned task notifies creator",
			input: service.CreateTaskInput{
				Title:      "Write report",
				Deadline:   &deadline,
				Priority:   task.PriorityHigh,
				AssignedTo: &assignee,
			},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			expectMails:  1,
			expectedPrio: task.PriorityHigh,
		},
		{
			name:       "error - empty title",
			input:      service.CreateTaskInput{Title: "   "},
			setupMock:  func(m *MockTaskRepository) {},
			expectCode: service.CodeValidation,
		},
		{
			name:       "error - unknown priority",
			input:      service.CreateTaskInput{Title: "X", Priority: "Urgent"},
			setupMock:  func(m *MockTaskRepository) {},
			expectCode: service.CodeValidation,
		},
		{
			name:  "error - store failure",
			input: service.CreateTaskInput{Title: "X", AssignedTo: &assignee},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
			},
			expectCode: service.CodePersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)
			dispatcher := newDispatcher()

			svc := service.NewTaskService(mockRepo, new(MockNotifier), dispatcher)
			result, err := svc.CreateTask(ctx, creator, "u1@x.io", tt.input)

			if tt.expectCode != "" {
				assertCode(t, err, tt.expectCode)
				assert.Nil(t, result)
				assert.Empty(t, dispatcher.messages)
			} else {
				require.NoError(t, err)
				assert.Equal(t, creator, result.CreatedBy)
				assert.Equal(t, tt.expectedPrio, result.Priority)
				assert.Equal(t, task.StatusPending, result.Status)
				assert.NotEqual(t, uuid.Nil, result.UUID)
				require.Len(t, dispatcher.messages, tt.expectMails)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_CreateTask_AssignmentMail(t *testing.T) {
	creator := uuid.New()
	assignee := uuid.New()
	deadline := time.Date(2026, 11, 20, 12, 0, 0, 0, time.UTC)

	mockRepo := new(MockTaskRepository)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	dispatcher := newDispatcher()

	svc := service.NewTaskService(mockRepo, new(MockNotifier), dispatcher)
	_, err := svc.CreateTask(context.Background(), creator, "u1@x.io", service.CreateTaskInput{
		Title:      "Write report",
		Deadline:   &deadline,
		AssignedTo: &assignee,
	})
	require.NoError(t, err)

	require.Len(t, dispatcher.messages, 1)
	msg := dispatcher.messages[0]
	// письмо получает автор, а не исполнитель
	assert.Equal(t, "u1@x.io", msg.To)
	assert.Equal(t, "Task Assigned", msg.Subject)
	assert.Contains(t, msg.Body, `A new task "Write report" has been assigned to you. Deadline:`)
	assert.Contains(t, msg.Body, "20 Nov 2026")
}

func TestTaskService_CreateTask_QueueFull(t *testing.T) {
	assignee := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	dispatcher := &recordingDispatcher{accept: false}

	svc := service.NewTaskService(mockRepo, new(MockNotifier), dispatcher)
	result, err := svc.CreateTask(context.Background(), uuid.New(), "u1@x.io", service.CreateTaskInput{
		Title:      "Write report",
		AssignedTo: &assignee,
	})

	assert.NoError(t, err)
	assert.NotNil(t, result)
}

// TestTaskService_GetTask тестирует доступ к задаче
func TestTaskService_GetTask(t *testing.T) {
	ctx := context.Background()
	taskID := uuid.New()
	creator := uuid.New()
	assignee := uuid.New()

	tests := []struct {
		name       string
		caller     uuid.UUID
		setupMock  func(*MockTaskRepository)
		expectCode string
	}{
		{
			name:   "success - creator",
			caller: creator,
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
			},
		},
		{
			name:   "success - assignee",
			caller: assignee,
			setupMock: func(m *MockTaskRepository) {
				tsk := existingTask(taskID, creator)
				tsk.AssignedTo = &assignee
				m.On("GetByID", mock.Anything, taskID).Return(tsk, nil)
			},
		},
		{
			name:   "error - stranger",
			caller: uuid.New(),
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
			},
			expectCode: service.CodeForbidden,
		},
		{
			name:   "error - not found",
			caller: creator,
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(nil, rep.ErrNotFound)
			},
			expectCode: service.CodeNotFound,
		},
		{
			name:   "error - store failure",
			caller: creator,
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(nil, errors.New("timeout"))
			},
			expectCode: service.CodePersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, new(MockNotifier), newDispatcher())
			result, err := svc.GetTask(ctx, taskID, tt.caller)

			if tt.expectCode != "" {
				assertCode(t, err, tt.expectCode)
			} else {
				require.NoError(t, err)
				assert.Equal(t, taskID, result.UUID)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_UpdateTask тестирует обновление задачи
func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()
	taskID := uuid.New()
	creator := uuid.New()

	t.Run("success - partial update keeps omitted fields", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockNotifier := new(MockNotifier)
		existing := existingTask(taskID, creator)
		oldDeadline := *existing.Deadline

		mockRepo.On("GetByID", mock.Anything, taskID).Return(existing, nil)
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
			return t.Title == "Old Title" && t.Description == "Old Desc" &&
				t.Status == task.StatusCompleted && t.Priority == task.PriorityMedium
		})).Return(nil)

		svc := service.NewTaskService(mockRepo, mockNotifier, newDispatcher())
		result, err := svc.UpdateTask(ctx, taskID, creator, service.UpdateTaskInput{
			Status: task.StatusCompleted,
		})

		require.NoError(t, err)
		assert.Equal(t, "Old Title", result.Title)
		assert.Equal(t, "Old Desc", result.Description)
		assert.Equal(t, oldDeadline, *result.Deadline)
		assert.Equal(t, task.StatusCompleted, result.Status)
		assert.Equal(t, creator, result.CreatedBy)
		mockRepo.AssertExpectations(t)
		mockNotifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success - assignee is notified synchronously", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockNotifier := new(MockNotifier)
		assignee := uuid.New()

		mockRepo.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		mockRepo.On("GetUser", mock.Anything, assignee).Return(&task.User{ID: assignee, Name: "Bob", Email: "bob@x.io"}, nil)
		mockNotifier.On("Send", mock.Anything, "bob@x.io", "Task Update: New Title",
			mock.MatchedBy(func(body string) bool {
				return strings.Contains(body, `"New Title"`) &&
					strings.Contains(body, "Status: In Progress") &&
					strings.Contains(body, "Priority: High")
			})).Return(nil)

		svc := service.NewTaskService(mockRepo, mockNotifier, newDispatcher())
		result, err := svc.UpdateTask(ctx, taskID, creator, service.UpdateTaskInput{
			Title:      "New Title",
			Priority:   task.PriorityHigh,
			Status:     task.StatusInProgress,
			AssignedTo: &assignee,
		})

		require.NoError(t, err)
		require.NotNil(t, result.Assignee)
		assert.Equal(t, "bob@x.io", result.Assignee.Email)
		mockRepo.AssertExpectations(t)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("error - notification failure after persist", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockNotifier := new(MockNotifier)
		assignee := uuid.New()
		existing := existingTask(taskID, creator)
		existing.AssignedTo = &assignee
		existing.Assignee = &task.User{ID: assignee, Email: "bob@x.io"}

		mockRepo.On("GetByID", mock.Anything, taskID).Return(existing, nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		mockNotifier.On("Send", mock.Anything, "bob@x.io", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		svc := service.NewTaskService(mockRepo, mockNotifier, newDispatcher())
		_, err := svc.UpdateTask(ctx, taskID, creator, service.UpdateTaskInput{Description: "changed"})

		assertCode(t, err, service.CodeNotificationError)
		mockRepo.AssertCalled(t, "Update", mock.Anything, mock.Anything)
	})

	tests := []struct {
		name       string
		caller     uuid.UUID
		input      service.UpdateTaskInput
		setupMock  func(*MockTaskRepository)
		expectCode string
	}{
		{
			name:   "error - not the creator",
			caller: uuid.New(),
			input:  service.UpdateTaskInput{Title: "Hijack"},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
			},
			expectCode: service.CodeForbidden,
		},
		{
			name:   "error - not found",
			caller: creator,
			input:  service.UpdateTaskInput{Title: "X"},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(nil, rep.ErrNotFound)
			},
			expectCode: service.CodeNotFound,
		},
		{
			name:   "error - invalid status",
			caller: creator,
			input:  service.UpdateTaskInput{Status: "Done"},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
			},
			expectCode: service.CodeValidation,
		},
		{
			name:   "error - invalid priority",
			caller: creator,
			input:  service.UpdateTaskInput{Priority: "low"},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
			},
			expectCode: service.CodeValidation,
		},
		{
			name:   "error - invalid status on missing task is not found",
			caller: creator,
			input:  service.UpdateTaskInput{Status: "Done"},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(nil, rep.ErrNotFound)
			},
			expectCode: service.CodeNotFound,
		},
		{
			name:   "error - invalid status on foreign task is forbidden",
			caller: uuid.New(),
			input:  service.UpdateTaskInput{Status: "Done"},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
			},
			expectCode: service.CodeForbidden,
		},
		{
			name:   "error - deleted between read and write",
			caller: creator,
			input:  service.UpdateTaskInput{Title: "X"},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
				m.On("Update", mock.Anything, mock.Anything).Return(rep.ErrNotFound)
			},
			expectCode: service.CodeNotFound,
		},
		{
			name:   "error - store failure",
			caller: creator,
			input:  service.UpdateTaskInput{Title: "X"},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
				m.On("Update", mock.Anything, mock.Anything).Return(errors.New("disk full"))
			},
			expectCode: service.CodePersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, new(MockNotifier), newDispatcher())
			_, err := svc.UpdateTask(ctx, taskID, tt.caller, tt.input)

			assertCode(t, err, tt.expectCode)
			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_DeleteTask тестирует удаление
func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()
	taskID := uuid.New()
	creator := uuid.New()

	tests := []struct {
		name       string
		caller     uuid.UUID
		setupMock  func(*MockTaskRepository)
		expectCode string
	}{
		{
			name:   "success - creator deletes",
			caller: creator,
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
				m.On("Delete", mock.Anything, taskID).Return(nil)
			},
		},
		{
			name:       "error - no caller",
			caller:     uuid.Nil,
			setupMock:  func(m *MockTaskRepository) {},
			expectCode: service.CodeUnauthorized,
		},
		{
			name:   "error - not the creator",
			caller: uuid.New(),
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
			},
			expectCode: service.CodeForbidden,
		},
		{
			name:   "error - not found",
			caller: creator,
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(nil, rep.ErrNotFound)
			},
			expectCode: service.CodeNotFound,
		},
		{
			name:   "error - store failure",
			caller: creator,
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
				m.On("Delete", mock.Anything, taskID).Return(errors.New("locked"))
			},
			expectCode: service.CodePersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, new(MockNotifier), newDispatcher())
			err := svc.DeleteTask(ctx, taskID, tt.caller)

			if tt.expectCode != "" {
				assertCode(t, err, tt.expectCode)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
			if tt.expectCode == service.CodeForbidden {
				mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
		})
	}
}

// TestTaskService_AddComment тестирует комментарии
func TestTaskService_AddComment(t *testing.T) {
	ctx := context.Background()
	taskID := uuid.New()
	creator := uuid.New()
	commenter := uuid.New()

	t.Run("success - any user may comment", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		existing := existingTask(taskID, creator)
		existing.Comments = []task.Comment{{User: creator, Text: "first"}}

		after := existing.Clone()
		after.Comments = append(after.Comments, task.Comment{User: commenter, Text: "second"})

		mockRepo.On("GetByID", mock.Anything, taskID).Return(existing, nil)
		mockRepo.On("AppendComment", mock.Anything, taskID, mock.MatchedBy(func(c task.Comment) bool {
			return c.User == commenter && c.Text == "second" && !c.CreatedAt.IsZero()
		})).Return(after, nil)

		svc := service.NewTaskService(mockRepo, new(MockNotifier), newDispatcher())
		result, err := svc.AddComment(ctx, taskID, commenter, "second")

		require.NoError(t, err)
		require.Len(t, result.Comments, 2)
		assert.Equal(t, "first", result.Comments[0].Text)
		assert.Equal(t, "second", result.Comments[1].Text)
		mockRepo.AssertExpectations(t)
	})

	t.Run("error - empty text", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		svc := service.NewTaskService(mockRepo, new(MockNotifier), newDispatcher())

		_, err := svc.AddComment(ctx, taskID, commenter, "  ")
		assertCode(t, err, service.CodeValidation)
		mockRepo.AssertNotCalled(t, "AppendComment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("error - task not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, taskID).Return(nil, rep.ErrNotFound)
		svc := service.NewTaskService(mockRepo, new(MockNotifier), newDispatcher())

		_, err := svc.AddComment(ctx, taskID, commenter, "hi")
		assertCode(t, err, service.CodeNotFound)
	})
}

// TestTaskService_AttachFile тестирует вложения
func TestTaskService_AttachFile(t *testing.T) {
	ctx := context.Background()
	taskID := uuid.New()
	creator := uuid.New()

	tests := []struct {
		name       string
		caller     uuid.UUID
		path       string
		setupMock  func(*MockTaskRepository)
		expectCode string
	}{
		{
			name:   "success - creator attaches",
			caller: creator,
			path:   "/uploads/spec.pdf",
			setupMock: func(m *MockTaskRepository) {
				after := existingTask(taskID, creator)
				after.Attachments = []string{"/uploads/spec.pdf"}
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
				m.On("AppendAttachment", mock.Anything, taskID, "/uploads/spec.pdf").Return(after, nil)
			},
		},
		{
			name:   "error - not the creator",
			caller: uuid.New(),
			path:   "/uploads/spec.pdf",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(existingTask(taskID, creator), nil)
			},
			expectCode: service.CodeForbidden,
		},
		{
			name:       "error - empty path",
			caller:     creator,
			path:       "",
			setupMock:  func(m *MockTaskRepository) {},
			expectCode: service.CodeValidation,
		},
		{
			name:   "error - not found",
			caller: creator,
			path:   "a.txt",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(nil, rep.ErrNotFound)
			},
			expectCode: service.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := service.NewTaskService(mockRepo, new(MockNotifier), newDispatcher())
			result, err := svc.AttachFile(ctx, taskID, tt.caller, tt.path)

			if tt.expectCode != "" {
				assertCode(t, err, tt.expectCode)
			} else {
				require.NoError(t, err)
				assert.Equal(t, []string{tt.path}, result.Attachments)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_GetTaskReport(t *testing.T) {
	caller := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockRepo.On("CountByStatus", mock.Anything, &caller).Return(map[task.Status]int{
		task.StatusPending:    2,
		task.StatusInProgress: 1,
		task.StatusCompleted:  3,
	}, nil)

	svc := service.NewTaskService(mockRepo, new(MockNotifier), newDispatcher())
	report, err := svc.GetTaskReport(context.Background(), caller)

	require.NoError(t, err)
	assert.Equal(t, &service.TaskReport{
		TotalTasks:      6,
		CompletedTasks:  3,
		PendingTasks:    2,
		InProgressTasks: 1,
	}, report)
}

// TestTaskService_NotifyDeadlines тестирует рассылку о дедлайнах
func TestTaskService_NotifyDeadlines(t *testing.T) {
	ctx := context.Background()
	caller := uuid.New()

	t.Run("success - one mail per due task", func(t *testing.T) {
		soon := time.Now().Add(2 * time.Hour)
		due := []*task.Task{
			{UUID: uuid.New(), Title: "A", Deadline: &soon, CreatedBy: caller},
			{UUID: uuid.New(), Title: "B", Deadline: &soon, CreatedBy: caller},
		}

		mockRepo := new(MockTaskRepository)
		mockRepo.On("ListDueBefore", mock.Anything, caller, mock.MatchedBy(func(before time.Time) bool {
			d := time.Until(before)
			return d > 23*time.Hour && d <= 24*time.Hour
		})).Return(due, nil)
		dispatcher := newDispatcher()

		svc := service.NewTaskService(mockRepo, new(MockNotifier), dispatcher)
		queued, err := svc.NotifyDeadlines(ctx, caller, "u1@x.io")

		require.NoError(t, err)
		assert.Equal(t, 2, queued)
		require.Len(t, dispatcher.messages, 2)
		for _, msg := range dispatcher.messages {
			assert.Equal(t, "u1@x.io", msg.To)
			assert.Equal(t, "Task Deadline Approaching", msg.Subject)
		}
		assert.Contains(t, dispatcher.messages[0].Body, `The task "A" has a deadline approaching:`)
	})

	t.Run("success - nothing due sends nothing", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("ListDueBefore", mock.Anything, caller, mock.Anything).Return([]*task.Task{}, nil)
		dispatcher := newDispatcher()

		svc := service.NewTaskService(mockRepo, new(MockNotifier), dispatcher)
		queued, err := svc.NotifyDeadlines(ctx, caller, "u1@x.io")

		require.NoError(t, err)
		assert.Zero(t, queued)
		assert.Empty(t, dispatcher.messages)
	})

	t.Run("error - store failure", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("ListDueBefore", mock.Anything, caller, mock.Anything).Return(nil, errors.New("boom"))

		svc := service.NewTaskService(mockRepo, new(MockNotifier), newDispatcher())
		_, err := svc.NotifyDeadlines(ctx, caller, "u1@x.io")

		assertCode(t, err, service.CodePersistence)
	})
}
