package inmemory

import (
	"context"
	"sort"
	"sync"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
)

type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	users   map[uuid.UUID]*task.User
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		users:   make(map[uuid.UUID]*task.User),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

// UpsertUser добавляет или заменяет пользователя в справочнике
func (s *TaskStorage) UpsertUser(ctx context.Context, user task.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.users[user.ID] = &user
	return nil
}

func (s *TaskStorage) GetUser(ctx context.Context, id uuid.UUID) (*task.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := time.Now()
	taskToCreate.CreatedAt = now
	taskToCreate.UpdatedAt = now
	if taskToCreate.Comments == nil {
		taskToCreate.Comments = []task.Comment{}
	}
	if taskToCreate.Attachments == nil {
		taskToCreate.Attachments = []string{}
	}

	stored := taskToCreate.Clone()
	stored.Assignee = nil
	s.storage[stored.UUID] = stored
	s.ids = append(s.ids, stored.UUID)
	return nil
}

// Update перезаписывает поля задачи. Комментарии, вложения, автор и дата создания
// не трогаются: они меняются только своими операциями.
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.storage[taskToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}

	next := taskToUpdate.Clone()
	next.Assignee = nil
	next.CreatedBy = stored.CreatedBy
	next.CreatedAt = stored.CreatedAt
	next.Comments = stored.Comments
	next.Attachments = stored.Attachments
	next.UpdatedAt = time.Now()
	s.storage[next.UUID] = next

	taskToUpdate.UpdatedAt = next.UpdatedAt
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s.withAssignee(taskToGet), nil
}

func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

func (s *TaskStorage) AppendComment(ctx context.Context, id uuid.UUID, comment task.Comment) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	stored.Comments = append(stored.Comments, comment)
	stored.UpdatedAt = time.Now()
	return s.withAssignee(stored), nil
}

func (s *TaskStorage) AppendAttachment(ctx context.Context, id uuid.UUID, filePath string) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	stored.Attachments = append(stored.Attachments, filePath)
	stored.UpdatedAt = time.Now()
	return s.withAssignee(stored), nil
}

// задачи автора в порядке создания
func (s *TaskStorage) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.filter(func(t *task.Task) bool {
		return t.CreatedBy == creatorID
	}), nil
}

func (s *TaskStorage) ListDueBefore(ctx context.Context, creatorID uuid.UUID, before time.Time) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.filter(func(t *task.Task) bool {
		return t.CreatedBy == creatorID &&
			t.Deadline != nil &&
			!t.Deadline.After(before)
	}), nil
}

// задачи всех пользователей с дедлайном в [from, to], по возрастанию дедлайна
func (s *TaskStorage) ListDueBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	tasks := s.filter(func(t *task.Task) bool {
		return t.Deadline != nil &&
			!t.Deadline.Before(from) &&
			!t.Deadline.After(to)
	})
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Deadline.Before(*tasks[j].Deadline)
	})
	return tasks, nil
}

// CountByStatus считает задачи по статусам; creatorID == nil означает все задачи
func (s *TaskStorage) CountByStatus(ctx context.Context, creatorID *uuid.UUID) (map[task.Status]int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	counts := make(map[task.Status]int, len(task.Statuses))
	for _, id := range s.ids {
		t := s.storage[id]
		if creatorID != nil && t.CreatedBy != *creatorID {
			continue
		}
		counts[t.Status]++
	}
	return counts, nil
}

func (s *TaskStorage) ProgressByWeek(ctx context.Context) ([]task.WeeklyProgress, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	byWeek := make(map[string]*task.WeeklyProgress)
	for _, id := range s.ids {
		t := s.storage[id]
		key := task.WeekKey(t.CreatedAt.UTC())

		row, ok := byWeek[key]
		if !ok {
			row = &task.WeeklyProgress{Week: key}
			byWeek[key] = row
		}
		row.TotalTasks++
		if t.Status == task.StatusCompleted {
			row.CompletedTasks++
		}
	}

	res := make([]task.WeeklyProgress, 0, len(byWeek))
	for _, row := range byWeek {
		res = append(res, *row)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Week < res[j].Week
	})
	return res, nil
}

// вызывается под блокировкой
func (s *TaskStorage) filter(keep func(*task.Task) bool) []*task.Task {
	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if !keep(t) {
			continue
		}
		res = append(res, s.withAssignee(t))
	}
	return res
}

// вызывается под блокировкой
func (s *TaskStorage) withAssignee(t *task.Task) *task.Task {
	c := t.Clone()
	c.Assignee = nil
	if t.AssignedTo != nil {
		if user, ok := s.users[*t.AssignedTo]; ok {
			u := *user
			c.Assignee = &u
		}
	}
	return c
}
