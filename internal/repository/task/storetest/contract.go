// Package storetest проверяет, что хранилище задач ведёт себя одинаково на всех бэкендах.
package storetest

import (
	"context"
	"errors"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type Store interface {
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
	UpsertUser(context.Context, task.User) error
}

// ContractSuite встраивается в suite конкретного бэкенда.
// NewStore вызывается перед каждым тестом и должен вернуть пустое хранилище.
type ContractSuite struct {
	suite.Suite
	NewStore func() Store

	ctx   context.Context
	store Store
}

func (s *ContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

func (s *ContractSuite) newTask(title string, creator uuid.UUID, deadline *time.Time) *task.Task {
	t := task.New(title, creator)
	t.Deadline = deadline
	s.Require().NoError(s.store.Create(s.ctx, t))
	return t
}

func at(d time.Duration) *time.Time {
	t := time.Now().Add(d).UTC().Truncate(time.Millisecond)
	return &t
}

func (s *ContractSuite) TestHealthCheck() {
	s.NoError(s.store.HealthCheck(s.ctx))
}

func (s *ContractSuite) TestCreateAndGet() {
	creator := uuid.New()
	created := s.newTask("Write report", creator, at(48*time.Hour))

	s.False(created.CreatedAt.IsZero())

	got, err := s.store.GetByID(s.ctx, created.UUID)
	s.Require().NoError(err)
	s.Equal("Write report", got.Title)
	s.Equal(creator, got.CreatedBy)
	s.Equal(task.StatusPending, got.Status)
	s.Equal(task.PriorityMedium, got.Priority)
	s.Require().NotNil(got.Deadline)
	s.WithinDuration(*created.Deadline, *got.Deadline, time.Millisecond)
	s.Empty(got.Comments)
	s.Empty(got.Attachments)
	s.Nil(got.Assignee)
}

func (s *ContractSuite) TestGetMissing() {
	_, err := s.store.GetByID(s.ctx, uuid.New())
	s.True(errors.Is(err, repo.ErrNotFound), "got %v", err)
}

func (s *ContractSuite) TestUpdateKeepsOwnedFields() {
	creator := uuid.New()
	created := s.newTask("Old", creator, nil)

	_, err := s.store.AppendComment(s.ctx, created.UUID, task.Comment{User: creator, Text: "note", CreatedAt: time.Now()})
	s.Require().NoError(err)

	changed := created.Clone()
	changed.Title = "New"
	changed.Status = task.StatusInProgress
	changed.CreatedBy = uuid.New()
	changed.Comments = nil
	s.Require().NoError(s.store.Update(s.ctx, changed))

	got, err := s.store.GetByID(s.ctx, created.UUID)
	s.Require().NoError(err)
	s.Equal("New", got.Title)
	s.Equal(task.StatusInProgress, got.Status)
	s.Equal(creator, got.CreatedBy)
	s.Len(got.Comments, 1)
}

func (s *ContractSuite) TestUpdateMissing() {
	err := s.store.Update(s.ctx, task.New("ghost", uuid.New()))
	s.True(errors.Is(err, repo.ErrNotFound), "got %v", err)
}

func (s *ContractSuite) TestDelete() {
	created := s.newTask("Temp", uuid.New(), nil)

	s.Require().NoError(s.store.Delete(s.ctx, created.UUID))

	_, err := s.store.GetByID(s.ctx, created.UUID)
	s.True(errors.Is(err, repo.ErrNotFound))

	err = s.store.Delete(s.ctx, created.UUID)
	s.True(errors.Is(err, repo.ErrNotFound))
}

func (s *ContractSuite) TestAppendCommentKeepsOrder() {
	creator := uuid.New()
	other := uuid.New()
	created := s.newTask("Discuss", creator, nil)

	for i, text := range []string{"first", "second", "third"} {
		user := creator
		if i%2 == 1 {
			user = other
		}
		updated, err := s.store.AppendComment(s.ctx, created.UUID, task.Comment{User: user, Text: text, CreatedAt: time.Now()})
		s.Require().NoError(err)
		s.Len(updated.Comments, i+1)
	}

	got, err := s.store.GetByID(s.ctx, created.UUID)
	s.Require().NoError(err)
	s.Require().Len(got.Comments, 3)
	s.Equal("first", got.Comments[0].Text)
	s.Equal(other, got.Comments[1].User)
	s.Equal("third", got.Comments[2].Text)

	_, err = s.store.AppendComment(s.ctx, uuid.New(), task.Comment{User: creator, Text: "x"})
	s.True(errors.Is(err, repo.ErrNotFound))
}

func (s *ContractSuite) TestAppendAttachment() {
	created := s.newTask("Files", uuid.New(), nil)

	_, err := s.store.AppendAttachment(s.ctx, created.UUID, "/files/a.pdf")
	s.Require().NoError(err)
	updated, err := s.store.AppendAttachment(s.ctx, created.UUID, "/files/b.pdf")
	s.Require().NoError(err)

	s.Equal([]string{"/files/a.pdf", "/files/b.pdf"}, updated.Attachments)

	_, err = s.store.AppendAttachment(s.ctx, uuid.New(), "x")
	s.True(errors.Is(err, repo.ErrNotFound))
}

func (s *ContractSuite) TestListByCreatorWithAssignee() {
	creator := uuid.New()
	assignee := task.User{ID: uuid.New(), Name: "Bob", Email: "bob@x.io"}
	s.Require().NoError(s.store.UpsertUser(s.ctx, assignee))

	first := s.newTask("First", creator, nil)
	// порядок по createdAt, а mongo хранит время с точностью до миллисекунды
	time.Sleep(5 * time.Millisecond)
	second := task.New("Second", creator)
	second.AssignedTo = &assignee.ID
	s.Require().NoError(s.store.Create(s.ctx, second))
	s.newTask("Foreign", uuid.New(), nil)

	tasks, err := s.store.ListByCreator(s.ctx, creator)
	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal(first.UUID, tasks[0].UUID)
	s.Equal(second.UUID, tasks[1].UUID)
	s.Require().NotNil(tasks[1].Assignee)
	s.Equal("bob@x.io", tasks[1].Assignee.Email)
}

func (s *ContractSuite) TestListDueBefore() {
	creator := uuid.New()
	soon := s.newTask("Soon", creator, at(2*time.Hour))
	overdue := s.newTask("Overdue", creator, at(-2*time.Hour))
	s.newTask("Later", creator, at(72*time.Hour))
	s.newTask("No deadline", creator, nil)
	s.newTask("Foreign soon", uuid.New(), at(time.Hour))

	tasks, err := s.store.ListDueBefore(s.ctx, creator, time.Now().Add(24*time.Hour))
	s.Require().NoError(err)

	ids := map[uuid.UUID]bool{}
	for _, t := range tasks {
		ids[t.UUID] = true
	}
	s.Len(ids, 2)
	s.True(ids[soon.UUID])
	s.True(ids[overdue.UUID])
}

func (s *ContractSuite) TestListDueBetweenSorted() {
	late := s.newTask("Late", uuid.New(), at(5*24*time.Hour))
	early := s.newTask("Early", uuid.New(), at(24*time.Hour))
	s.newTask("Past", uuid.New(), at(-time.Hour))
	s.newTask("Far", uuid.New(), at(30*24*time.Hour))

	now := time.Now()
	tasks, err := s.store.ListDueBetween(s.ctx, now, now.Add(7*24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(tasks, 2)
	s.Equal(early.UUID, tasks[0].UUID)
	s.Equal(late.UUID, tasks[1].UUID)
}

func (s *ContractSuite) TestCountByStatus() {
	creator := uuid.New()
	done := s.newTask("Done", creator, nil)
	done.Status = task.StatusCompleted
	s.Require().NoError(s.store.Update(s.ctx, done))
	s.newTask("Open", creator, nil)
	s.newTask("Foreign", uuid.New(), nil)

	mine, err := s.store.CountByStatus(s.ctx, &creator)
	s.Require().NoError(err)
	s.Equal(1, mine[task.StatusCompleted])
	s.Equal(1, mine[task.StatusPending])
	s.Zero(mine[task.StatusInProgress])

	all, err := s.store.CountByStatus(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal(2, all[task.StatusPending])
}

func (s *ContractSuite) TestProgressByWeek() {
	done := s.newTask("Done", uuid.New(), nil)
	done.Status = task.StatusCompleted
	s.Require().NoError(s.store.Update(s.ctx, done))
	s.newTask("Open", uuid.New(), nil)

	progress, err := s.store.ProgressByWeek(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(progress, 1)
	s.Equal(task.WeekKey(time.Now().UTC()), progress[0].Week)
	s.Equal(1, progress[0].CompletedTasks)
	s.Equal(2, progress[0].TotalTasks)
}

func (s *ContractSuite) TestUsers() {
	_, err := s.store.GetUser(s.ctx, uuid.New())
	s.True(errors.Is(err, repo.ErrNotFound))

	user := task.User{ID: uuid.New(), Name: "Ann", Email: "ann@x.io"}
	s.Require().NoError(s.store.UpsertUser(s.ctx, user))
	user.Email = "ann@y.io"
	s.Require().NoError(s.store.UpsertUser(s.ctx, user))

	got, err := s.store.GetUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user, *got)
}
