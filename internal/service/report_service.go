package service

import (
	"context"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"time"
)

const upcomingWindow = 7 * 24 * time.Hour

// ReportService - отчёты по всем задачам, без фильтра по владельцу
type ReportService struct {
	repo TaskRepository
	now  func() time.Time
}

func NewReportService(repo TaskRepository) *ReportService {
	return &ReportService{
		repo: repo,
		now:  time.Now,
	}
}

type StatusCounts struct {
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
}

type CompletionReport struct {
	Tasks StatusCounts `json:"tasks"`
}

// GetTaskCompletionReport считает по тем же значениям статуса, что хранятся в задачах
func (s *ReportService) GetTaskCompletionReport(ctx context.Context) (*CompletionReport, error) {
	counts, err := s.repo.CountByStatus(ctx, nil)
	if err != nil {
		logger.Error("Service: Ошибка отчёта о выполнении", err)
		return nil, NewPersistenceError("fetch report", err)
	}

	return &CompletionReport{
		Tasks: StatusCounts{
			Completed:  counts[task.StatusCompleted],
			InProgress: counts[task.StatusInProgress],
			Pending:    counts[task.StatusPending],
		},
	}, nil
}

func (s *ReportService) GetUpcomingDeadlines(ctx context.Context) ([]*task.Task, error) {
	now := s.now()
	tasks, err := s.repo.ListDueBetween(ctx, now, now.Add(upcomingWindow))
	if err != nil {
		logger.Error("Service: Ошибка получения дедлайнов", err)
		return nil, NewPersistenceError("fetch deadlines", err)
	}
	return tasks, nil
}

func (s *ReportService) GetProgressReport(ctx context.Context) ([]task.WeeklyProgress, error) {
	progress, err := s.repo.ProgressByWeek(ctx)
	if err != nil {
		logger.Error("Service: Ошибка отчёта о прогрессе", err)
		return nil, NewPersistenceError("fetch progress", err)
	}
	return progress, nil
}
