package postgres

import (
	"context"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"time"

	"github.com/google/uuid"
)

// CountByStatus считает задачи по статусам; creatorID == nil означает все задачи
func (s *Storage) CountByStatus(ctx context.Context, creatorID *uuid.UUID) (map[task.Status]int, error) {
	start := time.Now()

	query := `SELECT status, COUNT(*) FROM tasks`
	args := []any{}
	if creatorID != nil {
		query += ` WHERE created_by = $1`
		args = append(args, *creatorID)
	}
	query += ` GROUP BY status`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return nil, fmt.Errorf("подсчёт задач: %w", err)
	}
	defer rows.Close()

	counts := make(map[task.Status]int, len(task.Statuses))
	for rows.Next() {
		var (
			status task.Status
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("сканирование счётчика: %w", err)
		}
		counts[status] = int(count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start, "count_by_status", time.Millisecond*100)
	return counts, nil
}

// ProgressByWeek группирует задачи по ISO-неделе создания (в UTC)
func (s *Storage) ProgressByWeek(ctx context.Context) ([]task.WeeklyProgress, error) {
	start := time.Now()

	query := `SELECT
				to_char(created_at AT TIME ZONE 'UTC', 'IYYY-"W"IW') AS week,
				COUNT(*) FILTER (WHERE status = $1) AS completed,
				COUNT(*) AS total
			FROM tasks
			GROUP BY week
			ORDER BY week`

	rows, err := s.pool.Query(ctx, query, task.StatusCompleted)
	if err != nil {
		logger.Error("Repository: Не удалось построить отчёт по неделям", err)
		return nil, fmt.Errorf("отчёт по неделям: %w", err)
	}
	defer rows.Close()

	res := []task.WeeklyProgress{}
	for rows.Next() {
		var (
			week             string
			completed, total int64
		)
		if err := rows.Scan(&week, &completed, &total); err != nil {
			return nil, fmt.Errorf("сканирование строки отчёта: %w", err)
		}
		res = append(res, task.WeeklyProgress{
			Week:           week,
			CompletedTasks: int(completed),
			TotalTasks:     int(total),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start, "progress_by_week", time.Millisecond*200)
	return res, nil
}
