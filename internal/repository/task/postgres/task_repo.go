package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool *pgxpool.Pool
}

// PoolSettings - размеры пула; нулевые значения заменяются значениями по умолчанию
type PoolSettings struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

const (
	taskColumns = `t.uuid, t.title, t.description, t.deadline, t.priority, t.status,
		t.assigned_to, t.created_by, t.attachments, t.created_at, t.updated_at,
		u.id, u.name, u.email`
	taskFrom = `FROM tasks t LEFT JOIN users u ON u.id = t.assigned_to`
)

func New(ctx context.Context, connString string, settings PoolSettings) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if settings.MaxConns > 0 {
		config.MaxConns = settings.MaxConns
	}
	if settings.MinConns > 0 {
		config.MinConns = settings.MinConns
	}
	if settings.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = settings.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(uuid, title, description, deadline, priority, status, assigned_to, created_by, attachments)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING created_at, updated_at`

	attachments := taskToCreate.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Deadline,
		taskToCreate.Priority,
		taskToCreate.Status,
		taskToCreate.AssignedTo,
		taskToCreate.CreatedBy,
		attachments,
	).Scan(&taskToCreate.CreatedAt, &taskToCreate.UpdatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if taskToCreate.Comments == nil {
		taskToCreate.Comments = []task.Comment{}
	}
	taskToCreate.Attachments = attachments

	warnIfSlow(start, "create", time.Millisecond*50)
	return nil
}

// Update перезаписывает поля задачи, last write wins.
// created_by, комментарии и вложения не меняются.
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				deadline = $3,
				priority = $4,
				status = $5,
				assigned_to = $6,
				updated_at = NOW()
			WHERE uuid = $7
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Deadline,
		taskToUpdate.Priority,
		taskToUpdate.Status,
		taskToUpdate.AssignedTo,
		taskToUpdate.UUID,
	).Scan(&taskToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	warnIfSlow(start, "update", time.Millisecond*100)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` ` + taskFrom + ` WHERE t.uuid = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if err := s.loadComments(ctx, []*task.Task{t}); err != nil {
		return nil, err
	}

	warnIfSlow(start, "get_by_id", time.Millisecond*100)
	return t, nil
}

func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start, "delete", time.Millisecond*100)
	return nil
}

func (s *Storage) AppendComment(ctx context.Context, id uuid.UUID, comment task.Comment) (*task.Task, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE tasks SET updated_at = NOW() WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось добавить комментарий", err)
		return nil, fmt.Errorf("добавление комментария: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repo.ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO task_comments (task_uuid, user_id, text) VALUES ($1, $2, $3)`,
		id, comment.User, comment.Text)
	if err != nil {
		logger.Error("Repository: Не удалось добавить комментарий", err)
		return nil, fmt.Errorf("добавление комментария: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	warnIfSlow(start, "append_comment", time.Millisecond*100)
	return s.GetByID(ctx, id)
}

func (s *Storage) AppendAttachment(ctx context.Context, id uuid.UUID, filePath string) (*task.Task, error) {
	start := time.Now()

	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET attachments = array_append(attachments, $1), updated_at = NOW() WHERE uuid = $2`,
		filePath, id)
	if err != nil {
		logger.Error("Repository: Не удалось добавить вложение", err)
		return nil, fmt.Errorf("добавление вложения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repo.ErrNotFound
	}

	warnIfSlow(start, "append_attachment", time.Millisecond*100)
	return s.GetByID(ctx, id)
}

func (s *Storage) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` ` + taskFrom + `
				WHERE t.created_by = $1
				ORDER BY t.created_at, t.uuid`

	return s.listTasks(ctx, "list_by_creator", query, creatorID)
}

func (s *Storage) ListDueBefore(ctx context.Context, creatorID uuid.UUID, before time.Time) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` ` + taskFrom + `
				WHERE t.created_by = $1
					AND t.deadline IS NOT NULL
					AND t.deadline <= $2
				ORDER BY t.deadline`

	return s.listTasks(ctx, "list_due_before", query, creatorID, before)
}

func (s *Storage) ListDueBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` ` + taskFrom + `
				WHERE t.deadline >= $1 AND t.deadline <= $2
				ORDER BY t.deadline`

	return s.listTasks(ctx, "list_due_between", query, from, to)
}

func (s *Storage) GetUser(ctx context.Context, id uuid.UUID) (*task.User, error) {
	user := &task.User{}
	err := s.pool.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return user, nil
}

// UpsertUser пишет пользователя в справочник; справочник ведёт сервис авторизации
func (s *Storage) UpsertUser(ctx context.Context, user task.User) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO users (id, name, email) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`,
		user.ID, user.Name, user.Email)
	if err != nil {
		logger.Error("Repository: Не удалось сохранить пользователя", err)
		return fmt.Errorf("сохранение пользователя: %w", err)
	}
	return nil
}

func (s *Storage) listTasks(ctx context.Context, operation, query string, args ...any) ([]*task.Task, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err,
			zap.String("operation", operation),
			zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if err := s.loadComments(ctx, tasks); err != nil {
		return nil, err
	}

	warnIfSlow(start, operation, time.Millisecond*50+time.Millisecond*10*time.Duration(len(tasks)))
	return tasks, nil
}

// loadComments дочитывает комментарии одним запросом для всех задач
func (s *Storage) loadComments(ctx context.Context, tasks []*task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(tasks))
	byID := make(map[uuid.UUID]*task.Task, len(tasks))
	for _, t := range tasks {
		t.Comments = []task.Comment{}
		ids = append(ids, t.UUID)
		byID[t.UUID] = t
	}

	rows, err := s.pool.Query(ctx,
		`SELECT task_uuid, user_id, text, created_at
			FROM task_comments
			WHERE task_uuid = ANY($1)
			ORDER BY id`, ids)
	if err != nil {
		logger.Error("Repository: Не удалось получить комментарии", err)
		return fmt.Errorf("получение комментариев: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			taskID  uuid.UUID
			comment task.Comment
		)
		if err := rows.Scan(&taskID, &comment.User, &comment.Text, &comment.CreatedAt); err != nil {
			return fmt.Errorf("сканирование комментария: %w", err)
		}
		if t, ok := byID[taskID]; ok {
			t.Comments = append(t.Comments, comment)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("итерация по комментариям: %w", err)
	}
	return nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t         task.Task
		userID    *uuid.UUID
		userName  *string
		userEmail *string
	)

	err := row.Scan(
		&t.UUID,
		&t.Title,
		&t.Description,
		&t.Deadline,
		&t.Priority,
		&t.Status,
		&t.AssignedTo,
		&t.CreatedBy,
		&t.Attachments,
		&t.CreatedAt,
		&t.UpdatedAt,
		&userID,
		&userName,
		&userEmail,
	)
	if err != nil {
		return nil, err
	}

	if t.Attachments == nil {
		t.Attachments = []string{}
	}
	if userID != nil {
		t.Assignee = &task.User{ID: *userID}
		if userName != nil {
			t.Assignee.Name = *userName
		}
		if userEmail != nil {
			t.Assignee.Email = *userEmail
		}
	}
	return &t, nil
}

func warnIfSlow(start time.Time, operation string, limit time.Duration) {
	if time.Since(start) > limit {
		logger.Warn("Repository: Медленная операция",
			zap.String("operation", operation),
			zap.Duration("ms", time.Since(start)))
	}
}
