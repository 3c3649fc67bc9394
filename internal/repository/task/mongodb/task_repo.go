package mongodb

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	tasksCollection = "tasks"
	usersCollection = "users"
)

type Storage struct {
	client *mongo.Client
	tasks  *mongo.Collection
	users  *mongo.Collection
}

type taskDocument struct {
	ID          string            `bson:"_id"`
	Title       string            `bson:"title"`
	Description string            `bson:"description"`
	Deadline    *time.Time        `bson:"deadline"`
	Priority    string            `bson:"priority"`
	Status      string            `bson:"status"`
	AssignedTo  string            `bson:"assignedTo,omitempty"`
	CreatedBy   string            `bson:"createdBy"`
	Comments    []commentDocument `bson:"comments"`
	Attachments []string          `bson:"attachments"`
	CreatedAt   time.Time         `bson:"createdAt"`
	UpdatedAt   time.Time         `bson:"updatedAt"`
}

type commentDocument struct {
	User      string    `bson:"user"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
}

type userDocument struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

func New(ctx context.Context, uri, database string) (*Storage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.Error("Repository: Ошибка подключения к MongoDB", err)
		return nil, fmt.Errorf("подключение к mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	db := client.Database(database)
	s := &Storage{
		client: client,
		tasks:  db.Collection(tasksCollection),
		users:  db.Collection(usersCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("Repository: Успешное подключение к MongoDB", zap.String("database", database))
	return s, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "deadline", Value: 1}}},
	})
	if err != nil {
		logger.Error("Repository: Не удалось создать индексы", err)
		return fmt.Errorf("создание индексов: %w", err)
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) {
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Warn("Repository: Ошибка отключения от MongoDB", zap.Error(err))
		return
	}
	logger.Info("Repository: Отключение от MongoDB")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	taskToCreate.CreatedAt = now
	taskToCreate.UpdatedAt = now
	if taskToCreate.Comments == nil {
		taskToCreate.Comments = []task.Comment{}
	}
	if taskToCreate.Attachments == nil {
		taskToCreate.Attachments = []string{}
	}

	if _, err := s.tasks.InsertOne(ctx, toDocument(taskToCreate)); err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

// Update перезаписывает поля задачи через $set, комментарии и вложения не трогает
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	now := time.Now().UTC().Truncate(time.Millisecond)

	set := bson.M{
		"title":       taskToUpdate.Title,
		"description": taskToUpdate.Description,
		"deadline":    taskToUpdate.Deadline,
		"priority":    string(taskToUpdate.Priority),
		"status":      string(taskToUpdate.Status),
		"updatedAt":   now,
	}
	update := bson.M{"$set": set}
	if taskToUpdate.AssignedTo != nil {
		set["assignedTo"] = taskToUpdate.AssignedTo.String()
	} else {
		update["$unset"] = bson.M{"assignedTo": ""}
	}

	res, err := s.tasks.UpdateByID(ctx, taskToUpdate.UUID.String(), update)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}

	taskToUpdate.UpdatedAt = now
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	var doc taskDocument
	err := s.tasks.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return s.populate(ctx, doc)
}

func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		logger.Error("Repository: Удаление задачи", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) AppendComment(ctx context.Context, id uuid.UUID, comment task.Comment) (*task.Task, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}

	update := bson.M{
		"$push": bson.M{"comments": commentDocument{
			User:      comment.User.String(),
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		}},
		"$set": bson.M{"updatedAt": now},
	}
	return s.findAndUpdate(ctx, id, update, "добавление комментария")
}

func (s *Storage) AppendAttachment(ctx context.Context, id uuid.UUID, filePath string) (*task.Task, error) {
	update := bson.M{
		"$push": bson.M{"attachments": filePath},
		"$set":  bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)},
	}
	return s.findAndUpdate(ctx, id, update, "добавление вложения")
}

func (s *Storage) findAndUpdate(ctx context.Context, id uuid.UUID, update bson.M, operation string) (*task.Task, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	err := s.tasks.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Ошибка обновления задачи", err, zap.String("operation", operation))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return s.populate(ctx, doc)
}

func (s *Storage) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*task.Task, error) {
	filter := bson.M{"createdBy": creatorID.String()}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, filter, opts)
}

func (s *Storage) ListDueBefore(ctx context.Context, creatorID uuid.UUID, before time.Time) ([]*task.Task, error) {
	filter := bson.M{
		"createdBy": creatorID.String(),
		"deadline":  bson.M{"$ne": nil, "$lte": before},
	}
	opts := options.Find().SetSort(bson.D{{Key: "deadline", Value: 1}})
	return s.find(ctx, filter, opts)
}

func (s *Storage) ListDueBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error) {
	filter := bson.M{"deadline": bson.M{"$gte": from, "$lte": to}}
	opts := options.Find().SetSort(bson.D{{Key: "deadline", Value: 1}})
	return s.find(ctx, filter, opts)
}

func (s *Storage) GetUser(ctx context.Context, id uuid.UUID) (*task.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	userID, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("id пользователя %q: %w", doc.ID, err)
	}
	return &task.User{ID: userID, Name: doc.Name, Email: doc.Email}, nil
}

// UpsertUser пишет пользователя в справочник; справочник ведёт сервис авторизации
func (s *Storage) UpsertUser(ctx context.Context, user task.User) error {
	doc := userDocument{ID: user.ID.String(), Name: user.Name, Email: user.Email}
	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		logger.Error("Repository: Не удалось сохранить пользователя", err)
		return fmt.Errorf("сохранение пользователя: %w", err)
	}
	return nil
}

func (s *Storage) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*task.Task, error) {
	cursor, err := s.tasks.Find(ctx, filter, opts)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		logger.Error("Repository: Ошибка чтения курсора", err)
		return nil, fmt.Errorf("чтение курсора: %w", err)
	}

	tasks := make([]*task.Task, 0, len(docs))
	for _, doc := range docs {
		t, err := s.populate(ctx, doc)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// populate переводит документ в модель и подставляет исполнителя, как populate('assignedTo')
func (s *Storage) populate(ctx context.Context, doc taskDocument) (*task.Task, error) {
	t, err := fromDocument(doc)
	if err != nil {
		return nil, err
	}
	if t.AssignedTo == nil {
		return t, nil
	}

	user, err := s.GetUser(ctx, *t.AssignedTo)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return t, nil
		}
		return nil, err
	}
	t.Assignee = user
	return t, nil
}

func toDocument(t *task.Task) taskDocument {
	doc := taskDocument{
		ID:          t.UUID.String(),
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		CreatedBy:   t.CreatedBy.String(),
		Comments:    make([]commentDocument, 0, len(t.Comments)),
		Attachments: t.Attachments,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedTo != nil {
		doc.AssignedTo = t.AssignedTo.String()
	}
	for _, c := range t.Comments {
		doc.Comments = append(doc.Comments, commentDocument{
			User:      c.User.String(),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return doc
}

func fromDocument(doc taskDocument) (*task.Task, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("id задачи %q: %w", doc.ID, err)
	}
	createdBy, err := uuid.Parse(doc.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("автор задачи %q: %w", doc.CreatedBy, err)
	}

	t := &task.Task{
		UUID:        id,
		Title:       doc.Title,
		Description: doc.Description,
		Deadline:    doc.Deadline,
		Priority:    task.Priority(doc.Priority),
		Status:      task.Status(doc.Status),
		CreatedBy:   createdBy,
		Comments:    make([]task.Comment, 0, len(doc.Comments)),
		Attachments: doc.Attachments,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if t.Attachments == nil {
		t.Attachments = []string{}
	}
	if doc.AssignedTo != "" {
		assignee, err := uuid.Parse(doc.AssignedTo)
		if err != nil {
			return nil, fmt.Errorf("исполнитель задачи %q: %w", doc.AssignedTo, err)
		}
		t.AssignedTo = &assignee
	}
	for _, c := range doc.Comments {
		author, err := uuid.Parse(c.User)
		if err != nil {
			return nil, fmt.Errorf("автор комментария %q: %w", c.User, err)
		}
		t.Comments = append(t.Comments, task.Comment{User: author, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return t, nil
}
