package mongodb

import (
	"context"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (s *Storage) CountByStatus(ctx context.Context, creatorID *uuid.UUID) (map[task.Status]int, error) {
	pipeline := mongo.Pipeline{}
	if creatorID != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"createdBy": creatorID.String()}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{
		"_id":   "$status",
		"count": bson.M{"$sum": 1},
	}}})

	cursor, err := s.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err)
		return nil, fmt.Errorf("подсчёт задач: %w", err)
	}

	var rows []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("чтение курсора: %w", err)
	}

	counts := make(map[task.Status]int, len(task.Statuses))
	for _, row := range rows {
		counts[task.Status(row.Status)] = row.Count
	}
	return counts, nil
}

// ProgressByWeek группирует по ISO-неделе (%G-W%V), как и остальные хранилища
func (s *Storage) ProgressByWeek(ctx context.Context) ([]task.WeeklyProgress, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{"format": "%G-W%V", "date": "$createdAt"}},
			"completedTasks": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", string(task.StatusCompleted)}}, 1, 0},
			}},
			"totalTasks": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := s.tasks.Aggregate(ctx, pipeline)
	if err != nil {
		logger.Error("Repository: Не удалось построить отчёт по неделям", err)
		return nil, fmt.Errorf("отчёт по неделям: %w", err)
	}

	var rows []struct {
		Week           string `bson:"_id"`
		CompletedTasks int    `bson:"completedTasks"`
		TotalTasks     int    `bson:"totalTasks"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("чтение курсора: %w", err)
	}

	res := make([]task.WeeklyProgress, 0, len(rows))
	for _, row := range rows {
		res = append(res, task.WeeklyProgress{
			Week:           row.Week,
			CompletedTasks: row.CompletedTasks,
			TotalTasks:     row.TotalTasks,
		})
	}
	return res, nil
}
