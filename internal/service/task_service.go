package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "pomodoro/timer/internal/errors"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/repository"
)

type TaskService struct {
	taskRepo  *repository.TaskRepository
	statsRepo *repository.StatsRepository
	now       func() time.Time
	log       *slog.Logger
}

type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
	Category    string
}

// UpdateTaskInput is a partial update; nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	statsRepo *repository.StatsRepository,
	now func() time.Time,
	log *slog.Logger,
) *TaskService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &TaskService{taskRepo: taskRepo, statsRepo: statsRepo, now: now, log: log}
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*model.Task, *apperrors.APIError) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.BadRequest("invalid_title", "title is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, apperrors.BadRequest("invalid_priority", "priority must be one of low, medium, high")
	}

	now := s.now().UTC()
	task := model.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		Category:    input.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		s.log.Error("create task failed", slog.String("user_id", userID), slog.Any("error", err))
		return nil, apperrors.Internal("failed to create task")
	}
	return &task, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*model.Task, *apperrors.APIError) {
	task, err := s.taskRepo.Get(ctx, userID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		s.log.Error("get task failed", slog.String("user_id", userID), slog.Any("error", err))
		return nil, apperrors.Internal("failed to get task")
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, userID string, completed *bool) ([]model.Task, *apperrors.APIError) {
	tasks, err := s.taskRepo.List(ctx, userID, completed)
	if err != nil {
		s.log.Error("list tasks failed", slog.String("user_id", userID), slog.Any("error", err))
		return nil, apperrors.Internal("failed to list tasks")
	}
	return tasks, nil
}

// Update applies input. Flipping completion moves today's tasks-completed
// counter in the same transaction.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*model.Task, *apperrors.APIError) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, apperrors.BadRequest("invalid_title", "title is required")
	}
	if input.Priority != nil && !model.ValidPriority(*input.Priority) {
		return nil, apperrors.BadRequest("invalid_priority", "priority must be one of low, medium, high")
	}

	tx, err := s.taskRepo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	task, err := s.taskRepo.GetTx(ctx, tx, userID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get task")
	}

	wasCompleted := task.Completed
	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Category != nil {
		task.Category = *input.Category
	}
	now := s.now().UTC()
	task.UpdatedAt = now

	if err := s.taskRepo.UpdateTx(ctx, tx, task); err != nil {
		s.log.Error("update task failed", slog.String("task_id", taskID), slog.Any("error", err))
		return nil, apperrors.Internal("failed to update task")
	}

	if task.Completed != wasCompleted {
		delta := 1
		if !task.Completed {
			delta = -1
		}
		if err := s.statsRepo.AdjustTasksCompletedTx(ctx, tx, userID, now, delta); err != nil {
			s.log.Error("adjust task stats failed", slog.String("task_id", taskID), slog.Any("error", err))
			return nil, apperrors.Internal("failed to update stats")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) *apperrors.APIError {
	err := s.taskRepo.Delete(ctx, userID, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		s.log.Error("delete task failed", slog.String("task_id", taskID), slog.Any("error", err))
		return apperrors.Internal("failed to delete task")
	}
	return nil
}
