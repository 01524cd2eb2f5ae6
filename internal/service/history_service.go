package service

import (
	"context"
	"log/slog"
	"time"

	apperrors "pomodoro/timer/internal/errors"
	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/repository"
)

const (
	StatsDaily  = "daily"
	StatsWeekly = "weekly"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistoryService reads the session archive and the statistics ledger.
type HistoryService struct {
	sessionRepo *repository.SessionRepository
	statsRepo   *repository.StatsRepository
	log         *slog.Logger
}

func NewHistoryService(
	sessionRepo *repository.SessionRepository,
	statsRepo *repository.StatsRepository,
	log *slog.Logger,
) *HistoryService {
	if log == nil {
		log = slog.Default()
	}
	return &HistoryService{sessionRepo: sessionRepo, statsRepo: statsRepo, log: log}
}

// ListSessions returns sessions started within [startDate, endDate], newest
// first. Dates are YYYY-MM-DD (endDate inclusive) or RFC 3339 instants.
func (s *HistoryService) ListSessions(ctx context.Context, userID, startDate, endDate string, limit int) ([]model.Session, *apperrors.APIError) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	from, apiErr := parseBound(startDate, false)
	if apiErr != nil {
		return nil, apiErr
	}
	to, apiErr := parseBound(endDate, true)
	if apiErr != nil {
		return nil, apiErr
	}

	sessions, err := s.sessionRepo.ListSessions(ctx, userID, repository.SessionFilter{From: from, To: to, Limit: limit})
	if err != nil {
		s.log.Error("list sessions failed", slog.String("user_id", userID), slog.Any("error", err))
		return nil, apperrors.Internal("failed to get history")
	}
	return sessions, nil
}

// Stats returns daily or weekly ledger rows between the given day keys.
func (s *HistoryService) Stats(ctx context.Context, userID, kind, startDate, endDate string) (interface{}, *apperrors.APIError) {
	if kind == "" {
		kind = StatsDaily
	}
	for _, value := range []string{startDate, endDate} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, value); err != nil {
			return nil, apperrors.BadRequest("invalid_date", "dates must use YYYY-MM-DD")
		}
	}

	switch kind {
	case StatsDaily:
		stats, err := s.statsRepo.ListDaily(ctx, userID, startDate, endDate)
		if err != nil {
			s.log.Error("list daily stats failed", slog.String("user_id", userID), slog.Any("error", err))
			return nil, apperrors.Internal("failed to get stats")
		}
		return stats, nil
	case StatsWeekly:
		stats, err := s.statsRepo.ListWeekly(ctx, userID, startDate, endDate)
		if err != nil {
			s.log.Error("list weekly stats failed", slog.String("user_id", userID), slog.Any("error", err))
			return nil, apperrors.Internal("failed to get stats")
		}
		return stats, nil
	default:
		return nil, apperrors.BadRequest("invalid_stats_type", "type must be daily or weekly")
	}
}

func parseBound(value string, end bool) (time.Time, *apperrors.APIError) {
	if value == "" {
		return time.Time{}, nil
	}
	if day, err := time.Parse(model.DateLayout, value); err == nil {
		if end {
			return day.AddDate(0, 0, 1), nil
		}
		return day, nil
	}
	instant, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.BadRequest("invalid_date", "dates must use YYYY-MM-DD or RFC 3339")
	}
	return instant, nil
}
