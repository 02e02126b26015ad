package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ssms-dev/ssms-api/internal/dto"
	"github.com/ssms-dev/ssms-api/internal/models"
	"github.com/ssms-dev/ssms-api/internal/repository"
	"github.com/ssms-dev/ssms-api/internal/workflow"
)

// AnalyticsService aggregates grading progress across a teacher's assignments.
type AnalyticsService interface {
	TeacherOverview(ctx context.Context, teacherID uint) (dto.TeacherAnalyticsResponse, error)
}

type analyticsService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAnalyticsService builds a new analytics service.
func NewAnalyticsService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) AnalyticsService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &analyticsService{
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "analytics_service").Logger(),
		now:         time.Now,
	}
}

func (s *analyticsService) TeacherOverview(ctx context.Context, teacherID uint) (dto.TeacherAnalyticsResponse, error) {
	cacheKey := fmt.Sprintf("analytics:teacher:v1:%d", teacherID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached dto.TeacherAnalyticsResponse
			if unmarshalErr := json.Unmarshal([]byte(raw), &cached); unmarshalErr == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
		}
	}

	now := s.now()
	assignments, _, err := s.assignments.List(ctx, repository.AssignmentFilter{
		TeacherID: &teacherID,
		Now:       now,
	})
	if err != nil {
		return dto.TeacherAnalyticsResponse{}, err
	}

	ids := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		ids = append(ids, assignment.ID)
	}

	aggregates := map[uint]repository.SubmissionAggregate{}
	if len(ids) > 0 {
		aggregates, err = s.submissions.AggregateByAssignment(ctx, ids)
		if err != nil {
			return dto.TeacherAnalyticsResponse{}, err
		}
	}

	response := dto.TeacherAnalyticsResponse{
		TotalAssignments: int64(len(assignments)),
		Assignments:      make([]dto.AssignmentAnalytics, 0, len(assignments)),
	}

	for _, assignment := range assignments {
		effective := workflow.ClassifyAssignment(assignment, now)
		switch effective {
		case models.AssignmentStatusDraft:
			response.Draft++
		case models.AssignmentStatusPublished:
			response.Published++
		case models.AssignmentStatusExpired:
			response.Expired++
		}

		agg := aggregates[assignment.ID]
		item := dto.AssignmentAnalytics{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			Status:       effective,
			DueDate:      assignment.DueDate,
			Submissions:  agg.Total,
			Graded:       agg.Graded,
			Pending:      agg.Total - agg.Graded,
			Late:         agg.Late,
		}
		if agg.Graded > 0 && assignment.TotalMarks > 0 {
			averageMarks := float64(agg.MarksSum) / float64(agg.Graded)
			average := averageMarks / float64(assignment.TotalMarks) * 100
			item.AveragePercentage = math.Round(average*10) / 10
		}
		response.Assignments = append(response.Assignments, item)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
			}
		}
	}

	return response, nil
}
