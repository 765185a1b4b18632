package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
)

// LeaderboardService produces cached top-N rankings per evaluation period.
// It also implements LeaderboardInvalidator so the scoring services can drop
// stale rankings after a mutation.
type LeaderboardService interface {
	LeaderboardInvalidator
	TopStudents(ctx context.Context, semesterID uint, limit int) (dto.LeaderboardResponse, error)
	TopClubs(ctx context.Context, semesterID uint, month, limit int) (dto.LeaderboardResponse, error)
}

type leaderboardService struct {
	students repository.MovementRecordRepository
	clubs    repository.ClubMovementRecordRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewLeaderboardService builds the ranking aggregator. cache may be nil, in
// which case every call hits the database.
func NewLeaderboardService(students repository.MovementRecordRepository, clubs repository.ClubMovementRecordRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) LeaderboardService {
	return &leaderboardService{
		students: students,
		clubs:    clubs,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "leaderboard_service").Logger(),
		now:      time.Now,
	}
}

func (s *leaderboardService) TopStudents(ctx context.Context, semesterID uint, limit int) (dto.LeaderboardResponse, error) {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("leaderboard:student:%d:%d", semesterID, limit)
	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	records, err := s.students.TopBySemester(ctx, semesterID, limit)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(records))
	for i, record := range records {
		entries = append(entries, dto.LeaderboardEntry{
			Rank:       i + 1,
			SubjectID:  record.StudentID,
			Name:       record.Student.FullName,
			TotalScore: record.TotalScore,
		})
	}

	response := dto.LeaderboardResponse{
		SemesterID:  semesterID,
		Entries:     entries,
		GeneratedAt: s.now(),
	}

	s.toCache(ctx, cacheKey, response)

	return response, nil
}

func (s *leaderboardService) TopClubs(ctx context.Context, semesterID uint, month, limit int) (dto.LeaderboardResponse, error) {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("leaderboard:club:%d:%d:%d", semesterID, month, limit)
	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	records, err := s.clubs.TopBySemesterMonth(ctx, semesterID, month, limit)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(records))
	for i, record := range records {
		entries = append(entries, dto.LeaderboardEntry{
			Rank:       i + 1,
			SubjectID:  record.ClubID,
			Name:       record.Club.Name,
			TotalScore: record.TotalScore,
		})
	}

	response := dto.LeaderboardResponse{
		SemesterID:  semesterID,
		Entries:     entries,
		GeneratedAt: s.now(),
	}
	if month > 0 {
		response.Month = &month
	}

	s.toCache(ctx, cacheKey, response)

	return response, nil
}

func (s *leaderboardService) InvalidateStudentBoard(ctx context.Context, semesterID uint) {
	s.invalidate(ctx, fmt.Sprintf("leaderboard:student:%d:*", semesterID))
}

// InvalidateClubBoard drops the cached boards for one month; other months of
// the semester are unaffected by a score mutation scoped to this one. A
// non-positive month clears the whole semester.
func (s *leaderboardService) InvalidateClubBoard(ctx context.Context, semesterID uint, month int) {
	if month > 0 {
		s.invalidate(ctx, fmt.Sprintf("leaderboard:club:%d:%d:*", semesterID, month))
		return
	}
	s.invalidate(ctx, fmt.Sprintf("leaderboard:club:%d:*", semesterID))
}

func (s *leaderboardService) fromCache(ctx context.Context, key string) (dto.LeaderboardResponse, bool) {
	if s.cache == nil {
		return dto.LeaderboardResponse{}, false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read leaderboard cache")
		}
		return dto.LeaderboardResponse{}, false
	}

	var response dto.LeaderboardResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		return dto.LeaderboardResponse{}, false
	}

	s.logger.Debug().Str("key", key).Msg("leaderboard cache hit")
	return response, true
}

func (s *leaderboardService) toCache(ctx context.Context, key string, response dto.LeaderboardResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to write leaderboard cache")
	}
}

func (s *leaderboardService) invalidate(ctx context.Context, pattern string) {
	if s.cache == nil {
		return
	}

	keys, err := s.cache.Keys(ctx, pattern).Result()
	if err != nil {
		s.logger.Warn().Err(err).Str("pattern", pattern).Msg("failed to scan leaderboard cache keys")
		return
	}
	if len(keys) == 0 {
		return
	}

	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Str("pattern", pattern).Msg("failed to invalidate leaderboard cache")
	}
}
