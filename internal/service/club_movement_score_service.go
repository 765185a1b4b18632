package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/models"
	"github.com/Tanth170203/eduxtend-api/internal/observability"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
)

// ErrClubMovementRecordNotFound indicates the requested club record does not exist.
var ErrClubMovementRecordNotFound = errors.New("club movement record not found")

// ClubMovementScoreService is the aggregation engine over the club score
// ledger. Club records are scoped to a month within a semester.
type ClubMovementScoreService interface {
	GetOrCreateRecord(ctx context.Context, clubID, semesterID uint, month int) (dto.ClubMovementRecordResponse, error)
	AddAutomaticScore(ctx context.Context, payload dto.ClubAutoScoreRequest) (dto.ScoreLineResponse, error)
	GetRecord(ctx context.Context, id uint) (dto.ClubMovementRecordResponse, error)
	GetRecordDetail(ctx context.Context, id uint) (dto.ClubMovementRecordDetailResponse, error)
	ListByClub(ctx context.Context, clubID uint) ([]dto.ClubMovementRecordResponse, error)
	ListBySemester(ctx context.Context, semesterID uint, month, page, pageSize int) ([]dto.ClubMovementRecordResponse, int64, error)
	DeleteRecord(ctx context.Context, id uint) error
}

type clubMovementScoreService struct {
	records   repository.ClubMovementRecordRepository
	criteria  repository.CriterionRepository
	validator *validator.Validate
	publisher ScorePublisher
	boards    LeaderboardInvalidator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewClubMovementScoreService builds the club-ledger aggregation engine.
func NewClubMovementScoreService(records repository.ClubMovementRecordRepository, criteria repository.CriterionRepository, validate *validator.Validate, publisher ScorePublisher, boards LeaderboardInvalidator, logger zerolog.Logger) ClubMovementScoreService {
	return &clubMovementScoreService{
		records:   records,
		criteria:  criteria,
		validator: validate,
		publisher: publisher,
		boards:    boards,
		logger:    logger.With().Str("component", "club_movement_score_service").Logger(),
		now:       time.Now,
	}
}

func (s *clubMovementScoreService) GetOrCreateRecord(ctx context.Context, clubID, semesterID uint, month int) (dto.ClubMovementRecordResponse, error) {
	record, err := s.records.GetOrCreate(ctx, clubID, semesterID, month)
	if err != nil {
		return dto.ClubMovementRecordResponse{}, err
	}

	return dto.NewClubMovementRecordResponse(record), nil
}

func (s *clubMovementScoreService) AddAutomaticScore(ctx context.Context, payload dto.ClubAutoScoreRequest) (dto.ScoreLineResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoreLineResponse{}, err
	}

	criterion, err := s.lookupCriterion(ctx, payload.CriterionID)
	if err != nil {
		return dto.ScoreLineResponse{}, err
	}
	if !criterion.IsActive {
		return dto.ScoreLineResponse{}, ErrCriterionInactive
	}

	record, err := s.records.GetOrCreate(ctx, payload.ClubID, payload.SemesterID, payload.Month)
	if err != nil {
		return dto.ScoreLineResponse{}, err
	}

	existing, err := s.records.FindLineBySource(ctx, record.ID, payload.CriterionID, payload.ActivityID)
	if err == nil {
		s.logger.Debug().Uint("line_id", existing.ID).Uint("activity_id", payload.ActivityID).Msg("duplicate automatic award ignored")
		return dto.NewClubScoreLineResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ScoreLineResponse{}, err
	}

	// Fast fail before opening a transaction; the authoritative check is the
	// cap guard AddLine runs against the in-transaction sum.
	accumulated, err := s.records.SumForCriterion(ctx, record.ID, payload.CriterionID)
	if err != nil {
		return dto.ScoreLineResponse{}, err
	}
	if !criterion.CapAllows(accumulated, payload.Points) {
		observability.CapRejections().WithLabelValues("club").Inc()
		return dto.ScoreLineResponse{}, ErrCapExceeded
	}

	activityID := payload.ActivityID
	line := models.ClubMovementRecordDetail{
		ClubMovementRecordID: record.ID,
		CriterionID:          payload.CriterionID,
		Score:                payload.Points,
		ScoreType:            models.ScoreTypeAuto,
		ActivityID:           &activityID,
		Note:                 payload.Note,
		AwardedAt:            s.now(),
	}

	total, err := s.records.AddLine(ctx, &line, nil, func(sum float64) error {
		if !criterion.CapAllows(sum, payload.Points) {
			return ErrCapExceeded
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCapExceeded) {
			observability.CapRejections().WithLabelValues("club").Inc()
			return dto.ScoreLineResponse{}, ErrCapExceeded
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race to a concurrent replay of the same key.
			existing, findErr := s.records.FindLineBySource(ctx, record.ID, payload.CriterionID, payload.ActivityID)
			if findErr == nil {
				s.logger.Debug().Uint("line_id", existing.ID).Uint("activity_id", payload.ActivityID).Msg("duplicate automatic award ignored")
				return dto.NewClubScoreLineResponse(existing), nil
			}
		}
		return dto.ScoreLineResponse{}, err
	}

	observability.ScoreLines().WithLabelValues("club", string(models.ScoreTypeAuto)).Inc()
	s.logger.Info().
		Uint("record_id", record.ID).
		Uint("criterion_id", payload.CriterionID).
		Float64("points", payload.Points).
		Float64("total", total).
		Msg("automatic club score line added")

	s.afterMutation(ctx, record, line, "AutoScoreAdded", total)

	return dto.NewClubScoreLineResponse(line), nil
}

func (s *clubMovementScoreService) GetRecord(ctx context.Context, id uint) (dto.ClubMovementRecordResponse, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClubMovementRecordResponse{}, ErrClubMovementRecordNotFound
		}
		return dto.ClubMovementRecordResponse{}, err
	}

	return dto.NewClubMovementRecordResponse(record), nil
}

func (s *clubMovementScoreService) GetRecordDetail(ctx context.Context, id uint) (dto.ClubMovementRecordDetailResponse, error) {
	record, err := s.records.GetDetailed(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClubMovementRecordDetailResponse{}, ErrClubMovementRecordNotFound
		}
		return dto.ClubMovementRecordDetailResponse{}, err
	}

	record.TotalScore = s.ensureConsistentTotal(ctx, record)

	return dto.NewClubMovementRecordDetailResponse(record), nil
}

func (s *clubMovementScoreService) ListByClub(ctx context.Context, clubID uint) ([]dto.ClubMovementRecordResponse, error) {
	records, err := s.records.ListByClub(ctx, clubID)
	if err != nil {
		return nil, err
	}

	return dto.NewClubMovementRecordResponseSlice(records), nil
}

func (s *clubMovementScoreService) ListBySemester(ctx context.Context, semesterID uint, month, page, pageSize int) ([]dto.ClubMovementRecordResponse, int64, error) {
	records, total, err := s.records.ListBySemester(ctx, semesterID, month, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewClubMovementRecordResponseSlice(records), total, nil
}

func (s *clubMovementScoreService) DeleteRecord(ctx context.Context, id uint) error {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClubMovementRecordNotFound
		}
		return err
	}

	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClubMovementRecordNotFound
		}
		return err
	}

	s.logger.Info().Uint("record_id", id).Uint("club_id", record.ClubID).Msg("club movement record deleted")

	if s.boards != nil {
		s.boards.InvalidateClubBoard(ctx, record.SemesterID, record.Month)
	}

	return nil
}

func (s *clubMovementScoreService) lookupCriterion(ctx context.Context, id uint) (models.Criterion, error) {
	criterion, err := s.criteria.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Criterion{}, ErrCriterionNotFound
		}
		return models.Criterion{}, err
	}

	if criterion.Group.TargetType != "" && criterion.Group.TargetType != models.TargetClub {
		return models.Criterion{}, ErrCriterionWrongTarget
	}

	return criterion, nil
}

func (s *clubMovementScoreService) ensureConsistentTotal(ctx context.Context, record models.ClubMovementRecord) float64 {
	var sum float64
	for _, line := range record.Details {
		sum += line.Score
	}

	if math.Abs(sum-record.TotalScore) <= totalEpsilon {
		return record.TotalScore
	}

	s.logger.Error().
		Uint("record_id", record.ID).
		Float64("cached_total", record.TotalScore).
		Float64("line_sum", sum).
		Msg("club movement record total out of sync, recomputing")

	total, err := s.records.RecomputeTotal(ctx, record.ID)
	if err != nil {
		s.logger.Error().Err(err).Uint("record_id", record.ID).Msg("failed to repair club movement record total")
		return sum
	}

	return total
}

func (s *clubMovementScoreService) afterMutation(ctx context.Context, record models.ClubMovementRecord, line models.ClubMovementRecordDetail, action string, total float64) {
	if s.boards != nil {
		s.boards.InvalidateClubBoard(ctx, record.SemesterID, record.Month)
	}

	if s.publisher != nil {
		month := record.Month
		s.publisher.PublishScoreEvent(ctx, dto.ScoreEvent{
			RecordType: string(models.TargetClub),
			RecordID:   record.ID,
			SubjectID:  record.ClubID,
			SemesterID: record.SemesterID,
			Month:      &month,
			LineID:     line.ID,
			Score:      line.Score,
			ScoreType:  string(line.ScoreType),
			Action:     action,
			TotalScore: total,
			OccurredAt: s.now(),
		})
	}
}
