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

// ErrMovementRecordNotFound indicates the requested record does not exist.
var ErrMovementRecordNotFound = errors.New("movement record not found")

// ErrCriterionInactive indicates an automatic award targeted a disabled criterion.
var ErrCriterionInactive = errors.New("criterion is not active")

// ErrCriterionWrongTarget indicates the criterion belongs to the other ledger.
var ErrCriterionWrongTarget = errors.New("criterion targets a different subject type")

// ErrCapExceeded indicates an automatic line would push the per-criterion
// accumulation past the declared maximum.
var ErrCapExceeded = errors.New("criterion cap exceeded")

const totalEpsilon = 1e-6

// MovementScoreService is the aggregation engine over the student score
// ledger: it owns record creation, automatic line intake and total
// consistency.
type MovementScoreService interface {
	GetOrCreateRecord(ctx context.Context, studentID, semesterID uint) (dto.MovementRecordResponse, error)
	AddAutomaticScore(ctx context.Context, payload dto.AutoScoreRequest) (dto.ScoreLineResponse, error)
	GetRecord(ctx context.Context, id uint) (dto.MovementRecordResponse, error)
	GetRecordDetail(ctx context.Context, id uint) (dto.MovementRecordDetailResponse, error)
	GetByStudentSemester(ctx context.Context, studentID, semesterID uint) (dto.MovementRecordDetailResponse, error)
	ListByStudent(ctx context.Context, studentID uint) ([]dto.MovementRecordResponse, error)
	ListBySemester(ctx context.Context, semesterID uint, page, pageSize int) ([]dto.MovementRecordResponse, int64, error)
	DeleteRecord(ctx context.Context, id uint) error
}

// LeaderboardInvalidator drops cached rankings after a score mutation.
type LeaderboardInvalidator interface {
	InvalidateStudentBoard(ctx context.Context, semesterID uint)
	InvalidateClubBoard(ctx context.Context, semesterID uint, month int)
}

type movementScoreService struct {
	records   repository.MovementRecordRepository
	criteria  repository.CriterionRepository
	validator *validator.Validate
	publisher ScorePublisher
	boards    LeaderboardInvalidator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewMovementScoreService builds the student-ledger aggregation engine.
// publisher and boards may be nil when eventing/caching is disabled.
func NewMovementScoreService(records repository.MovementRecordRepository, criteria repository.CriterionRepository, validate *validator.Validate, publisher ScorePublisher, boards LeaderboardInvalidator, logger zerolog.Logger) MovementScoreService {
	return &movementScoreService{
		records:   records,
		criteria:  criteria,
		validator: validate,
		publisher: publisher,
		boards:    boards,
		logger:    logger.With().Str("component", "movement_score_service").Logger(),
		now:       time.Now,
	}
}

func (s *movementScoreService) GetOrCreateRecord(ctx context.Context, studentID, semesterID uint) (dto.MovementRecordResponse, error) {
	record, err := s.records.GetOrCreate(ctx, studentID, semesterID)
	if err != nil {
		return dto.MovementRecordResponse{}, err
	}

	return dto.NewMovementRecordResponse(record), nil
}

// AddAutomaticScore is the inbound trigger path. Replays with the same
// (student, semester, criterion, activity) key return the existing line
// unchanged, so retried webhooks never double-award.
func (s *movementScoreService) AddAutomaticScore(ctx context.Context, payload dto.AutoScoreRequest) (dto.ScoreLineResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoreLineResponse{}, err
	}

	criterion, err := s.lookupCriterion(ctx, payload.CriterionID, models.TargetStudent)
	if err != nil {
		return dto.ScoreLineResponse{}, err
	}
	if !criterion.IsActive {
		return dto.ScoreLineResponse{}, ErrCriterionInactive
	}

	record, err := s.records.GetOrCreate(ctx, payload.StudentID, payload.SemesterID)
	if err != nil {
		return dto.ScoreLineResponse{}, err
	}

	existing, err := s.records.FindLineBySource(ctx, record.ID, payload.CriterionID, payload.ActivityID)
	if err == nil {
		s.logger.Debug().Uint("line_id", existing.ID).Uint("activity_id", payload.ActivityID).Msg("duplicate automatic award ignored")
		return dto.NewScoreLineResponse(existing), nil
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
		observability.CapRejections().WithLabelValues("student").Inc()
		return dto.ScoreLineResponse{}, ErrCapExceeded
	}

	activityID := payload.ActivityID
	line := models.MovementRecordDetail{
		MovementRecordID: record.ID,
		CriterionID:      payload.CriterionID,
		Score:            payload.Points,
		ScoreType:        models.ScoreTypeAuto,
		ActivityID:       &activityID,
		Note:             payload.Note,
		AwardedAt:        s.now(),
	}

	total, err := s.records.AddLine(ctx, &line, nil, func(sum float64) error {
		if !criterion.CapAllows(sum, payload.Points) {
			return ErrCapExceeded
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCapExceeded) {
			observability.CapRejections().WithLabelValues("student").Inc()
			return dto.ScoreLineResponse{}, ErrCapExceeded
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race to a concurrent replay of the same key.
			existing, findErr := s.records.FindLineBySource(ctx, record.ID, payload.CriterionID, payload.ActivityID)
			if findErr == nil {
				s.logger.Debug().Uint("line_id", existing.ID).Uint("activity_id", payload.ActivityID).Msg("duplicate automatic award ignored")
				return dto.NewScoreLineResponse(existing), nil
			}
		}
		return dto.ScoreLineResponse{}, err
	}

	observability.ScoreLines().WithLabelValues("student", string(models.ScoreTypeAuto)).Inc()
	s.logger.Info().
		Uint("record_id", record.ID).
		Uint("criterion_id", payload.CriterionID).
		Float64("points", payload.Points).
		Float64("total", total).
		Msg("automatic score line added")

	s.afterMutation(ctx, record, line, "AutoScoreAdded", total)

	return dto.NewScoreLineResponse(line), nil
}

func (s *movementScoreService) GetRecord(ctx context.Context, id uint) (dto.MovementRecordResponse, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MovementRecordResponse{}, ErrMovementRecordNotFound
		}
		return dto.MovementRecordResponse{}, err
	}

	return dto.NewMovementRecordResponse(record), nil
}

func (s *movementScoreService) GetRecordDetail(ctx context.Context, id uint) (dto.MovementRecordDetailResponse, error) {
	record, err := s.records.GetDetailed(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MovementRecordDetailResponse{}, ErrMovementRecordNotFound
		}
		return dto.MovementRecordDetailResponse{}, err
	}

	record.TotalScore = s.ensureConsistentTotal(ctx, record)

	return dto.NewMovementRecordDetailResponse(record), nil
}

func (s *movementScoreService) GetByStudentSemester(ctx context.Context, studentID, semesterID uint) (dto.MovementRecordDetailResponse, error) {
	record, err := s.records.FindByStudentSemester(ctx, studentID, semesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MovementRecordDetailResponse{}, ErrMovementRecordNotFound
		}
		return dto.MovementRecordDetailResponse{}, err
	}

	return s.GetRecordDetail(ctx, record.ID)
}

func (s *movementScoreService) ListByStudent(ctx context.Context, studentID uint) ([]dto.MovementRecordResponse, error) {
	records, err := s.records.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewMovementRecordResponseSlice(records), nil
}

func (s *movementScoreService) ListBySemester(ctx context.Context, semesterID uint, page, pageSize int) ([]dto.MovementRecordResponse, int64, error) {
	records, total, err := s.records.ListBySemester(ctx, semesterID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewMovementRecordResponseSlice(records), total, nil
}

// DeleteRecord removes a mis-scoped record and all of its lines. Exposed only
// on the admin surface.
func (s *movementScoreService) DeleteRecord(ctx context.Context, id uint) error {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMovementRecordNotFound
		}
		return err
	}

	if err := s.records.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMovementRecordNotFound
		}
		return err
	}

	s.logger.Info().Uint("record_id", id).Uint("student_id", record.StudentID).Msg("movement record deleted")

	if s.boards != nil {
		s.boards.InvalidateStudentBoard(ctx, record.SemesterID)
	}

	return nil
}

func (s *movementScoreService) lookupCriterion(ctx context.Context, id uint, target models.TargetType) (models.Criterion, error) {
	criterion, err := s.criteria.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Criterion{}, ErrCriterionNotFound
		}
		return models.Criterion{}, err
	}

	if criterion.Group.TargetType != "" && criterion.Group.TargetType != target {
		return models.Criterion{}, ErrCriterionWrongTarget
	}

	return criterion, nil
}

// ensureConsistentTotal cross-checks the cached total against the loaded
// lines. A divergence should never happen; when it does the total is repaired
// from the lines rather than trusted.
func (s *movementScoreService) ensureConsistentTotal(ctx context.Context, record models.MovementRecord) float64 {
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
		Msg("movement record total out of sync, recomputing")

	total, err := s.records.RecomputeTotal(ctx, record.ID)
	if err != nil {
		s.logger.Error().Err(err).Uint("record_id", record.ID).Msg("failed to repair movement record total")
		return sum
	}

	return total
}

func (s *movementScoreService) afterMutation(ctx context.Context, record models.MovementRecord, line models.MovementRecordDetail, action string, total float64) {
	if s.boards != nil {
		s.boards.InvalidateStudentBoard(ctx, record.SemesterID)
	}

	if s.publisher != nil {
		s.publisher.PublishScoreEvent(ctx, dto.ScoreEvent{
			RecordType: string(models.TargetStudent),
			RecordID:   record.ID,
			SubjectID:  record.StudentID,
			SemesterID: record.SemesterID,
			LineID:     line.ID,
			Score:      line.Score,
			ScoreType:  string(line.ScoreType),
			Action:     action,
			TotalScore: total,
			OccurredAt: s.now(),
		})
	}
}
