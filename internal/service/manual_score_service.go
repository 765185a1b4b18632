package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/models"
	"github.com/Tanth170203/eduxtend-api/internal/observability"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
)

// ErrScoreLineNotFound indicates the referenced score line does not exist.
var ErrScoreLineNotFound = errors.New("score line not found")

// ErrNotManualLine indicates an automatic line was targeted through the
// manual override workflow.
var ErrNotManualLine = errors.New("score line is not manual")

// ErrNoteRequired indicates the justification note is missing or empty after
// sanitization.
var ErrNoteRequired = errors.New("justification note is required")

// ErrActorRequired indicates no authenticated administrator identity was
// available for the audit trail.
var ErrActorRequired = errors.New("acting administrator identity is required")

// ManualScoreService is the override subsystem: administrators add, adjust or
// remove manual lines on either ledger. Every successful mutation recomputes
// the record total and appends exactly one audit entry, atomically.
type ManualScoreService interface {
	AddStudentScore(ctx context.Context, payload dto.ManualScoreCreateRequest, actor Actor) (dto.ScoreLineResponse, error)
	UpdateStudentScore(ctx context.Context, lineID uint, payload dto.ManualScoreUpdateRequest, actor Actor) (dto.ScoreLineResponse, error)
	DeleteStudentScore(ctx context.Context, lineID uint, actor Actor) error

	AddClubScore(ctx context.Context, payload dto.ClubManualScoreCreateRequest, actor Actor) (dto.ScoreLineResponse, error)
	UpdateClubScore(ctx context.Context, lineID uint, payload dto.ManualScoreUpdateRequest, actor Actor) (dto.ScoreLineResponse, error)
	DeleteClubScore(ctx context.Context, lineID uint, actor Actor) error
}

type manualScoreService struct {
	students  repository.MovementRecordRepository
	clubs     repository.ClubMovementRecordRepository
	criteria  repository.CriterionRepository
	validator *validator.Validate
	publisher ScorePublisher
	boards    LeaderboardInvalidator
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewManualScoreService builds the manual override subsystem.
func NewManualScoreService(students repository.MovementRecordRepository, clubs repository.ClubMovementRecordRepository, criteria repository.CriterionRepository, validate *validator.Validate, publisher ScorePublisher, boards LeaderboardInvalidator, logger zerolog.Logger) ManualScoreService {
	return &manualScoreService{
		students:  students,
		clubs:     clubs,
		criteria:  criteria,
		validator: validate,
		publisher: publisher,
		boards:    boards,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "manual_score_service").Logger(),
		tracer:    otel.Tracer("github.com/Tanth170203/eduxtend-api/internal/service/manual_score"),
		now:       time.Now,
	}
}

// AddStudentScore inserts a manual line. Caps are deliberately not enforced
// here: a manual line is the administrator's documented override.
func (s *manualScoreService) AddStudentScore(ctx context.Context, payload dto.ManualScoreCreateRequest, actor Actor) (dto.ScoreLineResponse, error) {
	ctx, span := s.tracer.Start(ctx, "manual_score.add", trace.WithAttributes(
		attribute.Int64("actor_id", int64(actor.ID)),
		attribute.Int64("student_id", int64(payload.StudentID)),
	))
	defer span.End()

	note, err := s.prepare(span, payload, actor, payload.Note)
	if err != nil {
		return dto.ScoreLineResponse{}, err
	}

	if _, err := s.lookupCriterion(ctx, span, payload.CriterionID); err != nil {
		return dto.ScoreLineResponse{}, err
	}

	record, err := s.students.GetOrCreate(ctx, payload.StudentID, payload.SemesterID)
	if err != nil {
		return dto.ScoreLineResponse{}, s.fail(span, err, "record_get_or_create_failed")
	}

	actorID := actor.ID
	line := models.MovementRecordDetail{
		MovementRecordID: record.ID,
		CriterionID:      payload.CriterionID,
		Score:            payload.Points,
		ScoreType:        models.ScoreTypeManual,
		CreatedByID:      &actorID,
		Note:             note,
		AwardedAt:        s.now(),
	}

	audit := &models.EvaluationAuditLog{
		ActorID:  actor.ID,
		Action:   models.AuditActionManualScoreAdded,
		NewValue: studentLineSnapshot(line),
	}

	// Manual lines are an administrator override and bypass the cap guard.
	total, err := s.students.AddLine(ctx, &line, audit, nil)
	if err != nil {
		return dto.ScoreLineResponse{}, s.fail(span, err, "line_insert_failed")
	}

	s.committed(span, "student", models.AuditActionManualScoreAdded, line.ID, total)
	s.publishStudent(ctx, record, line, models.AuditActionManualScoreAdded, total)

	return dto.NewScoreLineResponse(line), nil
}

func (s *manualScoreService) UpdateStudentScore(ctx context.Context, lineID uint, payload dto.ManualScoreUpdateRequest, actor Actor) (dto.ScoreLineResponse, error) {
	ctx, span := s.tracer.Start(ctx, "manual_score.update", trace.WithAttributes(
		attribute.Int64("actor_id", int64(actor.ID)),
		attribute.Int64("line_id", int64(lineID)),
	))
	defer span.End()

	if actor.ID == 0 {
		return dto.ScoreLineResponse{}, s.fail(span, ErrActorRequired, "actor_missing")
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoreLineResponse{}, s.fail(span, err, "validation_failed")
	}

	line, err := s.students.GetLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreLineResponse{}, s.fail(span, ErrScoreLineNotFound, "line_not_found")
		}
		return dto.ScoreLineResponse{}, s.fail(span, err, "line_lookup_failed")
	}
	if !line.IsManual() {
		return dto.ScoreLineResponse{}, s.fail(span, ErrNotManualLine, "line_not_manual")
	}

	oldSnapshot := studentLineSnapshot(line)

	if payload.Points != nil {
		line.Score = *payload.Points
	}
	if payload.Note != nil {
		note := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Note))
		if note == "" {
			return dto.ScoreLineResponse{}, s.fail(span, ErrNoteRequired, "note_empty")
		}
		line.Note = note
	}

	audit := &models.EvaluationAuditLog{
		ActorID:  actor.ID,
		Action:   models.AuditActionManualScoreUpdated,
		OldValue: oldSnapshot,
		NewValue: studentLineSnapshot(line),
	}

	total, err := s.students.UpdateLine(ctx, &line, audit)
	if err != nil {
		return dto.ScoreLineResponse{}, s.fail(span, err, "line_update_failed")
	}

	s.committed(span, "student", models.AuditActionManualScoreUpdated, line.ID, total)

	record, err := s.students.GetByID(ctx, line.MovementRecordID)
	if err == nil {
		s.publishStudent(ctx, record, line, models.AuditActionManualScoreUpdated, total)
	}

	return dto.NewScoreLineResponse(line), nil
}

func (s *manualScoreService) DeleteStudentScore(ctx context.Context, lineID uint, actor Actor) error {
	ctx, span := s.tracer.Start(ctx, "manual_score.delete", trace.WithAttributes(
		attribute.Int64("actor_id", int64(actor.ID)),
		attribute.Int64("line_id", int64(lineID)),
	))
	defer span.End()

	if actor.ID == 0 {
		return s.fail(span, ErrActorRequired, "actor_missing")
	}

	line, err := s.students.GetLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fail(span, ErrScoreLineNotFound, "line_not_found")
		}
		return s.fail(span, err, "line_lookup_failed")
	}
	if !line.IsManual() {
		return s.fail(span, ErrNotManualLine, "line_not_manual")
	}

	audit := &models.EvaluationAuditLog{
		ActorID:  actor.ID,
		Action:   models.AuditActionManualScoreDeleted,
		OldValue: studentLineSnapshot(line),
	}

	total, err := s.students.DeleteLine(ctx, lineID, audit)
	if err != nil {
		return s.fail(span, err, "line_delete_failed")
	}

	s.committed(span, "student", models.AuditActionManualScoreDeleted, lineID, total)

	record, err := s.students.GetByID(ctx, line.MovementRecordID)
	if err == nil {
		s.publishStudent(ctx, record, line, models.AuditActionManualScoreDeleted, total)
	}

	return nil
}

func (s *manualScoreService) AddClubScore(ctx context.Context, payload dto.ClubManualScoreCreateRequest, actor Actor) (dto.ScoreLineResponse, error) {
	ctx, span := s.tracer.Start(ctx, "manual_score.club_add", trace.WithAttributes(
		attribute.Int64("actor_id", int64(actor.ID)),
		attribute.Int64("club_id", int64(payload.ClubID)),
	))
	defer span.End()

	note, err := s.prepare(span, payload, actor, payload.Note)
	if err != nil {
		return dto.ScoreLineResponse{}, err
	}

	if _, err := s.lookupCriterion(ctx, span, payload.CriterionID); err != nil {
		return dto.ScoreLineResponse{}, err
	}

	record, err := s.clubs.GetOrCreate(ctx, payload.ClubID, payload.SemesterID, payload.Month)
	if err != nil {
		return dto.ScoreLineResponse{}, s.fail(span, err, "record_get_or_create_failed")
	}

	actorID := actor.ID
	line := models.ClubMovementRecordDetail{
		ClubMovementRecordID: record.ID,
		CriterionID:          payload.CriterionID,
		Score:                payload.Points,
		ScoreType:            models.ScoreTypeManual,
		CreatedByID:          &actorID,
		Note:                 note,
		AwardedAt:            s.now(),
	}

	audit := &models.EvaluationAuditLog{
		ActorID:  actor.ID,
		Action:   models.AuditActionManualScoreAdded,
		NewValue: clubLineSnapshot(line),
	}

	total, err := s.clubs.AddLine(ctx, &line, audit, nil)
	if err != nil {
		return dto.ScoreLineResponse{}, s.fail(span, err, "line_insert_failed")
	}

	s.committed(span, "club", models.AuditActionManualScoreAdded, line.ID, total)
	s.publishClub(ctx, record, line, models.AuditActionManualScoreAdded, total)

	return dto.NewClubScoreLineResponse(line), nil
}

func (s *manualScoreService) UpdateClubScore(ctx context.Context, lineID uint, payload dto.ManualScoreUpdateRequest, actor Actor) (dto.ScoreLineResponse, error) {
	ctx, span := s.tracer.Start(ctx, "manual_score.club_update", trace.WithAttributes(
		attribute.Int64("actor_id", int64(actor.ID)),
		attribute.Int64("line_id", int64(lineID)),
	))
	defer span.End()

	if actor.ID == 0 {
		return dto.ScoreLineResponse{}, s.fail(span, ErrActorRequired, "actor_missing")
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoreLineResponse{}, s.fail(span, err, "validation_failed")
	}

	line, err := s.clubs.GetLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreLineResponse{}, s.fail(span, ErrScoreLineNotFound, "line_not_found")
		}
		return dto.ScoreLineResponse{}, s.fail(span, err, "line_lookup_failed")
	}
	if !line.IsManual() {
		return dto.ScoreLineResponse{}, s.fail(span, ErrNotManualLine, "line_not_manual")
	}

	oldSnapshot := clubLineSnapshot(line)

	if payload.Points != nil {
		line.Score = *payload.Points
	}
	if payload.Note != nil {
		note := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Note))
		if note == "" {
			return dto.ScoreLineResponse{}, s.fail(span, ErrNoteRequired, "note_empty")
		}
		line.Note = note
	}

	audit := &models.EvaluationAuditLog{
		ActorID:  actor.ID,
		Action:   models.AuditActionManualScoreUpdated,
		OldValue: oldSnapshot,
		NewValue: clubLineSnapshot(line),
	}

	total, err := s.clubs.UpdateLine(ctx, &line, audit)
	if err != nil {
		return dto.ScoreLineResponse{}, s.fail(span, err, "line_update_failed")
	}

	s.committed(span, "club", models.AuditActionManualScoreUpdated, line.ID, total)

	record, err := s.clubs.GetByID(ctx, line.ClubMovementRecordID)
	if err == nil {
		s.publishClub(ctx, record, line, models.AuditActionManualScoreUpdated, total)
	}

	return dto.NewClubScoreLineResponse(line), nil
}

func (s *manualScoreService) DeleteClubScore(ctx context.Context, lineID uint, actor Actor) error {
	ctx, span := s.tracer.Start(ctx, "manual_score.club_delete", trace.WithAttributes(
		attribute.Int64("actor_id", int64(actor.ID)),
		attribute.Int64("line_id", int64(lineID)),
	))
	defer span.End()

	if actor.ID == 0 {
		return s.fail(span, ErrActorRequired, "actor_missing")
	}

	line, err := s.clubs.GetLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fail(span, ErrScoreLineNotFound, "line_not_found")
		}
		return s.fail(span, err, "line_lookup_failed")
	}
	if !line.IsManual() {
		return s.fail(span, ErrNotManualLine, "line_not_manual")
	}

	audit := &models.EvaluationAuditLog{
		ActorID:  actor.ID,
		Action:   models.AuditActionManualScoreDeleted,
		OldValue: clubLineSnapshot(line),
	}

	total, err := s.clubs.DeleteLine(ctx, lineID, audit)
	if err != nil {
		return s.fail(span, err, "line_delete_failed")
	}

	s.committed(span, "club", models.AuditActionManualScoreDeleted, lineID, total)

	record, err := s.clubs.GetByID(ctx, line.ClubMovementRecordID)
	if err == nil {
		s.publishClub(ctx, record, line, models.AuditActionManualScoreDeleted, total)
	}

	return nil
}

// prepare runs the shared admission checks for add operations: actor present,
// payload valid, note non-empty after sanitization.
func (s *manualScoreService) prepare(span trace.Span, payload interface{}, actor Actor, rawNote string) (string, error) {
	if actor.ID == 0 {
		return "", s.fail(span, ErrActorRequired, "actor_missing")
	}

	if err := s.validator.Struct(payload); err != nil {
		return "", s.fail(span, err, "validation_failed")
	}

	note := strings.TrimSpace(s.sanitizer.Sanitize(rawNote))
	if note == "" {
		return "", s.fail(span, ErrNoteRequired, "note_empty")
	}

	return note, nil
}

func (s *manualScoreService) lookupCriterion(ctx context.Context, span trace.Span, id uint) (models.Criterion, error) {
	criterion, err := s.criteria.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Criterion{}, s.fail(span, ErrCriterionNotFound, "criterion_not_found")
		}
		return models.Criterion{}, s.fail(span, err, "criterion_lookup_failed")
	}

	return criterion, nil
}

func (s *manualScoreService) fail(span trace.Span, err error, status string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}

func (s *manualScoreService) committed(span trace.Span, ledger, action string, lineID uint, total float64) {
	span.SetAttributes(attribute.Float64("total_score", total))
	observability.ScoreLines().WithLabelValues(ledger, string(models.ScoreTypeManual)).Inc()
	observability.AuditEntries().WithLabelValues(action).Inc()
	s.logger.Info().
		Str("ledger", ledger).
		Str("action", action).
		Uint("line_id", lineID).
		Float64("total", total).
		Msg("manual score mutation committed")
}

func (s *manualScoreService) publishStudent(ctx context.Context, record models.MovementRecord, line models.MovementRecordDetail, action string, total float64) {
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

func (s *manualScoreService) publishClub(ctx context.Context, record models.ClubMovementRecord, line models.ClubMovementRecordDetail, action string, total float64) {
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

func studentLineSnapshot(line models.MovementRecordDetail) datatypes.JSONMap {
	snapshot := datatypes.JSONMap{
		"criterion_id": line.CriterionID,
		"score":        line.Score,
		"score_type":   string(line.ScoreType),
		"note":         line.Note,
	}
	if line.ID != 0 {
		snapshot["line_id"] = line.ID
	}
	return snapshot
}

func clubLineSnapshot(line models.ClubMovementRecordDetail) datatypes.JSONMap {
	snapshot := datatypes.JSONMap{
		"criterion_id": line.CriterionID,
		"score":        line.Score,
		"score_type":   string(line.ScoreType),
		"note":         line.Note,
	}
	if line.ID != 0 {
		snapshot["line_id"] = line.ID
	}
	return snapshot
}
