package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/models"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
)

// ErrCriterionGroupNotFound indicates the requested group does not exist.
var ErrCriterionGroupNotFound = errors.New("criterion group not found")

// ErrCriterionNotFound indicates the requested criterion does not exist.
var ErrCriterionNotFound = errors.New("criterion not found")

// ErrGroupInUse indicates the group still owns criteria and cannot be deleted.
var ErrGroupInUse = errors.New("criterion group has existing criteria")

// ErrCriterionInUse indicates score lines reference the criterion, which
// therefore must not be deleted.
var ErrCriterionInUse = errors.New("criterion has existing score lines")

// ErrInvalidPointRange indicates min points exceed max points.
var ErrInvalidPointRange = errors.New("min points must not exceed max points")

// CriterionService exposes the criterion catalog use cases.
type CriterionService interface {
	ListGroups(ctx context.Context, targetType string) ([]dto.CriterionGroupResponse, error)
	GetGroup(ctx context.Context, id uint) (dto.CriterionGroupResponse, error)
	CreateGroup(ctx context.Context, payload dto.CriterionGroupCreateRequest) (dto.CriterionGroupResponse, error)
	UpdateGroup(ctx context.Context, id uint, payload dto.CriterionGroupUpdateRequest) (dto.CriterionGroupResponse, error)
	DeleteGroup(ctx context.Context, id uint) error

	ListCriteria(ctx context.Context, filter repository.CriterionFilter) ([]dto.CriterionResponse, error)
	GetCriterion(ctx context.Context, id uint) (dto.CriterionResponse, error)
	CreateCriterion(ctx context.Context, payload dto.CriterionCreateRequest) (dto.CriterionResponse, error)
	UpdateCriterion(ctx context.Context, id uint, payload dto.CriterionUpdateRequest) (dto.CriterionResponse, error)
	ToggleCriterion(ctx context.Context, id uint) (dto.CriterionResponse, error)
	DeleteCriterion(ctx context.Context, id uint) error
}

type criterionService struct {
	groups    repository.CriterionGroupRepository
	criteria  repository.CriterionRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCriterionService builds the criterion catalog service.
func NewCriterionService(groups repository.CriterionGroupRepository, criteria repository.CriterionRepository, validate *validator.Validate, logger zerolog.Logger) CriterionService {
	return &criterionService{
		groups:    groups,
		criteria:  criteria,
		validator: validate,
		logger:    logger.With().Str("component", "criterion_service").Logger(),
	}
}

func (s *criterionService) ListGroups(ctx context.Context, targetType string) ([]dto.CriterionGroupResponse, error) {
	groups, err := s.groups.List(ctx, models.TargetType(strings.ToLower(strings.TrimSpace(targetType))))
	if err != nil {
		return nil, err
	}

	return dto.NewCriterionGroupResponseSlice(groups), nil
}

func (s *criterionService) GetGroup(ctx context.Context, id uint) (dto.CriterionGroupResponse, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CriterionGroupResponse{}, ErrCriterionGroupNotFound
		}
		return dto.CriterionGroupResponse{}, err
	}

	return dto.NewCriterionGroupResponse(group), nil
}

func (s *criterionService) CreateGroup(ctx context.Context, payload dto.CriterionGroupCreateRequest) (dto.CriterionGroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CriterionGroupResponse{}, err
	}

	group := models.CriterionGroup{
		Name:         strings.TrimSpace(payload.Name),
		TargetType:   models.TargetType(payload.TargetType),
		DisplayOrder: payload.DisplayOrder,
	}

	if err := s.groups.Create(ctx, &group); err != nil {
		return dto.CriterionGroupResponse{}, err
	}

	s.logger.Info().Uint("group_id", group.ID).Str("target_type", payload.TargetType).Msg("criterion group created")

	return dto.NewCriterionGroupResponse(group), nil
}

func (s *criterionService) UpdateGroup(ctx context.Context, id uint, payload dto.CriterionGroupUpdateRequest) (dto.CriterionGroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CriterionGroupResponse{}, err
	}

	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CriterionGroupResponse{}, ErrCriterionGroupNotFound
		}
		return dto.CriterionGroupResponse{}, err
	}

	if payload.Name != nil {
		group.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.DisplayOrder != nil {
		group.DisplayOrder = *payload.DisplayOrder
	}

	if err := s.groups.Update(ctx, &group); err != nil {
		return dto.CriterionGroupResponse{}, err
	}

	return dto.NewCriterionGroupResponse(group), nil
}

func (s *criterionService) DeleteGroup(ctx context.Context, id uint) error {
	count, err := s.groups.CountCriteria(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrGroupInUse
	}

	if err := s.groups.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCriterionGroupNotFound
		}
		return err
	}

	s.logger.Info().Uint("group_id", id).Msg("criterion group deleted")
	return nil
}

func (s *criterionService) ListCriteria(ctx context.Context, filter repository.CriterionFilter) ([]dto.CriterionResponse, error) {
	criteria, err := s.criteria.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewCriterionResponseSlice(criteria), nil
}

func (s *criterionService) GetCriterion(ctx context.Context, id uint) (dto.CriterionResponse, error) {
	criterion, err := s.criteria.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CriterionResponse{}, ErrCriterionNotFound
		}
		return dto.CriterionResponse{}, err
	}

	return dto.NewCriterionResponse(criterion), nil
}

func (s *criterionService) CreateCriterion(ctx context.Context, payload dto.CriterionCreateRequest) (dto.CriterionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CriterionResponse{}, err
	}

	if err := validatePointRange(payload.MinPoints, payload.MaxPoints); err != nil {
		return dto.CriterionResponse{}, err
	}

	if _, err := s.groups.GetByID(ctx, payload.GroupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CriterionResponse{}, ErrCriterionGroupNotFound
		}
		return dto.CriterionResponse{}, err
	}

	criterion := models.Criterion{
		GroupID:      payload.GroupID,
		Code:         strings.ToUpper(strings.TrimSpace(payload.Code)),
		Title:        strings.TrimSpace(payload.Title),
		MaxPoints:    payload.MaxPoints,
		MinPoints:    payload.MinPoints,
		IsActive:     true,
		DisplayOrder: payload.DisplayOrder,
	}

	if err := s.criteria.Create(ctx, &criterion); err != nil {
		return dto.CriterionResponse{}, err
	}

	s.logger.Info().Uint("criterion_id", criterion.ID).Str("code", criterion.Code).Msg("criterion created")

	return dto.NewCriterionResponse(criterion), nil
}

// UpdateCriterion touches metadata only. Cap changes apply to future lines;
// historical lines are never rescaled.
func (s *criterionService) UpdateCriterion(ctx context.Context, id uint, payload dto.CriterionUpdateRequest) (dto.CriterionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CriterionResponse{}, err
	}

	criterion, err := s.criteria.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CriterionResponse{}, ErrCriterionNotFound
		}
		return dto.CriterionResponse{}, err
	}

	if payload.Title != nil {
		criterion.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.MaxPoints != nil {
		criterion.MaxPoints = payload.MaxPoints
	}
	if payload.MinPoints != nil {
		criterion.MinPoints = payload.MinPoints
	}
	if payload.DisplayOrder != nil {
		criterion.DisplayOrder = *payload.DisplayOrder
	}

	if err := validatePointRange(criterion.MinPoints, criterion.MaxPoints); err != nil {
		return dto.CriterionResponse{}, err
	}

	if err := s.criteria.Update(ctx, &criterion); err != nil {
		return dto.CriterionResponse{}, err
	}

	return dto.NewCriterionResponse(criterion), nil
}

// ToggleCriterion flips the active flag and returns the new state. Historical
// lines are unaffected.
func (s *criterionService) ToggleCriterion(ctx context.Context, id uint) (dto.CriterionResponse, error) {
	criterion, err := s.criteria.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CriterionResponse{}, ErrCriterionNotFound
		}
		return dto.CriterionResponse{}, err
	}

	criterion.IsActive = !criterion.IsActive
	if err := s.criteria.Update(ctx, &criterion); err != nil {
		return dto.CriterionResponse{}, err
	}

	s.logger.Info().Uint("criterion_id", id).Bool("is_active", criterion.IsActive).Msg("criterion toggled")

	return dto.NewCriterionResponse(criterion), nil
}

func (s *criterionService) DeleteCriterion(ctx context.Context, id uint) error {
	if _, err := s.criteria.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCriterionNotFound
		}
		return err
	}

	count, err := s.criteria.CountScoreLines(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCriterionInUse
	}

	if err := s.criteria.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCriterionNotFound
		}
		return err
	}

	s.logger.Info().Uint("criterion_id", id).Msg("criterion deleted")
	return nil
}

func validatePointRange(min, max *float64) error {
	if min != nil && max != nil && *min > *max {
		return ErrInvalidPointRange
	}
	return nil
}
