package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
)

// AuditService exposes the read-only audit trail. The trail itself is written
// by the manual override workflow inside its mutation transactions; nothing
// ever edits an entry afterwards.
type AuditService interface {
	List(ctx context.Context, filter repository.AuditLogFilter) ([]dto.AuditLogResponse, int64, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService builds the audit trail reader.
func NewAuditService(repo repository.AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) List(ctx context.Context, filter repository.AuditLogFilter) ([]dto.AuditLogResponse, int64, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewAuditLogResponseSlice(entries), total, nil
}
