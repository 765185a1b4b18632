package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
)

// ErrStudentNotFound indicates the requested student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrClubNotFound indicates the requested club does not exist.
var ErrClubNotFound = errors.New("club not found")

// SchoolService exposes the reference entities the ledger scores against.
type SchoolService interface {
	ListSemesters(ctx context.Context) ([]dto.SemesterResponse, error)
	GetSemester(ctx context.Context, id uint) (dto.SemesterResponse, error)
	GetActiveSemester(ctx context.Context) (dto.SemesterResponse, error)
	GetStudent(ctx context.Context, id uint) (dto.StudentResponse, error)
	GetClub(ctx context.Context, id uint) (dto.ClubResponse, error)
}

type schoolService struct {
	semesters repository.SemesterRepository
	students  repository.StudentRepository
	clubs     repository.ClubRepository
	logger    zerolog.Logger
}

// NewSchoolService builds the reference entity reader.
func NewSchoolService(semesters repository.SemesterRepository, students repository.StudentRepository, clubs repository.ClubRepository, logger zerolog.Logger) SchoolService {
	return &schoolService{
		semesters: semesters,
		students:  students,
		clubs:     clubs,
		logger:    logger.With().Str("component", "school_service").Logger(),
	}
}

func (s *schoolService) ListSemesters(ctx context.Context) ([]dto.SemesterResponse, error) {
	semesters, err := s.semesters.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewSemesterResponseSlice(semesters), nil
}

func (s *schoolService) GetSemester(ctx context.Context, id uint) (dto.SemesterResponse, error) {
	semester, err := s.semesters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SemesterResponse{}, ErrSemesterNotFound
		}
		return dto.SemesterResponse{}, err
	}

	return dto.NewSemesterResponse(semester), nil
}

func (s *schoolService) GetActiveSemester(ctx context.Context) (dto.SemesterResponse, error) {
	semester, err := s.semesters.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SemesterResponse{}, ErrSemesterNotFound
		}
		return dto.SemesterResponse{}, err
	}

	return dto.NewSemesterResponse(semester), nil
}

func (s *schoolService) GetStudent(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *schoolService) GetClub(ctx context.Context, id uint) (dto.ClubResponse, error) {
	club, err := s.clubs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClubResponse{}, ErrClubNotFound
		}
		return dto.ClubResponse{}, err
	}

	return dto.NewClubResponse(club), nil
}
