package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// SemesterRepository defines persistence operations for evaluation periods.
type SemesterRepository interface {
	List(ctx context.Context) ([]models.Semester, error)
	GetByID(ctx context.Context, id uint) (models.Semester, error)
	GetActive(ctx context.Context) (models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
}

// StudentRepository exposes student reference lookups for the ledger.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

// ClubRepository exposes club reference lookups for the ledger.
type ClubRepository interface {
	GetByID(ctx context.Context, id uint) (models.Club, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Club, error)
	Create(ctx context.Context, club *models.Club) error
}

type semesterRepository struct{ db *gorm.DB }

// NewSemesterRepository constructs the semester repository.
func NewSemesterRepository(db *gorm.DB) SemesterRepository {
	return &semesterRepository{db: db}
}

func (r *semesterRepository) List(ctx context.Context) ([]models.Semester, error) {
	var semesters []models.Semester
	if err := r.db.WithContext(ctx).Order("start_date DESC").Find(&semesters).Error; err != nil {
		return nil, err
	}
	return semesters, nil
}

func (r *semesterRepository) GetByID(ctx context.Context, id uint) (models.Semester, error) {
	var semester models.Semester
	if err := r.db.WithContext(ctx).First(&semester, id).Error; err != nil {
		return models.Semester{}, err
	}
	return semester, nil
}

func (r *semesterRepository) GetActive(ctx context.Context) (models.Semester, error) {
	var semester models.Semester
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&semester).Error; err != nil {
		return models.Semester{}, err
	}
	return semester, nil
}

func (r *semesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	return r.db.WithContext(ctx).Create(semester).Error
}

type studentRepository struct{ db *gorm.DB }

// NewStudentRepository constructs the student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var students []models.Student
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

type clubRepository struct{ db *gorm.DB }

// NewClubRepository constructs the club repository.
func NewClubRepository(db *gorm.DB) ClubRepository {
	return &clubRepository{db: db}
}

func (r *clubRepository) GetByID(ctx context.Context, id uint) (models.Club, error) {
	var club models.Club
	if err := r.db.WithContext(ctx).First(&club, id).Error; err != nil {
		return models.Club{}, err
	}
	return club, nil
}

func (r *clubRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Club, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var clubs []models.Club
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&clubs).Error; err != nil {
		return nil, err
	}
	return clubs, nil
}

func (r *clubRepository) Create(ctx context.Context, club *models.Club) error {
	return r.db.WithContext(ctx).Create(club).Error
}
