package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/models"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
)

// ErrSemesterNotFound indicates the requested evaluation period does not exist.
var ErrSemesterNotFound = errors.New("semester not found")

// ExportService renders semester movement reports as spreadsheets for the
// administrative office.
type ExportService interface {
	SemesterReport(ctx context.Context, semesterID uint) ([]byte, string, error)
}

type exportService struct {
	semesters repository.SemesterRepository
	students  repository.StudentRepository
	clubs     repository.ClubRepository
	records   repository.MovementRecordRepository
	clubRecs  repository.ClubMovementRecordRepository
	logger    zerolog.Logger
}

// NewExportService builds the spreadsheet exporter.
func NewExportService(semesters repository.SemesterRepository, students repository.StudentRepository, clubs repository.ClubRepository, records repository.MovementRecordRepository, clubRecs repository.ClubMovementRecordRepository, logger zerolog.Logger) ExportService {
	return &exportService{
		semesters: semesters,
		students:  students,
		clubs:     clubs,
		records:   records,
		clubRecs:  clubRecs,
		logger:    logger.With().Str("component", "export_service").Logger(),
	}
}

// SemesterReport renders one workbook with a student sheet and a club sheet
// for the given semester. Returns the file bytes and a suggested filename.
func (s *exportService) SemesterReport(ctx context.Context, semesterID uint) ([]byte, string, error) {
	semester, err := s.semesters.GetByID(ctx, semesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrSemesterNotFound
		}
		return nil, "", err
	}

	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", "Students"); err != nil {
		return nil, "", err
	}
	if _, err := file.NewSheet("Clubs"); err != nil {
		return nil, "", err
	}

	if err := s.writeStudentSheet(ctx, file, semesterID); err != nil {
		return nil, "", err
	}
	if err := s.writeClubSheet(ctx, file, semesterID); err != nil {
		return nil, "", err
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("movement-report-%s.xlsx", slugify(semester.Name))
	s.logger.Info().Uint("semester_id", semesterID).Str("file", filename).Msg("semester report generated")

	return buffer.Bytes(), filename, nil
}

func (s *exportService) writeStudentSheet(ctx context.Context, file *excelize.File, semesterID uint) error {
	records, _, err := s.records.ListBySemester(ctx, semesterID, 0, 0)
	if err != nil {
		return err
	}

	studentIDs := make([]uint, 0, len(records))
	for _, record := range records {
		studentIDs = append(studentIDs, record.StudentID)
	}

	students, err := s.students.ListByIDs(ctx, studentIDs)
	if err != nil {
		return err
	}
	names := make(map[uint]models.Student, len(students))
	for _, student := range students {
		names[student.ID] = student
	}

	headers := []string{"Rank", "Student Code", "Full Name", "Total Score"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue("Students", cell, header); err != nil {
			return err
		}
	}

	for row, record := range records {
		student := names[record.StudentID]
		values := []interface{}{row + 1, student.Code, student.FullName, record.TotalScore}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue("Students", cell, value); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *exportService) writeClubSheet(ctx context.Context, file *excelize.File, semesterID uint) error {
	records, _, err := s.clubRecs.ListBySemester(ctx, semesterID, 0, 0, 0)
	if err != nil {
		return err
	}

	clubIDs := make([]uint, 0, len(records))
	for _, record := range records {
		clubIDs = append(clubIDs, record.ClubID)
	}

	clubs, err := s.clubs.ListByIDs(ctx, clubIDs)
	if err != nil {
		return err
	}
	names := make(map[uint]models.Club, len(clubs))
	for _, club := range clubs {
		names[club.ID] = club
	}

	headers := []string{"Club", "Month", "Total Score"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue("Clubs", cell, header); err != nil {
			return err
		}
	}

	for row, record := range records {
		club := names[record.ClubID]
		values := []interface{}{club.Name, record.Month, record.TotalScore}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue("Clubs", cell, value); err != nil {
				return err
			}
		}
	}

	return nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "/", "-")
	return slug
}
