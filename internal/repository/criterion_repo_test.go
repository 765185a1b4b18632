package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

func seedCatalog(t *testing.T, db *gorm.DB) (models.CriterionGroup, models.CriterionGroup) {
	t.Helper()

	discipline := models.CriterionGroup{Name: "Discipline", TargetType: models.TargetStudent, DisplayOrder: 1}
	clubOps := models.CriterionGroup{Name: "Club Operations", TargetType: models.TargetClub, DisplayOrder: 2}
	require.NoError(t, db.Create(&discipline).Error)
	require.NoError(t, db.Create(&clubOps).Error)

	max := 20.0
	require.NoError(t, db.Create(&models.Criterion{
		GroupID: discipline.ID, Code: "DSC-01", Title: "Punctuality", MaxPoints: &max, IsActive: true, DisplayOrder: 1,
	}).Error)
	require.NoError(t, db.Create(&models.Criterion{
		GroupID: discipline.ID, Code: "DSC-02", Title: "Uniform", IsActive: false, DisplayOrder: 2,
	}).Error)
	require.NoError(t, db.Create(&models.Criterion{
		GroupID: clubOps.ID, Code: "CLB-01", Title: "Monthly report", IsActive: true, DisplayOrder: 1,
	}).Error)

	return discipline, clubOps
}

func TestCriterionRepositoryListFilters(t *testing.T) {
	db := setupScoreTestDB(t)
	discipline, _ := seedCatalog(t, db)
	repo := NewCriterionRepository(db)
	ctx := context.Background()

	all, err := repo.List(ctx, CriterionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	byGroup, err := repo.List(ctx, CriterionFilter{GroupID: &discipline.ID})
	require.NoError(t, err)
	require.Len(t, byGroup, 2)

	byTarget, err := repo.List(ctx, CriterionFilter{TargetType: models.TargetClub})
	require.NoError(t, err)
	require.Len(t, byTarget, 1)
	require.Equal(t, "CLB-01", byTarget[0].Code)

	active, err := repo.List(ctx, CriterionFilter{GroupID: &discipline.ID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "DSC-01", active[0].Code)
}

func TestCriterionRepositoryGetByIDPreloadsGroup(t *testing.T) {
	db := setupScoreTestDB(t)
	seedCatalog(t, db)
	repo := NewCriterionRepository(db)

	var stored models.Criterion
	require.NoError(t, db.First(&stored, "code = ?", "DSC-01").Error)

	criterion, err := repo.GetByID(context.Background(), stored.ID)
	require.NoError(t, err)
	require.Equal(t, "Discipline", criterion.Group.Name)
	require.NotNil(t, criterion.MaxPoints)
	require.InDelta(t, 20, *criterion.MaxPoints, 1e-9)
}

func TestCriterionRepositoryCountScoreLinesSpansBothLedgers(t *testing.T) {
	db := setupScoreTestDB(t)
	seedCatalog(t, db)
	repo := NewCriterionRepository(db)
	ctx := context.Background()

	var criterion models.Criterion
	require.NoError(t, db.First(&criterion, "code = ?", "DSC-01").Error)

	count, err := repo.CountScoreLines(ctx, criterion.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, db.Create(&models.MovementRecord{ID: 1, StudentID: 1, SemesterID: 1}).Error)
	require.NoError(t, db.Create(&models.ClubMovementRecord{ID: 1, ClubID: 1, SemesterID: 1, Month: 9}).Error)
	require.NoError(t, db.Create(&models.MovementRecordDetail{
		MovementRecordID: 1, CriterionID: criterion.ID, Score: 2, ScoreType: models.ScoreTypeAuto, AwardedAt: time.Now(),
	}).Error)
	require.NoError(t, db.Create(&models.ClubMovementRecordDetail{
		ClubMovementRecordID: 1, CriterionID: criterion.ID, Score: 3, ScoreType: models.ScoreTypeManual, AwardedAt: time.Now(),
	}).Error)

	count, err = repo.CountScoreLines(ctx, criterion.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestCriterionGroupRepositoryListOrdersAndFilters(t *testing.T) {
	db := setupScoreTestDB(t)
	seedCatalog(t, db)
	repo := NewCriterionGroupRepository(db)
	ctx := context.Background()

	groups, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "Discipline", groups[0].Name)

	clubGroups, err := repo.List(ctx, models.TargetClub)
	require.NoError(t, err)
	require.Len(t, clubGroups, 1)
	require.Equal(t, "Club Operations", clubGroups[0].Name)
	require.Len(t, clubGroups[0].Criteria, 1)
}

func TestCriterionGroupRepositoryCountCriteria(t *testing.T) {
	db := setupScoreTestDB(t)
	discipline, _ := seedCatalog(t, db)
	repo := NewCriterionGroupRepository(db)

	count, err := repo.CountCriteria(context.Background(), discipline.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestCriterionRepositoryDelete(t *testing.T) {
	db := setupScoreTestDB(t)
	seedCatalog(t, db)
	repo := NewCriterionRepository(db)
	ctx := context.Background()

	var criterion models.Criterion
	require.NoError(t, db.First(&criterion, "code = ?", "DSC-02").Error)

	require.NoError(t, repo.Delete(ctx, criterion.ID))
	_, err := repo.GetByID(ctx, criterion.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.ErrorIs(t, repo.Delete(ctx, criterion.ID), gorm.ErrRecordNotFound)
}
