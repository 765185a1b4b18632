package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/models"
)

func newClubMovementFixture(t *testing.T) (ClubMovementScoreService, *memoryClubMovementRepo, *memoryCriterionRepo, *capturePublisher, *captureBoards) {
	t.Helper()
	records := newMemoryClubMovementRepo()
	criteria := newMemoryCriterionRepo()
	publisher := &capturePublisher{}
	boards := &captureBoards{}
	svc := NewClubMovementScoreService(records, criteria, validator.New(validator.WithRequiredStructEnabled()), publisher, boards, zerolog.Nop())
	return svc, records, criteria, publisher, boards
}

func clubCriterion(repo *memoryCriterionRepo, maxPoints *float64, active bool) models.Criterion {
	return repo.put(models.Criterion{
		GroupID:   2,
		Group:     models.CriterionGroup{ID: 2, Name: "Club Operations", TargetType: models.TargetClub},
		Code:      fmt.Sprintf("CLB-%02d", len(repo.criteria)+1),
		Title:     "Monthly report",
		MaxPoints: maxPoints,
		IsActive:  active,
	})
}

func TestClubAddAutomaticScoreCreatesMonthScopedRecord(t *testing.T) {
	svc, records, criteria, publisher, boards := newClubMovementFixture(t)
	criterion := clubCriterion(criteria, nil, true)

	line, err := svc.AddAutomaticScore(context.Background(), dto.ClubAutoScoreRequest{
		ClubID:      3,
		SemesterID:  1,
		Month:       9,
		CriterionID: criterion.ID,
		Points:      12,
		ActivityID:  700,
	})
	require.NoError(t, err)
	require.Equal(t, "auto", line.ScoreType)

	record, err := records.FindByClubSemesterMonth(context.Background(), 3, 1, 9)
	require.NoError(t, err)
	require.InDelta(t, 12, record.TotalScore, 1e-9)

	events := publisher.all()
	require.Len(t, events, 1)
	require.Equal(t, "AutoScoreAdded", events[0].Action)
	require.NotNil(t, events[0].Month)
	require.Equal(t, 9, *events[0].Month)

	boards.mu.Lock()
	defer boards.mu.Unlock()
	require.Equal(t, [][2]int{{1, 9}}, boards.clubs, "invalidation carries the mutated month")
}

func TestClubAddAutomaticScoreIsIdempotentPerActivity(t *testing.T) {
	svc, records, criteria, publisher, _ := newClubMovementFixture(t)
	criterion := clubCriterion(criteria, nil, true)

	payload := dto.ClubAutoScoreRequest{
		ClubID:      3,
		SemesterID:  1,
		Month:       9,
		CriterionID: criterion.ID,
		Points:      5,
		ActivityID:  700,
	}

	first, err := svc.AddAutomaticScore(context.Background(), payload)
	require.NoError(t, err)

	replay, err := svc.AddAutomaticScore(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, first.ID, replay.ID)

	record, err := records.FindByClubSemesterMonth(context.Background(), 3, 1, 9)
	require.NoError(t, err)
	require.InDelta(t, 5, record.TotalScore, 1e-9, "replayed award must not accumulate")
	require.Len(t, publisher.all(), 1)
}

func TestClubConcurrentReplaysOfOneActivityAwardOnce(t *testing.T) {
	svc, records, criteria, _, _ := newClubMovementFixture(t)
	criterion := clubCriterion(criteria, nil, true)

	payload := dto.ClubAutoScoreRequest{
		ClubID:      3,
		SemesterID:  1,
		Month:       9,
		CriterionID: criterion.ID,
		Points:      5,
		ActivityID:  700,
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.AddAutomaticScore(context.Background(), payload)
		}(i)
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Len(t, records.lines, 1, "simultaneous deliveries of one activity must award a single line")
	record, err := records.FindByClubSemesterMonth(context.Background(), 3, 1, 9)
	require.NoError(t, err)
	require.InDelta(t, 5, record.TotalScore, 1e-9)
}

func TestClubAddAutomaticScoreEnforcesCriterionCap(t *testing.T) {
	svc, records, criteria, _, _ := newClubMovementFixture(t)
	max := 20.0
	criterion := clubCriterion(criteria, &max, true)

	_, err := svc.AddAutomaticScore(context.Background(), dto.ClubAutoScoreRequest{
		ClubID:      3,
		SemesterID:  1,
		Month:       9,
		CriterionID: criterion.ID,
		Points:      18,
		ActivityID:  700,
	})
	require.NoError(t, err)

	_, err = svc.AddAutomaticScore(context.Background(), dto.ClubAutoScoreRequest{
		ClubID:      3,
		SemesterID:  1,
		Month:       9,
		CriterionID: criterion.ID,
		Points:      3,
		ActivityID:  701,
	})
	require.ErrorIs(t, err, ErrCapExceeded)

	record, err := records.FindByClubSemesterMonth(context.Background(), 3, 1, 9)
	require.NoError(t, err)
	require.InDelta(t, 18, record.TotalScore, 1e-9)
}

func TestClubAddAutomaticScoreRejectsStudentCriterion(t *testing.T) {
	svc, _, criteria, _, _ := newClubMovementFixture(t)
	criterion := criteria.put(models.Criterion{
		GroupID:  1,
		Group:    models.CriterionGroup{ID: 1, Name: "Discipline", TargetType: models.TargetStudent},
		Code:     "DSC-01",
		Title:    "Punctuality",
		IsActive: true,
	})

	_, err := svc.AddAutomaticScore(context.Background(), dto.ClubAutoScoreRequest{
		ClubID:      3,
		SemesterID:  1,
		Month:       9,
		CriterionID: criterion.ID,
		Points:      5,
		ActivityID:  700,
	})
	require.ErrorIs(t, err, ErrCriterionWrongTarget)
}
