package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/models"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
)

// memoryCriterionGroupRepo keeps catalog groups in memory and counts criteria
// through the paired criterion repo.
type memoryCriterionGroupRepo struct {
	mu       sync.Mutex
	groups   map[uint]models.CriterionGroup
	criteria *memoryCriterionRepo
	nextID   uint
}

func newMemoryCriterionGroupRepo(criteria *memoryCriterionRepo) *memoryCriterionGroupRepo {
	return &memoryCriterionGroupRepo{
		groups:   make(map[uint]models.CriterionGroup),
		criteria: criteria,
		nextID:   1,
	}
}

func (m *memoryCriterionGroupRepo) put(group models.CriterionGroup) models.CriterionGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	if group.ID == 0 {
		group.ID = m.nextID
		m.nextID++
	}
	m.groups[group.ID] = group
	return group
}

func (m *memoryCriterionGroupRepo) List(ctx context.Context, targetType models.TargetType) ([]models.CriterionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]models.CriterionGroup, 0, len(m.groups))
	for _, group := range m.groups {
		if targetType != "" && group.TargetType != targetType {
			continue
		}
		results = append(results, group)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].DisplayOrder != results[j].DisplayOrder {
			return results[i].DisplayOrder < results[j].DisplayOrder
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

func (m *memoryCriterionGroupRepo) GetByID(ctx context.Context, id uint) (models.CriterionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[id]
	if !ok {
		return models.CriterionGroup{}, gorm.ErrRecordNotFound
	}
	return group, nil
}

func (m *memoryCriterionGroupRepo) Create(ctx context.Context, group *models.CriterionGroup) error {
	*group = m.put(*group)
	return nil
}

func (m *memoryCriterionGroupRepo) Update(ctx context.Context, group *models.CriterionGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.groups[group.ID] = *group
	return nil
}

func (m *memoryCriterionGroupRepo) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.groups, id)
	return nil
}

func (m *memoryCriterionGroupRepo) CountCriteria(ctx context.Context, id uint) (int64, error) {
	m.criteria.mu.Lock()
	defer m.criteria.mu.Unlock()
	var count int64
	for _, criterion := range m.criteria.criteria {
		if criterion.GroupID == id {
			count++
		}
	}
	return count, nil
}

func newCatalogFixture(t *testing.T) (CriterionService, *memoryCriterionGroupRepo, *memoryCriterionRepo) {
	t.Helper()
	criteria := newMemoryCriterionRepo()
	groups := newMemoryCriterionGroupRepo(criteria)
	svc := NewCriterionService(groups, criteria, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	return svc, groups, criteria
}

func TestCreateGroupTrimsAndLists(t *testing.T) {
	svc, _, _ := newCatalogFixture(t)

	created, err := svc.CreateGroup(context.Background(), dto.CriterionGroupCreateRequest{
		Name:       "  Discipline  ",
		TargetType: "student",
	})
	require.NoError(t, err)
	require.Equal(t, "Discipline", created.Name)
	require.Equal(t, "student", created.TargetType)

	_, err = svc.CreateGroup(context.Background(), dto.CriterionGroupCreateRequest{
		Name:       "Club Operations",
		TargetType: "club",
	})
	require.NoError(t, err)

	all, err := svc.ListGroups(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	students, err := svc.ListGroups(context.Background(), "Student")
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, "Discipline", students[0].Name)
}

func TestCreateGroupValidatesTargetType(t *testing.T) {
	svc, _, _ := newCatalogFixture(t)

	_, err := svc.CreateGroup(context.Background(), dto.CriterionGroupCreateRequest{
		Name:       "Discipline",
		TargetType: "school",
	})
	require.Error(t, err)

	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
}

func TestUpdateGroupMergesFields(t *testing.T) {
	svc, groups, _ := newCatalogFixture(t)
	group := groups.put(models.CriterionGroup{Name: "Discipline", TargetType: models.TargetStudent})

	name := "Academic Discipline"
	order := 3
	updated, err := svc.UpdateGroup(context.Background(), group.ID, dto.CriterionGroupUpdateRequest{
		Name:         &name,
		DisplayOrder: &order,
	})
	require.NoError(t, err)
	require.Equal(t, "Academic Discipline", updated.Name)
	require.Equal(t, 3, updated.DisplayOrder)
	require.Equal(t, "student", updated.TargetType)

	_, err = svc.UpdateGroup(context.Background(), 999, dto.CriterionGroupUpdateRequest{Name: &name})
	require.ErrorIs(t, err, ErrCriterionGroupNotFound)
}

func TestDeleteGroupRefusesWhileCriteriaExist(t *testing.T) {
	svc, groups, criteria := newCatalogFixture(t)
	group := groups.put(models.CriterionGroup{Name: "Discipline", TargetType: models.TargetStudent})
	criteria.put(models.Criterion{GroupID: group.ID, Code: "DSC-01", Title: "Punctuality", IsActive: true})

	err := svc.DeleteGroup(context.Background(), group.ID)
	require.ErrorIs(t, err, ErrGroupInUse)

	require.NoError(t, criteria.Delete(context.Background(), 1))
	require.NoError(t, svc.DeleteGroup(context.Background(), group.ID))
	require.ErrorIs(t, svc.DeleteGroup(context.Background(), group.ID), ErrCriterionGroupNotFound)
}

func TestCreateCriterionNormalizesCode(t *testing.T) {
	svc, groups, _ := newCatalogFixture(t)
	group := groups.put(models.CriterionGroup{Name: "Discipline", TargetType: models.TargetStudent})

	maxPoints := 20.0
	created, err := svc.CreateCriterion(context.Background(), dto.CriterionCreateRequest{
		GroupID:   group.ID,
		Code:      "  dsc-01 ",
		Title:     " Punctuality ",
		MaxPoints: &maxPoints,
	})
	require.NoError(t, err)
	require.Equal(t, "DSC-01", created.Code)
	require.Equal(t, "Punctuality", created.Title)
	require.True(t, created.IsActive)
	require.NotNil(t, created.MaxPoints)
	require.InDelta(t, 20.0, *created.MaxPoints, 1e-9)
}

func TestCreateCriterionRejectsUnknownGroup(t *testing.T) {
	svc, _, _ := newCatalogFixture(t)

	_, err := svc.CreateCriterion(context.Background(), dto.CriterionCreateRequest{
		GroupID: 77,
		Code:    "DSC-01",
		Title:   "Punctuality",
	})
	require.ErrorIs(t, err, ErrCriterionGroupNotFound)
}

func TestCreateCriterionRejectsInvertedPointRange(t *testing.T) {
	svc, groups, _ := newCatalogFixture(t)
	group := groups.put(models.CriterionGroup{Name: "Discipline", TargetType: models.TargetStudent})

	minPoints := 10.0
	maxPoints := 5.0
	_, err := svc.CreateCriterion(context.Background(), dto.CriterionCreateRequest{
		GroupID:   group.ID,
		Code:      "DSC-01",
		Title:     "Punctuality",
		MinPoints: &minPoints,
		MaxPoints: &maxPoints,
	})
	require.ErrorIs(t, err, ErrInvalidPointRange)
}

func TestUpdateCriterionValidatesMergedRange(t *testing.T) {
	svc, _, criteria := newCatalogFixture(t)
	maxPoints := 10.0
	criterion := criteria.put(models.Criterion{
		GroupID:   1,
		Code:      "DSC-01",
		Title:     "Punctuality",
		MaxPoints: &maxPoints,
		IsActive:  true,
	})

	// The existing cap stays at 10, so raising only the floor past it fails.
	minPoints := 15.0
	_, err := svc.UpdateCriterion(context.Background(), criterion.ID, dto.CriterionUpdateRequest{
		MinPoints: &minPoints,
	})
	require.ErrorIs(t, err, ErrInvalidPointRange)

	title := "Attendance"
	updated, err := svc.UpdateCriterion(context.Background(), criterion.ID, dto.CriterionUpdateRequest{
		Title: &title,
	})
	require.NoError(t, err)
	require.Equal(t, "Attendance", updated.Title)
	require.NotNil(t, updated.MaxPoints)

	_, err = svc.UpdateCriterion(context.Background(), 999, dto.CriterionUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrCriterionNotFound)
}

func TestToggleCriterionFlipsActiveFlag(t *testing.T) {
	svc, _, criteria := newCatalogFixture(t)
	criterion := criteria.put(models.Criterion{GroupID: 1, Code: "DSC-01", Title: "Punctuality", IsActive: true})

	toggled, err := svc.ToggleCriterion(context.Background(), criterion.ID)
	require.NoError(t, err)
	require.False(t, toggled.IsActive)

	toggled, err = svc.ToggleCriterion(context.Background(), criterion.ID)
	require.NoError(t, err)
	require.True(t, toggled.IsActive)

	_, err = svc.ToggleCriterion(context.Background(), 999)
	require.ErrorIs(t, err, ErrCriterionNotFound)
}

func TestDeleteCriterionRefusesWhileLinesExist(t *testing.T) {
	svc, _, criteria := newCatalogFixture(t)
	criterion := criteria.put(models.Criterion{GroupID: 1, Code: "DSC-01", Title: "Punctuality", IsActive: true})
	criteria.lineCount[criterion.ID] = 4

	err := svc.DeleteCriterion(context.Background(), criterion.ID)
	require.ErrorIs(t, err, ErrCriterionInUse)

	criteria.lineCount[criterion.ID] = 0
	require.NoError(t, svc.DeleteCriterion(context.Background(), criterion.ID))
	require.ErrorIs(t, svc.DeleteCriterion(context.Background(), criterion.ID), ErrCriterionNotFound)
}

func TestListCriteriaAppliesFilter(t *testing.T) {
	svc, _, criteria := newCatalogFixture(t)
	groupID := uint(1)
	criteria.put(models.Criterion{
		GroupID:  groupID,
		Group:    models.CriterionGroup{ID: groupID, TargetType: models.TargetStudent},
		Code:     "DSC-01",
		Title:    "Punctuality",
		IsActive: true,
	})
	criteria.put(models.Criterion{
		GroupID:  groupID,
		Group:    models.CriterionGroup{ID: groupID, TargetType: models.TargetStudent},
		Code:     "DSC-02",
		Title:    "Uniform",
		IsActive: false,
	})

	active, err := svc.ListCriteria(context.Background(), repository.CriterionFilter{GroupID: &groupID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "DSC-01", active[0].Code)

	all, err := svc.ListCriteria(context.Background(), repository.CriterionFilter{GroupID: &groupID})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
