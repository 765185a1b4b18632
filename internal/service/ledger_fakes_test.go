package service

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
	"github.com/Tanth170203/eduxtend-api/internal/models"
	"github.com/Tanth170203/eduxtend-api/internal/repository"
)

// memoryCriterionRepo backs criterion lookups without a database.
type memoryCriterionRepo struct {
	mu        sync.Mutex
	criteria  map[uint]models.Criterion
	lineCount map[uint]int64
	nextID    uint
}

func newMemoryCriterionRepo() *memoryCriterionRepo {
	return &memoryCriterionRepo{
		criteria:  make(map[uint]models.Criterion),
		lineCount: make(map[uint]int64),
		nextID:    1,
	}
}

func (m *memoryCriterionRepo) put(criterion models.Criterion) models.Criterion {
	m.mu.Lock()
	defer m.mu.Unlock()
	if criterion.ID == 0 {
		criterion.ID = m.nextID
		m.nextID++
	}
	m.criteria[criterion.ID] = criterion
	return criterion
}

func (m *memoryCriterionRepo) List(ctx context.Context, filter repository.CriterionFilter) ([]models.Criterion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]models.Criterion, 0, len(m.criteria))
	for _, criterion := range m.criteria {
		if filter.GroupID != nil && criterion.GroupID != *filter.GroupID {
			continue
		}
		if filter.TargetType != "" && criterion.Group.TargetType != filter.TargetType {
			continue
		}
		if filter.ActiveOnly && !criterion.IsActive {
			continue
		}
		results = append(results, criterion)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryCriterionRepo) GetByID(ctx context.Context, id uint) (models.Criterion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	criterion, ok := m.criteria[id]
	if !ok {
		return models.Criterion{}, gorm.ErrRecordNotFound
	}
	return criterion, nil
}

func (m *memoryCriterionRepo) Create(ctx context.Context, criterion *models.Criterion) error {
	*criterion = m.put(*criterion)
	return nil
}

func (m *memoryCriterionRepo) Update(ctx context.Context, criterion *models.Criterion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.criteria[criterion.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.criteria[criterion.ID] = *criterion
	return nil
}

func (m *memoryCriterionRepo) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.criteria[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.criteria, id)
	return nil
}

func (m *memoryCriterionRepo) CountScoreLines(ctx context.Context, id uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lineCount[id], nil
}

// memoryMovementRepo is a mutex-guarded in-memory student ledger. Line
// mutations recompute the record total and capture audit entries the way the
// transactional repository does.
type memoryMovementRepo struct {
	mu         sync.Mutex
	records    map[uint]*models.MovementRecord
	lines      map[uint]models.MovementRecordDetail
	audits     []models.EvaluationAuditLog
	nextRecord uint
	nextLine   uint
	recomputes int
}

func newMemoryMovementRepo() *memoryMovementRepo {
	return &memoryMovementRepo{
		records:    make(map[uint]*models.MovementRecord),
		lines:      make(map[uint]models.MovementRecordDetail),
		nextRecord: 1,
		nextLine:   1,
	}
}

func (m *memoryMovementRepo) GetOrCreate(ctx context.Context, studentID, semesterID uint) (models.MovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.StudentID == studentID && record.SemesterID == semesterID {
			return *record, nil
		}
	}
	record := &models.MovementRecord{ID: m.nextRecord, StudentID: studentID, SemesterID: semesterID}
	m.nextRecord++
	m.records[record.ID] = record
	return *record, nil
}

func (m *memoryMovementRepo) GetByID(ctx context.Context, id uint) (models.MovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return models.MovementRecord{}, gorm.ErrRecordNotFound
	}
	return *record, nil
}

func (m *memoryMovementRepo) GetDetailed(ctx context.Context, id uint) (models.MovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return models.MovementRecord{}, gorm.ErrRecordNotFound
	}
	detailed := *record
	detailed.Details = m.linesForLocked(id)
	return detailed, nil
}

func (m *memoryMovementRepo) FindByStudentSemester(ctx context.Context, studentID, semesterID uint) (models.MovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.StudentID == studentID && record.SemesterID == semesterID {
			return *record, nil
		}
	}
	return models.MovementRecord{}, gorm.ErrRecordNotFound
}

func (m *memoryMovementRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.MovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.MovementRecord
	for _, record := range m.records {
		if record.StudentID == studentID {
			results = append(results, *record)
		}
	}
	return results, nil
}

func (m *memoryMovementRepo) ListBySemester(ctx context.Context, semesterID uint, page, pageSize int) ([]models.MovementRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.MovementRecord
	for _, record := range m.records {
		if record.SemesterID == semesterID {
			results = append(results, *record)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TotalScore > results[j].TotalScore })
	return results, int64(len(results)), nil
}

func (m *memoryMovementRepo) TopBySemester(ctx context.Context, semesterID uint, limit int) ([]models.MovementRecord, error) {
	records, _, err := m.ListBySemester(ctx, semesterID, 0, 0)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (m *memoryMovementRepo) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.records, id)
	for lineID, line := range m.lines {
		if line.MovementRecordID == id {
			delete(m.lines, lineID)
		}
	}
	return nil
}

func (m *memoryMovementRepo) GetLine(ctx context.Context, lineID uint) (models.MovementRecordDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[lineID]
	if !ok {
		return models.MovementRecordDetail{}, gorm.ErrRecordNotFound
	}
	return line, nil
}

func (m *memoryMovementRepo) FindLineBySource(ctx context.Context, recordID, criterionID, activityID uint) (models.MovementRecordDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.lines {
		if line.MovementRecordID == recordID && line.CriterionID == criterionID &&
			line.ActivityID != nil && *line.ActivityID == activityID {
			return line, nil
		}
	}
	return models.MovementRecordDetail{}, gorm.ErrRecordNotFound
}

func (m *memoryMovementRepo) SumForCriterion(ctx context.Context, recordID, criterionID uint) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, line := range m.lines {
		if line.MovementRecordID == recordID && line.CriterionID == criterionID {
			sum += line.Score
		}
	}
	return sum, nil
}

func (m *memoryMovementRepo) AddLine(ctx context.Context, line *models.MovementRecordDetail, audit *models.EvaluationAuditLog, guard repository.CapGuard) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if line.ActivityID != nil {
		for _, existing := range m.lines {
			if existing.MovementRecordID == line.MovementRecordID && existing.CriterionID == line.CriterionID &&
				existing.ActivityID != nil && *existing.ActivityID == *line.ActivityID {
				return 0, gorm.ErrDuplicatedKey
			}
		}
	}
	if guard != nil {
		var accumulated float64
		for _, existing := range m.lines {
			if existing.MovementRecordID == line.MovementRecordID && existing.CriterionID == line.CriterionID {
				accumulated += existing.Score
			}
		}
		if err := guard(accumulated); err != nil {
			return 0, err
		}
	}
	line.ID = m.nextLine
	m.nextLine++
	m.lines[line.ID] = *line
	if audit != nil && audit.NewValue != nil {
		audit.NewValue["line_id"] = line.ID
	}
	return m.commitLocked(line.MovementRecordID, audit), nil
}

func (m *memoryMovementRepo) UpdateLine(ctx context.Context, line *models.MovementRecordDetail, audit *models.EvaluationAuditLog) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lines[line.ID]; !ok {
		return 0, gorm.ErrRecordNotFound
	}
	m.lines[line.ID] = *line
	return m.commitLocked(line.MovementRecordID, audit), nil
}

func (m *memoryMovementRepo) DeleteLine(ctx context.Context, lineID uint, audit *models.EvaluationAuditLog) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[lineID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	delete(m.lines, lineID)
	return m.commitLocked(line.MovementRecordID, audit), nil
}

func (m *memoryMovementRepo) RecomputeTotal(ctx context.Context, recordID uint) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputes++
	return m.commitLocked(recordID, nil), nil
}

func (m *memoryMovementRepo) linesForLocked(recordID uint) []models.MovementRecordDetail {
	var results []models.MovementRecordDetail
	for _, line := range m.lines {
		if line.MovementRecordID == recordID {
			results = append(results, line)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

func (m *memoryMovementRepo) commitLocked(recordID uint, audit *models.EvaluationAuditLog) float64 {
	var total float64
	for _, line := range m.lines {
		if line.MovementRecordID == recordID {
			total += line.Score
		}
	}
	if record, ok := m.records[recordID]; ok {
		record.TotalScore = total
	}
	if audit != nil {
		audit.RecordType = models.TargetStudent
		audit.RecordID = recordID
		audit.ID = uint(len(m.audits) + 1)
		m.audits = append(m.audits, *audit)
	}
	return total
}

// memoryClubMovementRepo mirrors memoryMovementRepo for the club ledger.
type memoryClubMovementRepo struct {
	mu         sync.Mutex
	records    map[uint]*models.ClubMovementRecord
	lines      map[uint]models.ClubMovementRecordDetail
	audits     []models.EvaluationAuditLog
	nextRecord uint
	nextLine   uint
}

func newMemoryClubMovementRepo() *memoryClubMovementRepo {
	return &memoryClubMovementRepo{
		records:    make(map[uint]*models.ClubMovementRecord),
		lines:      make(map[uint]models.ClubMovementRecordDetail),
		nextRecord: 1,
		nextLine:   1,
	}
}

func (m *memoryClubMovementRepo) GetOrCreate(ctx context.Context, clubID, semesterID uint, month int) (models.ClubMovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.ClubID == clubID && record.SemesterID == semesterID && record.Month == month {
			return *record, nil
		}
	}
	record := &models.ClubMovementRecord{ID: m.nextRecord, ClubID: clubID, SemesterID: semesterID, Month: month}
	m.nextRecord++
	m.records[record.ID] = record
	return *record, nil
}

func (m *memoryClubMovementRepo) GetByID(ctx context.Context, id uint) (models.ClubMovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return models.ClubMovementRecord{}, gorm.ErrRecordNotFound
	}
	return *record, nil
}

func (m *memoryClubMovementRepo) GetDetailed(ctx context.Context, id uint) (models.ClubMovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return models.ClubMovementRecord{}, gorm.ErrRecordNotFound
	}
	detailed := *record
	for _, line := range m.lines {
		if line.ClubMovementRecordID == id {
			detailed.Details = append(detailed.Details, line)
		}
	}
	sort.Slice(detailed.Details, func(i, j int) bool { return detailed.Details[i].ID < detailed.Details[j].ID })
	return detailed, nil
}

func (m *memoryClubMovementRepo) FindByClubSemesterMonth(ctx context.Context, clubID, semesterID uint, month int) (models.ClubMovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.ClubID == clubID && record.SemesterID == semesterID && record.Month == month {
			return *record, nil
		}
	}
	return models.ClubMovementRecord{}, gorm.ErrRecordNotFound
}

func (m *memoryClubMovementRepo) ListByClub(ctx context.Context, clubID uint) ([]models.ClubMovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.ClubMovementRecord
	for _, record := range m.records {
		if record.ClubID == clubID {
			results = append(results, *record)
		}
	}
	return results, nil
}

func (m *memoryClubMovementRepo) ListBySemester(ctx context.Context, semesterID uint, month int, page, pageSize int) ([]models.ClubMovementRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []models.ClubMovementRecord
	for _, record := range m.records {
		if record.SemesterID != semesterID {
			continue
		}
		if month > 0 && record.Month != month {
			continue
		}
		results = append(results, *record)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TotalScore > results[j].TotalScore })
	return results, int64(len(results)), nil
}

func (m *memoryClubMovementRepo) TopBySemesterMonth(ctx context.Context, semesterID uint, month, limit int) ([]models.ClubMovementRecord, error) {
	records, _, err := m.ListBySemester(ctx, semesterID, month, 0, 0)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (m *memoryClubMovementRepo) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.records, id)
	for lineID, line := range m.lines {
		if line.ClubMovementRecordID == id {
			delete(m.lines, lineID)
		}
	}
	return nil
}

func (m *memoryClubMovementRepo) GetLine(ctx context.Context, lineID uint) (models.ClubMovementRecordDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[lineID]
	if !ok {
		return models.ClubMovementRecordDetail{}, gorm.ErrRecordNotFound
	}
	return line, nil
}

func (m *memoryClubMovementRepo) FindLineBySource(ctx context.Context, recordID, criterionID, activityID uint) (models.ClubMovementRecordDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.lines {
		if line.ClubMovementRecordID == recordID && line.CriterionID == criterionID &&
			line.ActivityID != nil && *line.ActivityID == activityID {
			return line, nil
		}
	}
	return models.ClubMovementRecordDetail{}, gorm.ErrRecordNotFound
}

func (m *memoryClubMovementRepo) SumForCriterion(ctx context.Context, recordID, criterionID uint) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, line := range m.lines {
		if line.ClubMovementRecordID == recordID && line.CriterionID == criterionID {
			sum += line.Score
		}
	}
	return sum, nil
}

func (m *memoryClubMovementRepo) AddLine(ctx context.Context, line *models.ClubMovementRecordDetail, audit *models.EvaluationAuditLog, guard repository.CapGuard) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if line.ActivityID != nil {
		for _, existing := range m.lines {
			if existing.ClubMovementRecordID == line.ClubMovementRecordID && existing.CriterionID == line.CriterionID &&
				existing.ActivityID != nil && *existing.ActivityID == *line.ActivityID {
				return 0, gorm.ErrDuplicatedKey
			}
		}
	}
	if guard != nil {
		var accumulated float64
		for _, existing := range m.lines {
			if existing.ClubMovementRecordID == line.ClubMovementRecordID && existing.CriterionID == line.CriterionID {
				accumulated += existing.Score
			}
		}
		if err := guard(accumulated); err != nil {
			return 0, err
		}
	}
	line.ID = m.nextLine
	m.nextLine++
	m.lines[line.ID] = *line
	if audit != nil && audit.NewValue != nil {
		audit.NewValue["line_id"] = line.ID
	}
	return m.commitLocked(line.ClubMovementRecordID, audit), nil
}

func (m *memoryClubMovementRepo) UpdateLine(ctx context.Context, line *models.ClubMovementRecordDetail, audit *models.EvaluationAuditLog) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lines[line.ID]; !ok {
		return 0, gorm.ErrRecordNotFound
	}
	m.lines[line.ID] = *line
	return m.commitLocked(line.ClubMovementRecordID, audit), nil
}

func (m *memoryClubMovementRepo) DeleteLine(ctx context.Context, lineID uint, audit *models.EvaluationAuditLog) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line, ok := m.lines[lineID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	delete(m.lines, lineID)
	return m.commitLocked(line.ClubMovementRecordID, audit), nil
}

func (m *memoryClubMovementRepo) RecomputeTotal(ctx context.Context, recordID uint) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commitLocked(recordID, nil), nil
}

func (m *memoryClubMovementRepo) commitLocked(recordID uint, audit *models.EvaluationAuditLog) float64 {
	var total float64
	for _, line := range m.lines {
		if line.ClubMovementRecordID == recordID {
			total += line.Score
		}
	}
	if record, ok := m.records[recordID]; ok {
		record.TotalScore = total
	}
	if audit != nil {
		audit.RecordType = models.TargetClub
		audit.RecordID = recordID
		audit.ID = uint(len(m.audits) + 1)
		m.audits = append(m.audits, *audit)
	}
	return total
}

// capturePublisher records published score events.
type capturePublisher struct {
	mu     sync.Mutex
	events []dto.ScoreEvent
}

func (p *capturePublisher) PublishScoreEvent(ctx context.Context, event dto.ScoreEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) all() []dto.ScoreEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dto.ScoreEvent(nil), p.events...)
}

// captureBoards records leaderboard invalidations.
type captureBoards struct {
	mu       sync.Mutex
	students []uint
	clubs    [][2]int
}

func (b *captureBoards) InvalidateStudentBoard(ctx context.Context, semesterID uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.students = append(b.students, semesterID)
}

func (b *captureBoards) InvalidateClubBoard(ctx context.Context, semesterID uint, month int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clubs = append(b.clubs, [2]int{int(semesterID), month})
}
