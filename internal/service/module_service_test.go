package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtuclass/classroom-api/internal/models"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
)

func gradedSection() (*mockStudentRepo, *mockModuleRepo) {
	students := &mockStudentRepo{students: map[string]models.Student{
		"jdoe":   {Username: "jdoe", FirstName: "John", LastName: "Doe", SectionID: "sec1", SectionName: "Rizal", TeacherEmail: "t@school.edu"},
		"asmith": {Username: "asmith", FirstName: "Anna", LastName: "Smith", SectionID: "sec1", SectionName: "Rizal", TeacherEmail: "t@school.edu"},
	}}
	modules := &mockModuleRepo{mods: sectionModules("sec1", "Rizal", "t@school.edu")}
	for id, mod := range modules.mods {
		mod.Students = []models.StudentProgress{
			{Username: "jdoe", FirstName: "John", LastName: "Doe", Status: models.ProgressStatusNotStarted, ProgressCompleted: models.ProgressNotCompleted},
			{Username: "asmith", FirstName: "Anna", LastName: "Smith", Status: models.ProgressStatusNotStarted, ProgressCompleted: models.ProgressNotCompleted},
		}
		modules.mods[id] = mod
	}
	return students, modules
}

func TestModuleServiceRecordScore(t *testing.T) {
	students, modules := gradedSection()
	svc := NewModuleService(students, modules, nil, nil, nil)

	score := 87
	receipt, err := svc.RecordScore(context.Background(), "jdoe", RecordScoreRequest{ModuleID: "mod2", Score: &score})
	require.NoError(t, err)
	assert.Equal(t, "sec1", receipt.SectionID)
	assert.Equal(t, 87, receipt.Score)
	assert.Equal(t, models.ProgressStatusCompleted, receipt.Status)
	assert.False(t, receipt.ScoreTimestamp.IsZero())

	mod := modules.mods["sec1-mod2"]
	require.NotNil(t, mod.Students[0].Score)
	assert.Equal(t, 87, *mod.Students[0].Score)
	assert.Equal(t, models.ProgressStatusCompleted, mod.Students[0].Status)
	assert.NotNil(t, mod.Students[0].ScoreTimestamp)

	// The other entry and the other modules stay untouched.
	assert.Nil(t, mod.Students[1].Score)
	assert.Nil(t, modules.mods["sec1-mod1"].Students[0].Score)
}

func TestModuleServiceRecordScoreInvalidModule(t *testing.T) {
	students, modules := gradedSection()
	svc := NewModuleService(students, modules, nil, nil, nil)

	score := 50
	_, err := svc.RecordScore(context.Background(), "jdoe", RecordScoreRequest{ModuleID: "mod9", Score: &score})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestModuleServiceRecordScoreUnknownStudent(t *testing.T) {
	students, modules := gradedSection()
	svc := NewModuleService(students, modules, nil, nil, nil)

	score := 50
	_, err := svc.RecordScore(context.Background(), "ghost", RecordScoreRequest{ModuleID: "mod1", Score: &score})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestModuleServiceRecordProgressComplete(t *testing.T) {
	students, modules := gradedSection()
	svc := NewModuleService(students, modules, nil, nil, nil)

	progress := 100
	receipt, err := svc.RecordProgress(context.Background(), "jdoe", RecordProgressRequest{ModuleID: "mod1", Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, 100, receipt.Progress)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), receipt.ProgressCompleted)

	mod := modules.mods["sec1-mod1"]
	assert.Equal(t, 100, mod.Students[0].Progress)
	assert.Equal(t, receipt.ProgressCompleted, mod.Students[0].ProgressCompleted)
}

func TestModuleServiceRecordProgressPartial(t *testing.T) {
	students, modules := gradedSection()
	svc := NewModuleService(students, modules, nil, nil, nil)

	progress := 60
	receipt, err := svc.RecordProgress(context.Background(), "jdoe", RecordProgressRequest{ModuleID: "mod1", Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, 60, receipt.Progress)
	assert.Equal(t, models.ProgressNotCompleted, receipt.ProgressCompleted)
}

func TestModuleServiceQuizResults(t *testing.T) {
	students, modules := gradedSection()
	score := 92
	ts := time.Now().UTC()
	mod := modules.mods["sec1-mod2"]
	mod.Students[0].Score = &score
	mod.Students[0].Status = models.ProgressStatusCompleted
	mod.Students[0].ScoreTimestamp = &ts
	modules.mods["sec1-mod2"] = mod

	svc := NewModuleService(students, modules, nil, nil, nil)

	set, err := svc.QuizResults(context.Background(), "sec1", "mod2", "t@school.edu")
	require.NoError(t, err)
	assert.Equal(t, "Volcano", set.Title)
	assert.Equal(t, "Rizal", set.SectionName)
	require.Len(t, set.Results, 2)

	require.NotNil(t, set.Results[0].Score)
	assert.Equal(t, 92, *set.Results[0].Score)
	assert.Equal(t, models.ProgressStatusCompleted, set.Results[0].Status)

	assert.Nil(t, set.Results[1].Score)
	assert.Equal(t, models.ProgressStatusNotStarted, set.Results[1].Status)
}

func TestModuleServiceQuizResultsUnknownModule(t *testing.T) {
	students, modules := gradedSection()
	svc := NewModuleService(students, modules, nil, nil, nil)

	_, err := svc.QuizResults(context.Background(), "ghost", "mod1", "t@school.edu")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestModuleServiceQuizResultsForeignTeacher(t *testing.T) {
	students, modules := gradedSection()
	svc := NewModuleService(students, modules, nil, nil, nil)

	_, err := svc.QuizResults(context.Background(), "sec1", "mod1", "other@school.edu")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestModuleServiceQuizResultsForeignTeacherWarmCache(t *testing.T) {
	students, modules := gradedSection()
	cacheRepo := &mockCacheRepo{entries: map[string][]byte{}}
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, nil, true)
	svc := NewModuleService(students, modules, cache, nil, nil)

	// The owning teacher populates the cache first.
	_, err := svc.QuizResults(context.Background(), "sec1", "mod1", "t@school.edu")
	require.NoError(t, err)
	require.Contains(t, cacheRepo.entries, "quiz:sec1:mod1:t@school.edu")

	// Another teacher must still be turned away.
	_, err = svc.QuizResults(context.Background(), "sec1", "mod1", "other@school.edu")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestModuleServiceQuizResultsLegacyRow(t *testing.T) {
	students, modules := gradedSection()
	for id, mod := range modules.mods {
		mod.TeacherEmail = ""
		modules.mods[id] = mod
	}
	svc := NewModuleService(students, modules, nil, nil, nil)

	set, err := svc.QuizResults(context.Background(), "sec1", "mod1", "any@school.edu")
	require.NoError(t, err)
	assert.Len(t, set.Results, 2)
}

func TestModuleServiceQuizResultsCached(t *testing.T) {
	students, modules := gradedSection()
	cacheRepo := &mockCacheRepo{entries: map[string][]byte{}}
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, nil, true)
	svc := NewModuleService(students, modules, cache, nil, nil)

	first, err := svc.QuizResults(context.Background(), "sec1", "mod1", "t@school.edu")
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.entries, "quiz:sec1:mod1:t@school.edu")

	// Mutate the store behind the cache; the cached report must win.
	mod := modules.mods["sec1-mod1"]
	mod.Students = nil
	modules.mods["sec1-mod1"] = mod

	second, err := svc.QuizResults(context.Background(), "sec1", "mod1", "t@school.edu")
	require.NoError(t, err)
	assert.Equal(t, len(first.Results), len(second.Results))
}

func TestModuleServiceRecordScoreInvalidatesCache(t *testing.T) {
	students, modules := gradedSection()
	cacheRepo := &mockCacheRepo{entries: map[string][]byte{}}
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, nil, true)
	svc := NewModuleService(students, modules, cache, nil, nil)

	_, err := svc.QuizResults(context.Background(), "sec1", "mod1", "t@school.edu")
	require.NoError(t, err)
	require.Contains(t, cacheRepo.entries, "quiz:sec1:mod1:t@school.edu")

	score := 75
	_, err = svc.RecordScore(context.Background(), "jdoe", RecordScoreRequest{ModuleID: "mod1", Score: &score})
	require.NoError(t, err)
	assert.NotContains(t, cacheRepo.entries, "quiz:sec1:mod1:t@school.edu")
}

func TestModuleServiceExportCSV(t *testing.T) {
	students, modules := gradedSection()
	svc := NewModuleService(students, modules, nil, nil, nil)

	artifact, err := svc.ExportQuizResults(context.Background(), "sec1", "mod1", "t@school.edu", "csv")
	require.NoError(t, err)
	assert.Equal(t, "quiz-results-sec1-mod1.csv", artifact.Filename)
	assert.Equal(t, "text/csv", artifact.ContentType)

	body := string(artifact.Data)
	assert.Contains(t, body, "Username")
	assert.Contains(t, body, "jdoe")
	assert.Contains(t, body, "asmith")
}

func TestModuleServiceExportPDF(t *testing.T) {
	students, modules := gradedSection()
	svc := NewModuleService(students, modules, nil, nil, nil)

	artifact, err := svc.ExportQuizResults(context.Background(), "sec1", "mod1", "t@school.edu", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "quiz-results-sec1-mod1.pdf", artifact.Filename)
	assert.Equal(t, "application/pdf", artifact.ContentType)
	assert.True(t, strings.HasPrefix(string(artifact.Data), "%PDF"))
}

func TestModuleServiceExportUnknownFormat(t *testing.T) {
	students, modules := gradedSection()
	svc := NewModuleService(students, modules, nil, nil, nil)

	_, err := svc.ExportQuizResults(context.Background(), "sec1", "mod1", "t@school.edu", "xlsx")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

type mockCacheRepo struct {
	entries map[string][]byte
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}
