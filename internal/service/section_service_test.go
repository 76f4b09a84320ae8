package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/virtuclass/classroom-api/internal/models"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
)

type mockSectionRepo struct {
	sections map[string]models.Section
	deleted  []string
}

func (m *mockSectionRepo) Insert(ctx context.Context, section *models.Section) error {
	if m.sections == nil {
		m.sections = make(map[string]models.Section)
	}
	m.sections[section.SectionID] = *section
	return nil
}

func (m *mockSectionRepo) FindByID(ctx context.Context, sectionID string) (*models.Section, error) {
	if s, ok := m.sections[sectionID]; ok {
		return &s, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockSectionRepo) ExistsByName(ctx context.Context, sectionName, teacherEmail string) (bool, error) {
	for _, s := range m.sections {
		if s.SectionName == sectionName && s.TeacherEmail == teacherEmail {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSectionRepo) ListByTeacher(ctx context.Context, teacherEmail string, includeArchived bool) ([]models.Section, error) {
	var list []models.Section
	for _, s := range m.sections {
		if s.TeacherEmail != teacherEmail {
			continue
		}
		if s.Archived && !includeArchived {
			continue
		}
		list = append(list, s)
	}
	return list, nil
}

func (m *mockSectionRepo) Update(ctx context.Context, sectionID string, update models.SectionUpdate) (*models.Section, error) {
	s, ok := m.sections[sectionID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if update.SectionName != nil {
		s.SectionName = *update.SectionName
	}
	if update.Archived != nil {
		s.Archived = *update.Archived
	}
	m.sections[sectionID] = s
	return &s, nil
}

func (m *mockSectionRepo) Delete(ctx context.Context, sectionID string) error {
	if _, ok := m.sections[sectionID]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.sections, sectionID)
	m.deleted = append(m.deleted, sectionID)
	return nil
}

func TestSectionServiceCreateBootstrapsModules(t *testing.T) {
	sections := &mockSectionRepo{}
	modules := &mockModuleRepo{mods: map[string]models.SectionModule{}}
	students := &mockStudentRepo{}
	svc := NewSectionService(sections, modules, students, nil, nil)

	section, err := svc.Create(context.Background(), CreateSectionRequest{SectionName: "Grade 4 - Rizal"}, "t@school.edu")
	require.NoError(t, err)
	assert.NotEmpty(t, section.SectionID)
	assert.Equal(t, "t@school.edu", section.TeacherEmail)
	assert.False(t, section.Archived)

	mods, err := modules.ListBySection(context.Background(), section.SectionID)
	require.NoError(t, err)
	require.Len(t, mods, 4)
	seen := map[string]bool{}
	for _, mod := range mods {
		seen[mod.ModuleID] = true
		assert.Equal(t, "Grade 4 - Rizal", mod.SectionName)
		assert.Equal(t, "t@school.edu", mod.TeacherEmail)
		assert.NotNil(t, mod.Students)
		assert.Empty(t, mod.Students)
	}
	for _, def := range models.DefaultModules {
		assert.True(t, seen[def.ModuleID])
	}
}

func TestSectionServiceCreateDuplicateName(t *testing.T) {
	sections := &mockSectionRepo{sections: map[string]models.Section{
		"sec1": {SectionID: "sec1", SectionName: "Rizal", TeacherEmail: "t@school.edu"},
	}}
	svc := NewSectionService(sections, &mockModuleRepo{}, &mockStudentRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateSectionRequest{SectionName: "Rizal"}, "t@school.edu")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestSectionServiceCreateMissingIdentity(t *testing.T) {
	svc := NewSectionService(&mockSectionRepo{}, &mockModuleRepo{}, &mockStudentRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateSectionRequest{SectionName: "Rizal"}, "")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestSectionServiceUpdateRenamePropagates(t *testing.T) {
	sections := &mockSectionRepo{sections: map[string]models.Section{
		"sec1": {SectionID: "sec1", SectionName: "Rizal", TeacherEmail: "t@school.edu"},
	}}
	modules := &mockModuleRepo{mods: sectionModules("sec1", "Rizal", "t@school.edu")}
	svc := NewSectionService(sections, modules, &mockStudentRepo{}, nil, nil)

	newName := "Bonifacio"
	section, err := svc.Update(context.Background(), "sec1", UpdateSectionRequest{SectionName: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Bonifacio", section.SectionName)

	for _, mod := range modules.mods {
		assert.Equal(t, "Bonifacio", mod.SectionName)
	}
}

func TestSectionServiceUpdateArchive(t *testing.T) {
	sections := &mockSectionRepo{sections: map[string]models.Section{
		"sec1": {SectionID: "sec1", SectionName: "Rizal", TeacherEmail: "t@school.edu"},
	}}
	modules := &mockModuleRepo{mods: sectionModules("sec1", "Rizal", "t@school.edu")}
	svc := NewSectionService(sections, modules, &mockStudentRepo{}, nil, nil)

	archived := true
	section, err := svc.Update(context.Background(), "sec1", UpdateSectionRequest{Archived: &archived})
	require.NoError(t, err)
	assert.True(t, section.Archived)

	// Archiving alone does not touch module records.
	for _, mod := range modules.mods {
		assert.Equal(t, "Rizal", mod.SectionName)
	}
}

func TestSectionServiceUpdateNoFields(t *testing.T) {
	svc := NewSectionService(&mockSectionRepo{}, &mockModuleRepo{}, &mockStudentRepo{}, nil, nil)

	_, err := svc.Update(context.Background(), "sec1", UpdateSectionRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSectionServiceDeleteCascade(t *testing.T) {
	sections := &mockSectionRepo{sections: map[string]models.Section{
		"sec1": {SectionID: "sec1", SectionName: "Rizal", TeacherEmail: "t@school.edu"},
	}}
	modules := &mockModuleRepo{mods: sectionModules("sec1", "Rizal", "t@school.edu")}
	svc := NewSectionService(sections, modules, &mockStudentRepo{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "sec1"))
	assert.Empty(t, modules.mods)
	assert.NotContains(t, sections.sections, "sec1")
}

func TestSectionServiceDeleteBlockedByStudents(t *testing.T) {
	sections := &mockSectionRepo{sections: map[string]models.Section{
		"sec1": {SectionID: "sec1", SectionName: "Rizal", TeacherEmail: "t@school.edu"},
	}}
	modules := &mockModuleRepo{mods: sectionModules("sec1", "Rizal", "t@school.edu")}
	students := &mockStudentRepo{students: map[string]models.Student{
		"jdoe": {Username: "jdoe", SectionID: "sec1", TeacherEmail: "t@school.edu"},
	}}
	svc := NewSectionService(sections, modules, students, nil, nil)

	err := svc.Delete(context.Background(), "sec1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	// Nothing was deleted.
	assert.Len(t, modules.mods, 4)
	assert.Contains(t, sections.sections, "sec1")
}

func TestSectionServiceListHidesArchived(t *testing.T) {
	sections := &mockSectionRepo{sections: map[string]models.Section{
		"sec1": {SectionID: "sec1", SectionName: "Rizal", TeacherEmail: "t@school.edu"},
		"sec2": {SectionID: "sec2", SectionName: "Bonifacio", TeacherEmail: "t@school.edu", Archived: true},
	}}
	svc := NewSectionService(sections, &mockModuleRepo{}, &mockStudentRepo{}, nil, nil)

	active, err := svc.List(context.Background(), "t@school.edu", false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "sec1", active[0].SectionID)

	all, err := svc.List(context.Background(), "t@school.edu", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
