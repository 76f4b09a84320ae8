package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/virtuclass/classroom-api/internal/models"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
)

type mockTeacherRepo struct {
	teachers map[string]models.Teacher
}

func (m *mockTeacherRepo) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	if t, ok := m.teachers[email]; ok {
		return &t, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockTeacherRepo) Insert(ctx context.Context, teacher *models.Teacher) error {
	if m.teachers == nil {
		m.teachers = make(map[string]models.Teacher)
	}
	m.teachers[teacher.Email] = *teacher
	return nil
}

func newAuthService(teachers *mockTeacherRepo, students *mockStudentRepo, modules *mockModuleRepo) *AuthService {
	return NewAuthService(teachers, students, modules, nil, nil, AuthConfig{Secret: "test-secret"})
}

func TestAuthServiceSignupTeacher(t *testing.T) {
	teachers := &mockTeacherRepo{}
	svc := newAuthService(teachers, &mockStudentRepo{}, &mockModuleRepo{})

	info, err := svc.SignupTeacher(context.Background(), models.TeacherSignupRequest{
		Email:     "T@School.edu",
		Password:  "password123",
		FirstName: "Tess",
		LastName:  "Cruz",
	})
	require.NoError(t, err)
	assert.Equal(t, "t@school.edu", info.Email)

	stored := teachers.teachers["t@school.edu"]
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))
}

func TestAuthServiceSignupDuplicateEmail(t *testing.T) {
	teachers := &mockTeacherRepo{teachers: map[string]models.Teacher{
		"t@school.edu": {Email: "t@school.edu"},
	}}
	svc := newAuthService(teachers, &mockStudentRepo{}, &mockModuleRepo{})

	_, err := svc.SignupTeacher(context.Background(), models.TeacherSignupRequest{
		Email:     "t@school.edu",
		Password:  "password123",
		FirstName: "Tess",
		LastName:  "Cruz",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestAuthServiceLoginTeacher(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	teachers := &mockTeacherRepo{teachers: map[string]models.Teacher{
		"t@school.edu": {Email: "t@school.edu", FirstName: "Tess", LastName: "Cruz", PasswordHash: string(hash)},
	}}
	svc := newAuthService(teachers, &mockStudentRepo{}, &mockModuleRepo{})

	login, err := svc.LoginTeacher(context.Background(), models.TeacherLoginRequest{
		Email: "t@school.edu", Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "Tess", login.Teacher.FirstName)

	claims, err := svc.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "t@school.edu", claims.Subject)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceLoginTeacherWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	teachers := &mockTeacherRepo{teachers: map[string]models.Teacher{
		"t@school.edu": {Email: "t@school.edu", PasswordHash: string(hash)},
	}}
	svc := newAuthService(teachers, &mockStudentRepo{}, &mockModuleRepo{})

	_, err = svc.LoginTeacher(context.Background(), models.TeacherLoginRequest{
		Email: "t@school.edu", Password: "wrong-password",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginStudent(t *testing.T) {
	students := &mockStudentRepo{students: map[string]models.Student{
		"jdoe": {Username: "jdoe", FirstName: "John", LastName: "Doe", Password: "secretpw1", SectionID: "sec1", SectionName: "Rizal", TeacherEmail: "t@school.edu"},
	}}
	modules := &mockModuleRepo{mods: sectionModules("sec1", "Rizal", "t@school.edu")}
	score := 87
	mod := modules.mods["sec1-mod1"]
	mod.Students = []models.StudentProgress{{
		Username: "jdoe", Score: &score, Status: models.ProgressStatusCompleted, Progress: 100,
	}}
	modules.mods["sec1-mod1"] = mod

	svc := newAuthService(&mockTeacherRepo{}, students, modules)

	login, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{
		Username: "JDoe", Password: "secretpw1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "Rizal", login.Student.SectionName)
	require.Len(t, login.Student.Modules, 4)

	// Views are ordered by module order, with roster progress merged in.
	assert.Equal(t, "mod1", login.Student.Modules[0].ModuleID)
	require.NotNil(t, login.Student.Modules[0].Progress.Score)
	assert.Equal(t, 87, *login.Student.Modules[0].Progress.Score)
	assert.Equal(t, models.ProgressStatusCompleted, login.Student.Modules[0].Progress.Status)
	assert.Equal(t, "mod4", login.Student.Modules[3].ModuleID)
	assert.Equal(t, models.ProgressStatusNotStarted, login.Student.Modules[3].Progress.Status)

	claims, err := svc.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", claims.Subject)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginStudentWrongPassword(t *testing.T) {
	students := &mockStudentRepo{students: map[string]models.Student{
		"jdoe": {Username: "jdoe", Password: "secretpw1", SectionID: "sec1"},
	}}
	svc := newAuthService(&mockTeacherRepo{}, students, &mockModuleRepo{})

	_, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{
		Username: "jdoe", Password: "wrong",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginStudentUnassigned(t *testing.T) {
	students := &mockStudentRepo{students: map[string]models.Student{
		"jdoe": {Username: "jdoe", Password: "secretpw1"},
	}}
	svc := newAuthService(&mockTeacherRepo{}, students, &mockModuleRepo{})

	_, err := svc.LoginStudent(context.Background(), models.StudentLoginRequest{
		Username: "jdoe", Password: "secretpw1",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockTeacherRepo{}, &mockStudentRepo{}, &mockModuleRepo{})

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceValidateTokenForeignSecret(t *testing.T) {
	issuer := newAuthService(&mockTeacherRepo{}, &mockStudentRepo{}, &mockModuleRepo{})
	token, err := issuer.generateToken("t@school.edu", models.RoleTeacher)
	require.NoError(t, err)

	other := NewAuthService(&mockTeacherRepo{}, &mockStudentRepo{}, &mockModuleRepo{}, nil, nil, AuthConfig{Secret: "different-secret"})
	_, err = other.ValidateToken(token)
	require.Error(t, err)
}
