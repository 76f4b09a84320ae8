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

func (m *mockTeacherRepo) Update(ctx context.Context, email string, update models.TeacherUpdate) (*models.Teacher, error) {
	teacher, ok := m.teachers[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if update.FirstName != nil {
		teacher.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		teacher.LastName = *update.LastName
	}
	if update.PasswordHash != nil {
		teacher.PasswordHash = *update.PasswordHash
	}
	m.teachers[email] = teacher
	return &teacher, nil
}

func seededTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: map[string]models.Teacher{
		"t@school.edu": {
			Email: "t@school.edu", FirstName: "Tess", LastName: "Cruz",
			PasswordHash: "$2a$10$placeholder",
		},
	}}
}

func TestTeacherServiceGet(t *testing.T) {
	svc := NewTeacherService(seededTeacherRepo(), nil)

	info, err := svc.Get(context.Background(), "t@school.edu")
	require.NoError(t, err)
	assert.Equal(t, "t@school.edu", info.Email)
	assert.Equal(t, "Tess", info.FirstName)
	assert.Equal(t, "Cruz", info.LastName)
}

func TestTeacherServiceGetUnknown(t *testing.T) {
	svc := NewTeacherService(seededTeacherRepo(), nil)

	_, err := svc.Get(context.Background(), "ghost@school.edu")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTeacherServiceUpdateNames(t *testing.T) {
	teachers := seededTeacherRepo()
	svc := NewTeacherService(teachers, nil)

	first := "Teresa"
	info, err := svc.Update(context.Background(), "t@school.edu", UpdateTeacherRequest{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Teresa", info.FirstName)
	assert.Equal(t, "Cruz", info.LastName)
	assert.Equal(t, "Teresa", teachers.teachers["t@school.edu"].FirstName)
}

func TestTeacherServiceUpdatePassword(t *testing.T) {
	teachers := seededTeacherRepo()
	svc := NewTeacherService(teachers, nil)

	password := "brand-new-pass"
	_, err := svc.Update(context.Background(), "t@school.edu", UpdateTeacherRequest{Password: &password})
	require.NoError(t, err)

	stored := teachers.teachers["t@school.edu"].PasswordHash
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)))
}

func TestTeacherServiceUpdateShortPassword(t *testing.T) {
	svc := NewTeacherService(seededTeacherRepo(), nil)

	password := "short"
	_, err := svc.Update(context.Background(), "t@school.edu", UpdateTeacherRequest{Password: &password})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTeacherServiceUpdateNoFields(t *testing.T) {
	svc := NewTeacherService(seededTeacherRepo(), nil)

	empty := "   "
	_, err := svc.Update(context.Background(), "t@school.edu", UpdateTeacherRequest{FirstName: &empty})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTeacherServiceUpdateUnknown(t *testing.T) {
	svc := NewTeacherService(seededTeacherRepo(), nil)

	first := "Teresa"
	_, err := svc.Update(context.Background(), "ghost@school.edu", UpdateTeacherRequest{FirstName: &first})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
