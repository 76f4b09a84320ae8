package service

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/virtuclass/classroom-api/internal/models"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
)

type teacherProfileRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	Update(ctx context.Context, email string, update models.TeacherUpdate) (*models.Teacher, error)
}

// UpdateTeacherRequest describes a partial teacher profile update. Nil or
// empty fields keep the stored values.
type UpdateTeacherRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Password  *string `json:"password"`
}

// TeacherService owns the teacher's own profile surface. The account key
// (email) never changes; only names and the password can.
type TeacherService struct {
	teachers teacherProfileRepository
	logger   *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(teachers teacherProfileRepository, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{teachers: teachers, logger: logger}
}

// Get returns the public view of the teacher's own account.
func (s *TeacherService) Get(ctx context.Context, email string) (*models.TeacherInfo, error) {
	teacher, err := s.teachers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load teacher")
	}
	return &models.TeacherInfo{Email: teacher.Email, FirstName: teacher.FirstName, LastName: teacher.LastName}, nil
}

// Update applies the provided profile changes and returns the updated view.
// A new password is hashed before it reaches the store.
func (s *TeacherService) Update(ctx context.Context, email string, req UpdateTeacherRequest) (*models.TeacherInfo, error) {
	update := models.TeacherUpdate{}
	if req.FirstName != nil {
		if v := strings.TrimSpace(*req.FirstName); v != "" {
			update.FirstName = &v
		}
	}
	if req.LastName != nil {
		if v := strings.TrimSpace(*req.LastName); v != "" {
			update.LastName = &v
		}
	}
	if req.Password != nil {
		if v := strings.TrimSpace(*req.Password); v != "" {
			if len(v) < 8 {
				return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(v), bcrypt.DefaultCost)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
			}
			hashed := string(hash)
			update.PasswordHash = &hashed
		}
	}
	if update.FirstName == nil && update.LastName == nil && update.PasswordHash == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no updatable fields provided")
	}

	teacher, err := s.teachers.Update(ctx, email, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to update teacher")
	}

	s.logger.Info("teacher profile updated", zap.String("email", email))
	return &models.TeacherInfo{Email: teacher.Email, FirstName: teacher.FirstName, LastName: teacher.LastName}, nil
}
