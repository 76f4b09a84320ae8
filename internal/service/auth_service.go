package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/virtuclass/classroom-api/internal/models"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
)

type authTeacherRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	Insert(ctx context.Context, teacher *models.Teacher) error
}

type authStudentReader interface {
	FindByUsername(ctx context.Context, username string) (*models.Student, error)
}

type authModuleReader interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.SectionModule, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
}

// AuthService issues and validates principals for the roster operations.
type AuthService struct {
	teachers  authTeacherRepository
	students  authStudentReader
	modules   authModuleReader
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(teachers authTeacherRepository, students authStudentReader, modules authModuleReader, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Expiry <= 0 {
		config.Expiry = time.Hour
	}
	return &AuthService{teachers: teachers, students: students, modules: modules, validator: validate, logger: logger, config: config}
}

// SignupTeacher registers a teacher account with a bcrypt password hash.
func (s *AuthService) SignupTeacher(ctx context.Context, req models.TeacherSignupRequest) (*models.TeacherInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.teachers.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(req.Password)), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	teacher := &models.Teacher{
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.teachers.Insert(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create teacher")
	}

	s.logger.Info("teacher registered", zap.String("email", email))
	return &models.TeacherInfo{Email: teacher.Email, FirstName: teacher.FirstName, LastName: teacher.LastName}, nil
}

// LoginTeacher authenticates a teacher and returns an issued token.
func (s *AuthService) LoginTeacher(ctx context.Context, req models.TeacherLoginRequest) (*models.TeacherLoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email and password are required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	teacher, err := s.teachers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load teacher")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(strings.TrimSpace(req.Password))); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, err := s.generateToken(teacher.Email, models.RoleTeacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.TeacherLoginResponse{
		Token:   token,
		Teacher: models.TeacherInfo{Email: teacher.Email, FirstName: teacher.FirstName, LastName: teacher.LastName},
	}, nil
}

// LoginStudent authenticates a student and returns their profile together
// with the per-module progress view of their section.
func (s *AuthService) LoginStudent(ctx context.Context, req models.StudentLoginRequest) (*models.StudentLoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password are required")
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	student, err := s.students.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load student")
	}

	if student.Password != strings.TrimSpace(req.Password) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}

	if student.SectionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not assigned to any section")
	}

	mods, err := s.modules.ListBySection(ctx, student.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load section modules")
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Order < mods[j].Order })

	views := make([]models.StudentModuleView, 0, len(mods))
	for _, mod := range mods {
		view := models.StudentModuleView{
			SectionModuleID: mod.SectionModuleID,
			ModuleID:        mod.ModuleID,
			Title:           mod.Title,
			Unlocked:        mod.Unlocked,
			Order:           mod.Order,
			Progress:        models.StudentModuleProgress{Status: models.ProgressStatusNotStarted},
		}
		if idx := mod.RosterIndex(username); idx >= 0 {
			entry := mod.Students[idx]
			view.Progress = models.StudentModuleProgress{
				Score:    entry.Score,
				Status:   entry.Status,
				Progress: entry.Progress,
			}
		}
		views = append(views, view)
	}

	sectionName := student.SectionName
	if len(mods) > 0 {
		sectionName = mods[0].SectionName
	}

	token, err := s.generateToken(student.Username, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.StudentLoginResponse{
		Token: token,
		Student: models.StudentInfo{
			Username:    student.Username,
			FirstName:   student.FirstName,
			LastName:    student.LastName,
			MiddleName:  student.MiddleName,
			Name:        student.FullName(),
			SectionName: sectionName,
			Modules:     views,
		},
	}, nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(token string) (*models.AuthClaims, error) {
	claims := &models.AuthClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) generateToken(subject, role string) (string, error) {
	now := time.Now().UTC()
	claims := models.AuthClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}
