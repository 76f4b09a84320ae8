package service

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/virtuclass/classroom-api/internal/models"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
)

type studentRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Student, error)
	Save(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, username string) error
	ListByTeacher(ctx context.Context, teacherEmail string) ([]models.Student, error)
}

type activeSectionLister interface {
	ListByTeacher(ctx context.Context, teacherEmail string, includeArchived bool) ([]models.Section, error)
}

// UpdateStudentRequest describes a partial student update. Nil or empty fields
// fall back to the stored values.
type UpdateStudentRequest struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	MiddleName *string `json:"middleName"`
	Password   *string `json:"password"`
	SectionID  *string `json:"sectionID"`
}

// StudentService owns the canonical student registry. Section changes are
// delegated to the roster engine before the canonical record is rewritten.
type StudentService struct {
	students studentRepository
	sections activeSectionLister
	roster   *RosterService
	logger   *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(students studentRepository, sections activeSectionLister, roster *RosterService, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, sections: sections, roster: roster, logger: logger}
}

// Get returns one student by username.
func (s *StudentService) Get(ctx context.Context, username string) (*models.Student, error) {
	student, err := s.students.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load student")
	}
	return student, nil
}

// List returns the teacher's assigned students. By default students whose
// section is archived are hidden; includeArchived shows every assigned
// student. Unassigned students are never listed.
func (s *StudentService) List(ctx context.Context, teacherEmail string, includeArchived bool) ([]models.Student, error) {
	if teacherEmail == "" {
		return []models.Student{}, nil
	}

	students, err := s.students.ListByTeacher(ctx, teacherEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list students")
	}

	filtered := make([]models.Student, 0, len(students))
	if includeArchived {
		for _, st := range students {
			if st.SectionID != "" {
				filtered = append(filtered, st)
			}
		}
		return filtered, nil
	}

	active, err := s.sections.ListByTeacher(ctx, teacherEmail, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list sections")
	}
	activeIDs := make(map[string]struct{}, len(active))
	for _, sec := range active {
		activeIDs[sec.SectionID] = struct{}{}
	}
	for _, st := range students {
		if st.SectionID == "" {
			continue
		}
		if _, ok := activeIDs[st.SectionID]; ok {
			filtered = append(filtered, st)
		}
	}
	return filtered, nil
}

// Update applies a partial update to the canonical record. When the update
// changes sectionID, the roster engine migrates the student first and the
// record is stamped with the destination section's name.
func (s *StudentService) Update(ctx context.Context, username string, req UpdateStudentRequest) (*models.Student, error) {
	existing, err := s.students.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load student")
	}

	firstName := existing.FirstName
	if req.FirstName != nil {
		if v := strings.TrimSpace(*req.FirstName); v != "" {
			firstName = v
		}
	}
	lastName := existing.LastName
	if req.LastName != nil {
		if v := strings.TrimSpace(*req.LastName); v != "" {
			lastName = v
		}
	}
	middleName := existing.MiddleName
	if req.MiddleName != nil {
		if v := strings.TrimSpace(*req.MiddleName); v != "" {
			middleName = &v
		} else {
			middleName = nil
		}
	}

	newSectionID := existing.SectionID
	if req.SectionID != nil {
		if v := strings.TrimSpace(*req.SectionID); v != "" {
			newSectionID = v
		}
	}

	// Only a move between sections goes through the roster engine. A
	// previously unassigned student is stamped with the new sectionID
	// without roster fan-out; their roster entries appear on the next move
	// or re-provisioning.
	if newSectionID != existing.SectionID {
		if existing.SectionID != "" {
			sectionName, err := s.roster.MoveStudent(ctx, username, firstName, lastName, middleName, existing.SectionID, newSectionID)
			if err != nil {
				return nil, err
			}
			existing.SectionName = sectionName
		}
		existing.SectionID = newSectionID
	}

	existing.FirstName = firstName
	existing.LastName = lastName
	existing.MiddleName = middleName
	if req.Password != nil {
		if v := strings.TrimSpace(*req.Password); v != "" {
			if len(v) < 8 {
				return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters")
			}
			existing.Password = v
		}
	}

	if err := s.students.Save(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to save student")
	}
	return existing, nil
}

// Delete removes the student's roster entries across their section's modules,
// then the canonical record.
func (s *StudentService) Delete(ctx context.Context, username string) error {
	existing, err := s.students.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load student")
	}

	if existing.SectionID != "" {
		if err := s.roster.RemoveStudent(ctx, existing.SectionID, username); err != nil {
			return err
		}
	}

	if err := s.students.Delete(ctx, username); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to delete student")
	}

	s.logger.Info("student deleted", zap.String("username", username))
	return nil
}
