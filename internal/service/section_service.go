package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/virtuclass/classroom-api/internal/models"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
)

type sectionRepository interface {
	Insert(ctx context.Context, section *models.Section) error
	FindByID(ctx context.Context, sectionID string) (*models.Section, error)
	ExistsByName(ctx context.Context, sectionName, teacherEmail string) (bool, error)
	ListByTeacher(ctx context.Context, teacherEmail string, includeArchived bool) ([]models.Section, error)
	Update(ctx context.Context, sectionID string, update models.SectionUpdate) (*models.Section, error)
	Delete(ctx context.Context, sectionID string) error
}

type sectionModuleWriter interface {
	Insert(ctx context.Context, module *models.SectionModule) error
	ListBySection(ctx context.Context, sectionID string) ([]models.SectionModule, error)
	UpdateSectionName(ctx context.Context, sectionModuleID, sectionName string) error
	Delete(ctx context.Context, sectionModuleID string) error
}

type sectionStudentCounter interface {
	CountBySection(ctx context.Context, sectionID string) (int64, error)
}

// CreateSectionRequest describes section creation payload.
type CreateSectionRequest struct {
	SectionName string `json:"sectionName" validate:"required"`
}

// UpdateSectionRequest describes section update payload.
type UpdateSectionRequest struct {
	SectionName *string `json:"sectionName"`
	Archived    *bool   `json:"archived"`
}

// SectionService owns the section registry and its engine operations:
// bootstrap, rename propagation and the deletion cascade.
type SectionService struct {
	sections  sectionRepository
	modules   sectionModuleWriter
	students  sectionStudentCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(sections sectionRepository, modules sectionModuleWriter, students sectionStudentCounter, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{sections: sections, modules: modules, students: students, validator: validate, logger: logger}
}

// Create stamps a new section with the calling teacher and bootstraps the four
// fixed module records, each with an empty roster. Bootstrap is the only
// writer of module records, which is what keeps (sectionID, moduleID) unique.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest, teacherEmail string) (*models.Section, error) {
	if teacherEmail == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing teacher identity in token")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "sectionName is required")
	}
	sectionName := strings.TrimSpace(req.SectionName)
	if sectionName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sectionName cannot be empty")
	}

	exists, err := s.sections.ExistsByName(ctx, sectionName, teacherEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to check section name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "section already exists")
	}

	now := time.Now().UTC()
	section := &models.Section{
		SectionID:    uuid.NewString(),
		SectionName:  sectionName,
		TeacherEmail: teacherEmail,
		Archived:     false,
		CreatedAt:    now,
	}
	if err := s.sections.Insert(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create section")
	}

	for _, def := range models.DefaultModules {
		module := &models.SectionModule{
			SectionModuleID: uuid.NewString(),
			SectionID:       section.SectionID,
			ModuleID:        def.ModuleID,
			Title:           def.Title,
			Unlocked:        def.Unlocked,
			Order:           def.Order,
			SectionName:     sectionName,
			TeacherEmail:    teacherEmail,
			Students:        []models.StudentProgress{},
			CreatedAt:       now,
		}
		if err := s.modules.Insert(ctx, module); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to bootstrap section modules")
		}
	}

	s.logger.Info("section created",
		zap.String("sectionID", section.SectionID),
		zap.String("teacherEmail", teacherEmail))
	return section, nil
}

// Get returns one section by ID.
func (s *SectionService) Get(ctx context.Context, sectionID string) (*models.Section, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load section")
	}
	return section, nil
}

// List returns the teacher's sections, hiding archived ones unless asked.
func (s *SectionService) List(ctx context.Context, teacherEmail string, includeArchived bool) ([]models.Section, error) {
	if teacherEmail == "" {
		return []models.Section{}, nil
	}
	sections, err := s.sections.ListByTeacher(ctx, teacherEmail, includeArchived)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list sections")
	}
	if sections == nil {
		sections = []models.Section{}
	}
	return sections, nil
}

// Update applies name/archived changes. A non-empty new name is propagated to
// every module record of the section after the section record is updated; the
// student-side name cache is left stale until that student's record is next
// written.
func (s *SectionService) Update(ctx context.Context, sectionID string, req UpdateSectionRequest) (*models.Section, error) {
	update := models.SectionUpdate{Archived: req.Archived}
	var newName string
	if req.SectionName != nil {
		newName = strings.TrimSpace(*req.SectionName)
		if newName != "" {
			update.SectionName = &newName
		}
	}
	if update.SectionName == nil && update.Archived == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no updatable fields provided")
	}

	section, err := s.sections.Update(ctx, sectionID, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to update section")
	}

	if newName != "" {
		mods, err := s.modules.ListBySection(ctx, sectionID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load section modules")
		}
		for _, mod := range mods {
			if err := s.modules.UpdateSectionName(ctx, mod.SectionModuleID, newName); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to propagate section name")
			}
		}
	}

	return section, nil
}

// Delete removes a section and its module records. The referential guard runs
// first: any student still assigned blocks the whole cascade. Module records
// go before the section record, so a crash mid-cascade leaves inert orphaned
// rosters rather than a live section missing its modules.
func (s *SectionService) Delete(ctx context.Context, sectionID string) error {
	count, err := s.students.CountBySection(ctx, sectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to count section students")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "section has students, migrate or remove students before deleting")
	}

	mods, err := s.modules.ListBySection(ctx, sectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load section modules")
	}
	for _, mod := range mods {
		if err := s.modules.Delete(ctx, mod.SectionModuleID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to delete section module")
		}
	}

	if err := s.sections.Delete(ctx, sectionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to delete section")
	}

	s.logger.Info("section deleted", zap.String("sectionID", sectionID), zap.Int("modules", len(mods)))
	return nil
}
