package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/virtuclass/classroom-api/internal/models"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
)

type rosterStudentRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Student, error)
	Insert(ctx context.Context, student *models.Student) error
	UpdateSection(ctx context.Context, username, sectionID, sectionName string) error
	ListBySection(ctx context.Context, sectionID, teacherEmail string) ([]models.Student, error)
}

type rosterModuleRepository interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.SectionModule, error)
	AppendStudent(ctx context.Context, sectionModuleID string, entry models.StudentProgress) error
	ReplaceRoster(ctx context.Context, sectionModuleID string, students []models.StudentProgress) error
}

// ProvisionStudentRequest describes student provisioning payload.
type ProvisionStudentRequest struct {
	Username   string  `json:"username" validate:"required"`
	Password   string  `json:"password" validate:"required"`
	FirstName  string  `json:"firstName" validate:"required"`
	LastName   string  `json:"lastName" validate:"required"`
	MiddleName *string `json:"middleName"`
	SectionID  string  `json:"sectionID" validate:"required"`
}

// MigrateStudentsRequest describes a batch migration between two sections.
type MigrateStudentsRequest struct {
	FromSectionID string `json:"fromSectionID" validate:"required"`
	ToSectionID   string `json:"toSectionID" validate:"required"`
}

// RosterService is the roster synchronization engine. It translates student
// lifecycle events into sequential mutations across the student collection and
// the per-section-module roster shards. None of the multi-record sequences are
// transactional: a failure partway through leaves prior steps in place and is
// surfaced to the caller as-is.
type RosterService struct {
	students  rosterStudentRepository
	modules   rosterModuleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs RosterService.
func NewRosterService(students rosterStudentRepository, modules rosterModuleRepository, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{students: students, modules: modules, validator: validate, logger: logger}
}

// Provision registers a new student: one roster entry is appended to every
// module of the target section, then the canonical student record is written.
// The fan-out runs before the canonical write, so a crash mid-way leaves a
// partially rostered, not-yet-registered student.
func (s *RosterService) Provision(ctx context.Context, req ProvisionStudentRequest, teacherEmail string) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "firstName, lastName, username, sectionID and password are required")
	}

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	username := strings.ToLower(strings.TrimSpace(req.Username))
	password := strings.TrimSpace(req.Password)
	sectionID := strings.TrimSpace(req.SectionID)
	var middleName *string
	if req.MiddleName != nil {
		if trimmed := strings.TrimSpace(*req.MiddleName); trimmed != "" {
			middleName = &trimmed
		}
	}

	if firstName == "" || lastName == "" || username == "" || sectionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "first name, last name, username and sectionID cannot be empty")
	}
	if len(password) < 8 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters")
	}

	if _, err := s.students.FindByUsername(ctx, username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to check username")
	}

	mods, err := s.modules.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load section modules")
	}
	if len(mods) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "sectionID not existing in section-module table")
	}

	entry := models.StudentProgress{
		Username:          username,
		FirstName:         firstName,
		LastName:          lastName,
		MiddleName:        middleName,
		Score:             nil,
		Status:            models.ProgressStatusNotStarted,
		Progress:          0,
		ProgressCompleted: models.ProgressNotCompleted,
	}
	for _, mod := range mods {
		if err := s.modules.AppendStudent(ctx, mod.SectionModuleID, entry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to roster student")
		}
	}

	owner := mods[0].TeacherEmail
	if owner == "" {
		owner = teacherEmail
	}
	student := &models.Student{
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		MiddleName:   middleName,
		Password:     password,
		SectionID:    sectionID,
		SectionName:  mods[0].SectionName,
		TeacherEmail: owner,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.students.Insert(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create student")
	}

	s.logger.Info("student provisioned",
		zap.String("username", username),
		zap.String("sectionID", sectionID),
		zap.Int("modules", len(mods)))
	return student, nil
}

// MoveStudent re-sections one student: the old rosters are read to capture
// score/status carryover, the student is removed from every old roster, then
// appended to every destination roster with the carried values. Progress is
// not carried and resets to its default. Returns the destination section name
// for the caller to stamp on the canonical record. There is no rollback: a
// failure after removal leaves the student rostered nowhere.
func (s *RosterService) MoveStudent(ctx context.Context, username, firstName, lastName string, middleName *string, fromSectionID, toSectionID string) (string, error) {
	oldMods, err := s.modules.ListBySection(ctx, fromSectionID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load source section modules")
	}

	carry := carryoverByModule(oldMods, username)

	if err := s.removeFromRosters(ctx, oldMods, username); err != nil {
		return "", err
	}

	newMods, err := s.modules.ListBySection(ctx, toSectionID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load destination section modules")
	}
	if len(newMods) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "new sectionID not existing in section-module table")
	}

	if err := s.appendCarried(ctx, newMods, username, firstName, lastName, middleName, carry); err != nil {
		return "", err
	}

	s.logger.Info("student moved",
		zap.String("username", username),
		zap.String("from", fromSectionID),
		zap.String("to", toSectionID))
	return newMods[0].SectionName, nil
}

// MigrateBatch applies the single-student migration to every student the
// teacher owns in the source section. Per-student failures are collected and
// reported; they do not abort the batch.
func (s *RosterService) MigrateBatch(ctx context.Context, req MigrateStudentsRequest, teacherEmail string) (*models.MigrationReport, error) {
	if teacherEmail == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing teacher identity in token")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "fromSectionID and toSectionID are required")
	}

	from := strings.TrimSpace(req.FromSectionID)
	to := strings.TrimSpace(req.ToSectionID)
	if from == "" || to == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fromSectionID and toSectionID are required")
	}
	if from == to {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fromSectionID and toSectionID must be different")
	}

	students, err := s.students.ListBySection(ctx, from, teacherEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list students in source section")
	}

	// The destination module set is stable for the whole batch. The source
	// rosters shrink on every removal, so they are re-read per student; a
	// stale snapshot would rewrite already-removed students back in.
	newMods, err := s.modules.ListBySection(ctx, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load destination section modules")
	}
	if len(newMods) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "toSectionID not existing in section-module table")
	}

	report := &models.MigrationReport{Errors: []models.MigrationError{}}
	for _, st := range students {
		if err := s.migrateOne(ctx, st, from, newMods, to); err != nil {
			report.Errors = append(report.Errors, models.MigrationError{Username: st.Username, Error: err.Error()})
			continue
		}
		report.Migrated++
	}
	report.Failed = len(report.Errors)

	s.logger.Info("batch migration finished",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("migrated", report.Migrated),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *RosterService) migrateOne(ctx context.Context, st models.Student, fromSectionID string, newMods []models.SectionModule, toSectionID string) error {
	oldMods, err := s.modules.ListBySection(ctx, fromSectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load source section modules")
	}
	carry := carryoverByModule(oldMods, st.Username)

	if err := s.removeFromRosters(ctx, oldMods, st.Username); err != nil {
		return err
	}
	if err := s.appendCarried(ctx, newMods, st.Username, st.FirstName, st.LastName, st.MiddleName, carry); err != nil {
		return err
	}
	if err := s.students.UpdateSection(ctx, st.Username, toSectionID, newMods[0].SectionName); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to update student record")
	}
	return nil
}

// RemoveStudent drops the student's entry from every roster of the section.
func (s *RosterService) RemoveStudent(ctx context.Context, sectionID, username string) error {
	mods, err := s.modules.ListBySection(ctx, sectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load section modules")
	}
	return s.removeFromRosters(ctx, mods, username)
}

type carriedProgress struct {
	score  *int
	status string
}

// carryoverByModule captures score/status per moduleID for the student from a
// snapshot of the old section's rosters.
func carryoverByModule(mods []models.SectionModule, username string) map[string]carriedProgress {
	carry := make(map[string]carriedProgress)
	for _, mod := range mods {
		if idx := mod.RosterIndex(username); idx >= 0 {
			entry := mod.Students[idx]
			status := entry.Status
			if status == "" {
				status = models.ProgressStatusNotStarted
			}
			carry[mod.ModuleID] = carriedProgress{score: entry.Score, status: status}
		}
	}
	return carry
}

// removeFromRosters filters the student out of each embedded list and rewrites
// the list wholesale. Records that never contained the student are skipped.
func (s *RosterService) removeFromRosters(ctx context.Context, mods []models.SectionModule, username string) error {
	for _, mod := range mods {
		filtered := make([]models.StudentProgress, 0, len(mod.Students))
		for _, entry := range mod.Students {
			if entry.Username != username {
				filtered = append(filtered, entry)
			}
		}
		if len(filtered) == len(mod.Students) {
			continue
		}
		if err := s.modules.ReplaceRoster(ctx, mod.SectionModuleID, filtered); err != nil {
			return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to remove student from roster")
		}
	}
	return nil
}

// appendCarried adds the student to every destination roster, applying the
// carried score/status for matching modules and defaulting the rest.
func (s *RosterService) appendCarried(ctx context.Context, mods []models.SectionModule, username, firstName, lastName string, middleName *string, carry map[string]carriedProgress) error {
	for _, mod := range mods {
		carried, ok := carry[mod.ModuleID]
		if !ok {
			carried = carriedProgress{score: nil, status: models.ProgressStatusNotStarted}
		}
		entry := models.StudentProgress{
			Username:          username,
			FirstName:         firstName,
			LastName:          lastName,
			MiddleName:        middleName,
			Score:             carried.score,
			Status:            carried.status,
			Progress:          0,
			ProgressCompleted: models.ProgressNotCompleted,
		}
		if err := s.modules.AppendStudent(ctx, mod.SectionModuleID, entry); err != nil {
			return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to add student to roster")
		}
	}
	return nil
}
