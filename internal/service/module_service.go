package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/virtuclass/classroom-api/internal/models"
	appErrors "github.com/virtuclass/classroom-api/pkg/errors"
	"github.com/virtuclass/classroom-api/pkg/export"
)

type gradingStudentReader interface {
	FindByUsername(ctx context.Context, username string) (*models.Student, error)
}

type gradingModuleRepository interface {
	FindBySectionAndModule(ctx context.Context, sectionID, moduleID string) ([]models.SectionModule, error)
	UpdateStudentScore(ctx context.Context, sectionModuleID string, index int, score int, ts time.Time) error
	UpdateStudentProgress(ctx context.Context, sectionModuleID string, index int, progress int, progressCompleted string) error
}

// RecordScoreRequest describes a quiz score submission.
type RecordScoreRequest struct {
	ModuleID string `json:"moduleID" validate:"required"`
	Score    *int   `json:"score" validate:"required"`
}

// RecordProgressRequest describes a module progress submission.
type RecordProgressRequest struct {
	ModuleID string `json:"moduleID" validate:"required"`
	Progress *int   `json:"progress" validate:"required"`
}

// ScoreReceipt echoes a recorded quiz score.
type ScoreReceipt struct {
	Username       string    `json:"username"`
	SectionID      string    `json:"sectionID"`
	ModuleID       string    `json:"moduleID"`
	Score          int       `json:"score"`
	Status         string    `json:"status"`
	ScoreTimestamp time.Time `json:"scoreTimestamp"`
}

// ProgressReceipt echoes a recorded progress update.
type ProgressReceipt struct {
	Username          string `json:"username"`
	SectionID         string `json:"sectionID"`
	ModuleID          string `json:"moduleID"`
	Progress          int    `json:"progress"`
	ProgressCompleted string `json:"progressCompleted"`
}

// ExportArtifact is a rendered quiz result export.
type ExportArtifact struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ModuleService handles grading: quiz scores, progress percentages and the
// per-section quiz reports. The authoritative sectionID for a grading call is
// always derived from the student's current canonical record, never from the
// request; a score submitted while that student is being migrated can land in
// the section the record pointed at when the call began.
type ModuleService struct {
	students  gradingStudentReader
	modules   gradingModuleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewModuleService constructs ModuleService.
func NewModuleService(students gradingStudentReader, modules gradingModuleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ModuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleService{students: students, modules: modules, cache: cache, validator: validate, logger: logger}
}

// RecordScore writes a quiz score into the student's roster entry for the
// module, transitioning the entry to completed and stamping the submission
// time. The entry is located by positional index from a prior read; the write
// is not safe against a concurrent roster reorder on the same record.
func (s *ModuleService) RecordScore(ctx context.Context, username string, req RecordScoreRequest) (*ScoreReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "score must be a non-empty integer")
	}
	if !models.IsValidModuleID(req.ModuleID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "moduleID should be valid")
	}

	row, idx, err := s.locateEntry(ctx, username, req.ModuleID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.modules.UpdateStudentScore(ctx, row.SectionModuleID, idx, *req.Score, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to record score")
	}

	s.cache.Invalidate(ctx, quizCachePattern(row.SectionID))

	s.logger.Info("score recorded",
		zap.String("username", username),
		zap.String("sectionID", row.SectionID),
		zap.String("moduleID", req.ModuleID),
		zap.Int("score", *req.Score))
	return &ScoreReceipt{
		Username:       username,
		SectionID:      row.SectionID,
		ModuleID:       req.ModuleID,
		Score:          *req.Score,
		Status:         models.ProgressStatusCompleted,
		ScoreTimestamp: now,
	}, nil
}

// RecordProgress writes a completion percentage into the student's roster
// entry for the module. Exactly 100 stamps today's date into
// progressCompleted; any other integer reports the not-completed sentinel.
// Values outside 0-100 are accepted as-is.
func (s *ModuleService) RecordProgress(ctx context.Context, username string, req RecordProgressRequest) (*ProgressReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "progress must be a non-empty integer")
	}
	if !models.IsValidModuleID(req.ModuleID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "moduleID should be valid")
	}

	row, idx, err := s.locateEntry(ctx, username, req.ModuleID)
	if err != nil {
		return nil, err
	}

	progressCompleted := models.ProgressNotCompleted
	if *req.Progress == 100 {
		progressCompleted = time.Now().UTC().Format("2006-01-02")
	}

	if err := s.modules.UpdateStudentProgress(ctx, row.SectionModuleID, idx, *req.Progress, progressCompleted); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to record progress")
	}

	s.cache.Invalidate(ctx, quizCachePattern(row.SectionID))

	return &ProgressReceipt{
		Username:          username,
		SectionID:         row.SectionID,
		ModuleID:          req.ModuleID,
		Progress:          *req.Progress,
		ProgressCompleted: progressCompleted,
	}, nil
}

// QuizResults builds the per-module quiz report for a section. Legacy module
// records without a teacher stamp remain accessible; stamped records must
// match the calling teacher.
func (s *ModuleService) QuizResults(ctx context.Context, sectionID, moduleID, teacherEmail string) (*models.QuizResultSet, error) {
	if !models.IsValidModuleID(moduleID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "moduleID should be valid")
	}
	if strings.TrimSpace(sectionID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sectionID is required")
	}

	// The key is scoped per teacher so a warm cache cannot hand one
	// teacher's report to another.
	key := quizCacheKey(sectionID, moduleID, teacherEmail)
	var cached models.QuizResultSet
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	rows, err := s.modules.FindBySectionAndModule(ctx, sectionID, moduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load module")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no matching module found for given sectionID and moduleID")
	}

	var row *models.SectionModule
	for i := range rows {
		if teacherEmail == "" || rows[i].TeacherEmail == "" || rows[i].TeacherEmail == teacherEmail {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "module not accessible for this teacher")
	}

	results := make([]models.QuizResult, 0, len(row.Students))
	for _, entry := range row.Students {
		result := models.QuizResult{
			Username:          entry.Username,
			FirstName:         entry.FirstName,
			LastName:          entry.LastName,
			Progress:          entry.Progress,
			ProgressCompleted: entry.ProgressCompleted,
			UpdatedAt:         entry.ScoreTimestamp,
		}
		if entry.MiddleName != nil {
			result.MiddleName = *entry.MiddleName
		}
		if entry.Score == nil && entry.Status == models.ProgressStatusNotStarted {
			result.Status = models.ProgressStatusNotStarted
		} else {
			result.Score = entry.Score
			result.Status = models.ProgressStatusCompleted
		}
		results = append(results, result)
	}

	set := &models.QuizResultSet{
		SectionID:   row.SectionID,
		ModuleID:    row.ModuleID,
		Title:       row.Title,
		SectionName: row.SectionName,
		Results:     results,
	}
	s.cache.Set(ctx, key, set)
	return set, nil
}

// ExportQuizResults renders the quiz report as CSV or PDF.
func (s *ModuleService) ExportQuizResults(ctx context.Context, sectionID, moduleID, teacherEmail, format string) (*ExportArtifact, error) {
	set, err := s.QuizResults(ctx, sectionID, moduleID, teacherEmail)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   fmt.Sprintf("%s / %s quiz results", set.SectionName, set.Title),
		Headers: []string{"Username", "First Name", "Last Name", "Score", "Status", "Progress", "Progress Completed"},
	}
	for _, result := range set.Results {
		score := ""
		if result.Score != nil {
			score = fmt.Sprintf("%d", *result.Score)
		}
		table.Rows = append(table.Rows, []string{
			result.Username,
			result.FirstName,
			result.LastName,
			score,
			result.Status,
			fmt.Sprintf("%d", result.Progress),
			result.ProgressCompleted,
		})
	}

	base := fmt.Sprintf("quiz-results-%s-%s", set.SectionID, set.ModuleID)
	switch strings.ToLower(format) {
	case "csv", "":
		data, err := export.NewCSVExporter().Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportArtifact{Data: data, Filename: base + ".csv", ContentType: "text/csv"}, nil
	case "pdf":
		data, err := export.NewPDFExporter().Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportArtifact{Data: data, Filename: base + ".pdf", ContentType: "application/pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// locateEntry resolves the student's current section from the canonical
// record, scans for the unique (sectionID, moduleID) record and returns it
// with the positional index of the student's roster entry.
func (s *ModuleService) locateEntry(ctx context.Context, username, moduleID string) (*models.SectionModule, int, error) {
	student, err := s.students.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load student")
	}

	rows, err := s.modules.FindBySectionAndModule(ctx, student.SectionID, moduleID)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load module")
	}
	if len(rows) == 0 {
		return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "no matching module found for given sectionID and moduleID")
	}

	// (sectionID, moduleID) is unique by construction; take the first match.
	row := &rows[0]
	idx := row.RosterIndex(username)
	if idx < 0 {
		return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "student not found in module")
	}
	return row, idx, nil
}

func quizCacheKey(sectionID, moduleID, teacherEmail string) string {
	return fmt.Sprintf("quiz:%s:%s:%s", sectionID, moduleID, teacherEmail)
}

func quizCachePattern(sectionID string) string {
	return fmt.Sprintf("quiz:%s:*", sectionID)
}
