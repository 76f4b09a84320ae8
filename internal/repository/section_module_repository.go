package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/virtuclass/classroom-api/internal/models"
)

// SectionModuleRepository manages the denormalized roster shards. The store
// offers no cross-record atomicity: each call here mutates exactly one record,
// and read-modify-write cycles composed by callers are not isolated from
// concurrent writers.
type SectionModuleRepository struct {
	col *mongo.Collection
}

// NewSectionModuleRepository constructs a SectionModuleRepository.
func NewSectionModuleRepository(db *mongo.Database) *SectionModuleRepository {
	return &SectionModuleRepository{col: db.Collection("section_modules")}
}

// Insert stores a new section-module record.
func (r *SectionModuleRepository) Insert(ctx context.Context, module *models.SectionModule) error {
	if _, err := r.col.InsertOne(ctx, module); err != nil {
		return fmt.Errorf("insert section module %s: %w", module.SectionModuleID, err)
	}
	return nil
}

// ListBySection returns every module record for the given section.
func (r *SectionModuleRepository) ListBySection(ctx context.Context, sectionID string) ([]models.SectionModule, error) {
	cursor, err := r.col.Find(ctx, bson.M{"sectionID": sectionID})
	if err != nil {
		return nil, fmt.Errorf("list modules for section %s: %w", sectionID, err)
	}
	defer cursor.Close(ctx)

	var modules []models.SectionModule
	if err := cursor.All(ctx, &modules); err != nil {
		return nil, fmt.Errorf("decode modules for section %s: %w", sectionID, err)
	}
	return modules, nil
}

// FindBySectionAndModule scans for records matching the (sectionID, moduleID)
// pair. The pair is unique by construction; callers take the first match.
func (r *SectionModuleRepository) FindBySectionAndModule(ctx context.Context, sectionID, moduleID string) ([]models.SectionModule, error) {
	cursor, err := r.col.Find(ctx, bson.M{"sectionID": sectionID, "moduleID": moduleID})
	if err != nil {
		return nil, fmt.Errorf("find module %s in section %s: %w", moduleID, sectionID, err)
	}
	defer cursor.Close(ctx)

	var modules []models.SectionModule
	if err := cursor.All(ctx, &modules); err != nil {
		return nil, fmt.Errorf("decode module %s in section %s: %w", moduleID, sectionID, err)
	}
	return modules, nil
}

// AppendStudent pushes one roster entry onto the embedded list.
func (r *SectionModuleRepository) AppendStudent(ctx context.Context, sectionModuleID string, entry models.StudentProgress) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"sectionModuleID": sectionModuleID}, bson.M{
		"$push": bson.M{"students": entry},
	})
	if err != nil {
		return fmt.Errorf("append %s to roster %s: %w", entry.Username, sectionModuleID, err)
	}
	return nil
}

// ReplaceRoster overwrites the embedded list wholesale. A concurrent write to
// the same record between the caller's read and this write is lost.
func (r *SectionModuleRepository) ReplaceRoster(ctx context.Context, sectionModuleID string, students []models.StudentProgress) error {
	if students == nil {
		students = []models.StudentProgress{}
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"sectionModuleID": sectionModuleID}, bson.M{
		"$set": bson.M{"students": students},
	})
	if err != nil {
		return fmt.Errorf("replace roster %s: %w", sectionModuleID, err)
	}
	return nil
}

// UpdateStudentScore sets score, status and timestamp on the roster entry at
// the given positional index. The index comes from a prior read; a roster
// reordered in between makes this hit the wrong entry.
func (r *SectionModuleRepository) UpdateStudentScore(ctx context.Context, sectionModuleID string, index int, score int, ts time.Time) error {
	prefix := fmt.Sprintf("students.%d.", index)
	_, err := r.col.UpdateOne(ctx, bson.M{"sectionModuleID": sectionModuleID}, bson.M{
		"$set": bson.M{
			prefix + "score":          score,
			prefix + "status":         models.ProgressStatusCompleted,
			prefix + "scoreTimestamp": ts,
		},
	})
	if err != nil {
		return fmt.Errorf("update score on roster %s[%d]: %w", sectionModuleID, index, err)
	}
	return nil
}

// UpdateStudentProgress sets progress fields on the roster entry at the given
// positional index.
func (r *SectionModuleRepository) UpdateStudentProgress(ctx context.Context, sectionModuleID string, index int, progress int, progressCompleted string) error {
	prefix := fmt.Sprintf("students.%d.", index)
	_, err := r.col.UpdateOne(ctx, bson.M{"sectionModuleID": sectionModuleID}, bson.M{
		"$set": bson.M{
			prefix + "progress":          progress,
			prefix + "progressCompleted": progressCompleted,
		},
	})
	if err != nil {
		return fmt.Errorf("update progress on roster %s[%d]: %w", sectionModuleID, index, err)
	}
	return nil
}

// UpdateSectionName rewrites the denormalized section name on one record.
func (r *SectionModuleRepository) UpdateSectionName(ctx context.Context, sectionModuleID, sectionName string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"sectionModuleID": sectionModuleID}, bson.M{
		"$set": bson.M{"sectionName": sectionName},
	})
	if err != nil {
		return fmt.Errorf("update section name on %s: %w", sectionModuleID, err)
	}
	return nil
}

// Delete removes one section-module record.
func (r *SectionModuleRepository) Delete(ctx context.Context, sectionModuleID string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"sectionModuleID": sectionModuleID}); err != nil {
		return fmt.Errorf("delete section module %s: %w", sectionModuleID, err)
	}
	return nil
}
