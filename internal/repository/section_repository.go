package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/virtuclass/classroom-api/internal/models"
)

// SectionRepository manages persistence for section records.
type SectionRepository struct {
	col *mongo.Collection
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *mongo.Database) *SectionRepository {
	return &SectionRepository{col: db.Collection("sections")}
}

// Insert stores a new section record.
func (r *SectionRepository) Insert(ctx context.Context, section *models.Section) error {
	if _, err := r.col.InsertOne(ctx, section); err != nil {
		return fmt.Errorf("insert section %s: %w", section.SectionID, err)
	}
	return nil
}

// FindByID fetches a section by its ID. Returns mongo.ErrNoDocuments when
// absent.
func (r *SectionRepository) FindByID(ctx context.Context, sectionID string) (*models.Section, error) {
	var section models.Section
	err := r.col.FindOne(ctx, bson.M{"sectionID": sectionID}).Decode(&section)
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// ExistsByName reports whether the teacher already owns a section with name.
func (r *SectionRepository) ExistsByName(ctx context.Context, sectionName, teacherEmail string) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"sectionName": sectionName, "teacherEmail": teacherEmail})
	if err != nil {
		return false, fmt.Errorf("count sections named %q: %w", sectionName, err)
	}
	return count > 0, nil
}

// ListByTeacher returns the teacher's sections. Unless includeArchived is set,
// records with the archived flag are filtered out; records predating the flag
// count as active.
func (r *SectionRepository) ListByTeacher(ctx context.Context, teacherEmail string, includeArchived bool) ([]models.Section, error) {
	filter := bson.M{"teacherEmail": teacherEmail}
	if !includeArchived {
		filter["archived"] = bson.M{"$ne": true}
	}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sections for %s: %w", teacherEmail, err)
	}
	defer cursor.Close(ctx)

	var sections []models.Section
	if err := cursor.All(ctx, &sections); err != nil {
		return nil, fmt.Errorf("decode sections for %s: %w", teacherEmail, err)
	}
	return sections, nil
}

// Update applies the provided field changes and returns the updated record.
func (r *SectionRepository) Update(ctx context.Context, sectionID string, update models.SectionUpdate) (*models.Section, error) {
	set := bson.M{}
	if update.SectionName != nil {
		set["sectionName"] = *update.SectionName
	}
	if update.Archived != nil {
		set["archived"] = *update.Archived
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no updatable fields provided")
	}

	after := optionsAfter()
	var section models.Section
	err := r.col.FindOneAndUpdate(ctx, bson.M{"sectionID": sectionID}, bson.M{"$set": set}, after).Decode(&section)
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// Delete removes the section record.
func (r *SectionRepository) Delete(ctx context.Context, sectionID string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"sectionID": sectionID}); err != nil {
		return fmt.Errorf("delete section %s: %w", sectionID, err)
	}
	return nil
}
