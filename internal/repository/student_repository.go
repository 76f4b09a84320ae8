package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/virtuclass/classroom-api/internal/models"
)

// StudentRepository manages persistence for canonical student records.
type StudentRepository struct {
	col *mongo.Collection
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *mongo.Database) *StudentRepository {
	return &StudentRepository{col: db.Collection("students")}
}

// Insert stores a new student record.
func (r *StudentRepository) Insert(ctx context.Context, student *models.Student) error {
	if _, err := r.col.InsertOne(ctx, student); err != nil {
		return fmt.Errorf("insert student %s: %w", student.Username, err)
	}
	return nil
}

// FindByUsername fetches a student by username. Returns mongo.ErrNoDocuments
// when absent.
func (r *StudentRepository) FindByUsername(ctx context.Context, username string) (*models.Student, error) {
	var student models.Student
	err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&student)
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// Save overwrites the full student record.
func (r *StudentRepository) Save(ctx context.Context, student *models.Student) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"username": student.Username}, student)
	if err != nil {
		return fmt.Errorf("save student %s: %w", student.Username, err)
	}
	return nil
}

// UpdateSection rewrites only the section reference and its name cache.
func (r *StudentRepository) UpdateSection(ctx context.Context, username, sectionID, sectionName string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"username": username}, bson.M{
		"$set": bson.M{"sectionID": sectionID, "sectionName": sectionName},
	})
	if err != nil {
		return fmt.Errorf("update section for student %s: %w", username, err)
	}
	return nil
}

// Delete removes the student record.
func (r *StudentRepository) Delete(ctx context.Context, username string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"username": username}); err != nil {
		return fmt.Errorf("delete student %s: %w", username, err)
	}
	return nil
}

// ListByTeacher returns every student stamped with the teacher's email.
func (r *StudentRepository) ListByTeacher(ctx context.Context, teacherEmail string) ([]models.Student, error) {
	cursor, err := r.col.Find(ctx, bson.M{"teacherEmail": teacherEmail})
	if err != nil {
		return nil, fmt.Errorf("list students for %s: %w", teacherEmail, err)
	}
	defer cursor.Close(ctx)

	var students []models.Student
	if err := cursor.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("decode students for %s: %w", teacherEmail, err)
	}
	return students, nil
}

// ListBySection returns the teacher's students currently assigned to section.
func (r *StudentRepository) ListBySection(ctx context.Context, sectionID, teacherEmail string) ([]models.Student, error) {
	cursor, err := r.col.Find(ctx, bson.M{"sectionID": sectionID, "teacherEmail": teacherEmail})
	if err != nil {
		return nil, fmt.Errorf("list students in section %s: %w", sectionID, err)
	}
	defer cursor.Close(ctx)

	var students []models.Student
	if err := cursor.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("decode students in section %s: %w", sectionID, err)
	}
	return students, nil
}

// CountBySection counts students still referencing the section, regardless of
// owner. Used as the referential guard before section deletion.
func (r *StudentRepository) CountBySection(ctx context.Context, sectionID string) (int64, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"sectionID": sectionID})
	if err != nil {
		return 0, fmt.Errorf("count students in section %s: %w", sectionID, err)
	}
	return count, nil
}
