package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/virtuclass/classroom-api/internal/models"
)

// TeacherRepository manages persistence for teacher accounts.
type TeacherRepository struct {
	col *mongo.Collection
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *mongo.Database) *TeacherRepository {
	return &TeacherRepository{col: db.Collection("teachers")}
}

// Insert stores a new teacher account.
func (r *TeacherRepository) Insert(ctx context.Context, teacher *models.Teacher) error {
	if _, err := r.col.InsertOne(ctx, teacher); err != nil {
		return fmt.Errorf("insert teacher %s: %w", teacher.Email, err)
	}
	return nil
}

// Update applies the provided profile changes and returns the updated
// account. Returns mongo.ErrNoDocuments when absent.
func (r *TeacherRepository) Update(ctx context.Context, email string, update models.TeacherUpdate) (*models.Teacher, error) {
	set := bson.M{}
	if update.FirstName != nil {
		set["firstName"] = *update.FirstName
	}
	if update.LastName != nil {
		set["lastName"] = *update.LastName
	}
	if update.PasswordHash != nil {
		set["passwordHash"] = *update.PasswordHash
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no updatable fields provided")
	}

	var teacher models.Teacher
	err := r.col.FindOneAndUpdate(ctx, bson.M{"email": email}, bson.M{"$set": set}, optionsAfter()).Decode(&teacher)
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByEmail fetches a teacher account. Returns mongo.ErrNoDocuments when
// absent.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	var teacher models.Teacher
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&teacher)
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}
