package models

import "time"

// TeacherUpdate carries the mutable teacher profile fields. Nil fields are
// left untouched.
type TeacherUpdate struct {
	FirstName    *string
	LastName     *string
	PasswordHash *string
}

// Teacher is a teacher account keyed by email.
type Teacher struct {
	Email        string    `bson:"email" json:"email"`
	FirstName    string    `bson:"firstName" json:"firstName"`
	LastName     string    `bson:"lastName" json:"lastName"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
