package models

import "time"

// Section is a teacher-owned class grouping. TeacherEmail stamps ownership on
// every section from creation (soft multi-tenancy).
type Section struct {
	SectionID    string    `bson:"sectionID" json:"sectionID"`
	SectionName  string    `bson:"sectionName" json:"sectionName"`
	TeacherEmail string    `bson:"teacherEmail" json:"teacherEmail"`
	Archived     bool      `bson:"archived" json:"archived"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// SectionUpdate carries the mutable section fields. Nil fields are left
// untouched.
type SectionUpdate struct {
	SectionName *string
	Archived    *bool
}
