package models

import "time"

// Student is the canonical student record. SectionName and TeacherEmail are
// denormalized copies of the referenced section; they are refreshed whenever
// the section reference changes and may briefly lag behind a section rename.
type Student struct {
	Username     string    `bson:"username" json:"username"`
	FirstName    string    `bson:"firstName" json:"firstName"`
	LastName     string    `bson:"lastName" json:"lastName"`
	MiddleName   *string   `bson:"middleName" json:"middleName"`
	Password     string    `bson:"password" json:"-"`
	SectionID    string    `bson:"sectionID" json:"sectionID"`
	SectionName  string    `bson:"sectionName" json:"sectionName"`
	TeacherEmail string    `bson:"teacherEmail" json:"teacherEmail"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// FullName joins the name components, skipping an absent middle name.
func (s *Student) FullName() string {
	name := s.FirstName
	if s.MiddleName != nil && *s.MiddleName != "" {
		name += " " + *s.MiddleName
	}
	if s.LastName != "" {
		name += " " + s.LastName
	}
	return name
}
