package models

import "time"

// Progress entry status values.
const (
	ProgressStatusNotStarted = "not-started"
	ProgressStatusCompleted  = "completed"
)

// ProgressNotCompleted is the sentinel reported until progress reaches 100.
const ProgressNotCompleted = "Not Completed Yet"

// ModuleDefinition describes one of the four fixed learning modules every
// section is bootstrapped with.
type ModuleDefinition struct {
	ModuleID string
	Title    string
	Unlocked bool
	Order    int
}

// DefaultModules is the fixed module set created alongside every section.
var DefaultModules = []ModuleDefinition{
	{ModuleID: "mod1", Title: "Human Anatomy", Unlocked: true, Order: 1},
	{ModuleID: "mod2", Title: "Volcano", Unlocked: false, Order: 2},
	{ModuleID: "mod3", Title: "Animals", Unlocked: false, Order: 3},
	{ModuleID: "mod4", Title: "Solar System", Unlocked: false, Order: 4},
}

// IsValidModuleID reports whether id names one of the fixed modules.
func IsValidModuleID(id string) bool {
	for _, def := range DefaultModules {
		if def.ModuleID == id {
			return true
		}
	}
	return false
}

// StudentProgress is a roster entry embedded in a SectionModule record. It is
// owned exclusively by its containing record and identified within the list
// by Username.
type StudentProgress struct {
	Username          string     `bson:"username" json:"username"`
	FirstName         string     `bson:"firstName" json:"firstName"`
	LastName          string     `bson:"lastName" json:"lastName"`
	MiddleName        *string    `bson:"middleName" json:"middleName"`
	Score             *int       `bson:"score" json:"score"`
	Status            string     `bson:"status" json:"status"`
	Progress          int        `bson:"progress" json:"progress"`
	ProgressCompleted string     `bson:"progressCompleted" json:"progressCompleted"`
	ScoreTimestamp    *time.Time `bson:"scoreTimestamp,omitempty" json:"scoreTimestamp,omitempty"`
}

// SectionModule is one denormalized roster shard: a single record per
// (sectionID, moduleID) pair holding the embedded student roster. The pair is
// unique by construction only; section bootstrap is the sole writer of these
// records.
type SectionModule struct {
	SectionModuleID string            `bson:"sectionModuleID" json:"sectionModuleID"`
	SectionID       string            `bson:"sectionID" json:"sectionID"`
	ModuleID        string            `bson:"moduleID" json:"moduleID"`
	Title           string            `bson:"title" json:"title"`
	Unlocked        bool              `bson:"unlocked" json:"unlocked"`
	Order           int               `bson:"order" json:"order"`
	SectionName     string            `bson:"sectionName" json:"sectionName"`
	TeacherEmail    string            `bson:"teacherEmail" json:"teacherEmail"`
	Students        []StudentProgress `bson:"students" json:"students"`
	CreatedAt       time.Time         `bson:"createdAt" json:"createdAt"`
}

// RosterIndex returns the positional index of username inside the embedded
// roster, or -1 when absent.
func (m *SectionModule) RosterIndex(username string) int {
	for i, entry := range m.Students {
		if entry.Username == username {
			return i
		}
	}
	return -1
}

// MigrationError names a student whose migration failed and why.
type MigrationError struct {
	Username string `json:"username"`
	Error    string `json:"error"`
}

// MigrationReport summarises a best-effort batch migration.
type MigrationReport struct {
	Migrated int              `json:"migrated"`
	Failed   int              `json:"failed"`
	Errors   []MigrationError `json:"errors"`
}

// QuizResult is one student's row in a per-module quiz report.
type QuizResult struct {
	Username          string     `json:"username"`
	FirstName         string     `json:"firstName"`
	MiddleName        string     `json:"middleName"`
	LastName          string     `json:"lastName"`
	Score             *int       `json:"score,omitempty"`
	Status            string     `json:"status"`
	Progress          int        `json:"progress"`
	ProgressCompleted string     `json:"progressCompleted"`
	UpdatedAt         *time.Time `json:"updatedAt"`
}

// QuizResultSet is the quiz report for one (section, module) pair.
type QuizResultSet struct {
	SectionID   string       `json:"sectionID"`
	ModuleID    string       `json:"moduleID"`
	Title       string       `json:"title"`
	SectionName string       `json:"sectionName"`
	Results     []QuizResult `json:"results"`
}
