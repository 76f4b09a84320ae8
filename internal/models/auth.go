package models

import "github.com/golang-jwt/jwt/v5"

// Principal roles carried in issued tokens.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// AuthClaims are the JWT claims issued to teachers and students. Subject
// carries the teacher email or the student username.
type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TeacherSignupRequest describes teacher registration payload.
type TeacherSignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// TeacherLoginRequest describes teacher login payload.
type TeacherLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StudentLoginRequest describes student login payload.
type StudentLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TeacherInfo is the public view of a teacher account.
type TeacherInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// TeacherLoginResponse is returned on successful teacher login.
type TeacherLoginResponse struct {
	Token   string      `json:"token"`
	Teacher TeacherInfo `json:"teacher"`
}

// StudentModuleProgress is the student's own progress view of one module.
type StudentModuleProgress struct {
	Score    *int   `json:"score"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// StudentModuleView pairs a module with the logged-in student's progress.
type StudentModuleView struct {
	SectionModuleID string                `json:"sectionModuleID"`
	ModuleID        string                `json:"moduleID"`
	Title           string                `json:"title"`
	Unlocked        bool                  `json:"unlocked"`
	Order           int                   `json:"order"`
	Progress        StudentModuleProgress `json:"progress"`
}

// StudentInfo is the profile payload returned on student login.
type StudentInfo struct {
	Username    string              `json:"username"`
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	MiddleName  *string             `json:"middleName"`
	Name        string              `json:"name"`
	SectionName string              `json:"sectionName"`
	Modules     []StudentModuleView `json:"modules"`
}

// StudentLoginResponse is returned on successful student login.
type StudentLoginResponse struct {
	Token   string      `json:"token"`
	Student StudentInfo `json:"student"`
}
