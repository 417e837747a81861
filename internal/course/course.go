package course

import (
	"time"

	"github.com/frahmantamala/school-administration/internal"
)

// Course belongs to exactly one department and has at most one teacher.
type Course struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	DepartmentID int64     `json:"department_id" gorm:"column:department_id;not null;index"`
	TeacherID    *int64    `json:"teacher_id,omitempty" gorm:"column:teacher_id"`
	Name         string    `json:"name" gorm:"not null"`
	CourseNr     string    `json:"course_nr" gorm:"column:course_nr"`
	Description  string    `json:"description"`
	CreditCost   int       `json:"cr_cost" gorm:"column:cr_cost"`
	Timeslots    string    `json:"timeslots"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

// RosterEntry is one actively enrolled student in the course view.
type RosterEntry struct {
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

type Detail struct {
	Course
	Roster []RosterEntry `json:"roster"`
}

type CreateCourseDTO struct {
	DepartmentID int64  `json:"department_id"`
	TeacherID    *int64 `json:"teacher_id,omitempty"`
	Name         string `json:"name"`
	CourseNr     string `json:"course_nr"`
	Description  string `json:"description"`
	CreditCost   int    `json:"cr_cost"`
	Timeslots    string `json:"timeslots"`
}

func (d CreateCourseDTO) Validate() error {
	if d.DepartmentID == 0 {
		return internal.NewValidationError("department_id is required", internal.ErrCodeValidationFailed)
	}
	if d.Name == "" {
		return internal.NewValidationError("name is required", internal.ErrCodeValidationFailed)
	}
	if d.CreditCost < 0 {
		return internal.NewValidationError("cr_cost cannot be negative", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateCourseDTO applies partial changes; nil fields are untouched. The
// owning department never changes after creation.
type UpdateCourseDTO struct {
	TeacherID   *int64  `json:"teacher_id,omitempty"`
	Name        *string `json:"name,omitempty"`
	CourseNr    *string `json:"course_nr,omitempty"`
	Description *string `json:"description,omitempty"`
	CreditCost  *int    `json:"cr_cost,omitempty"`
	Timeslots   *string `json:"timeslots,omitempty"`
}

func (d UpdateCourseDTO) Validate() error {
	if d.Name != nil && *d.Name == "" {
		return internal.NewValidationError("name cannot be empty", internal.ErrCodeValidationFailed)
	}
	if d.CreditCost != nil && *d.CreditCost < 0 {
		return internal.NewValidationError("cr_cost cannot be negative", internal.ErrCodeValidationFailed)
	}
	return nil
}
