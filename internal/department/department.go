package department

import (
	"time"

	"github.com/frahmantamala/school-administration/internal"
)

type Department struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Department) TableName() string {
	return "departments"
}

// Member is a roster entry: a user plus their membership state in the
// department.
type Member struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	State    string `json:"state"`
}

// CourseSummary is the course listing embedded in a department view.
type CourseSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	CourseNr string `json:"course_nr"`
}

// Detail is the full department view returned by get_department.
type Detail struct {
	Department
	Members []Member        `json:"members"`
	Courses []CourseSummary `json:"courses"`
}

type CreateDepartmentDTO struct {
	Name string `json:"name"`
}

func (d CreateDepartmentDTO) Validate() error {
	if d.Name == "" {
		return internal.NewValidationError("name is required", internal.ErrCodeValidationFailed)
	}
	return nil
}
