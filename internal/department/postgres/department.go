package postgres

import (
	"gorm.io/gorm"

	"github.com/frahmantamala/school-administration/internal"
	"github.com/frahmantamala/school-administration/internal/department"
)

// DepartmentRepository implements the department.Repository interface using GORM
type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.Repository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(d *department.Department) error {
	return r.db.Create(d).Error
}

func (r *DepartmentRepository) GetByID(id int64) (*department.Department, error) {
	var d department.Department
	err := r.db.Where("id = ?", id).First(&d).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) GetByName(name string) (*department.Department, error) {
	var d department.Department
	err := r.db.Where("name = ?", name).First(&d).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) List() ([]*department.Department, error) {
	var departments []*department.Department
	err := r.db.Order("id ASC").Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) CountCourses(id int64) (int64, error) {
	var count int64
	err := r.db.Raw(`SELECT COUNT(*) FROM courses WHERE department_id = ?`, id).Scan(&count).Error
	return count, err
}

// Members returns invited and active memberships joined with the user
// profile. Removed memberships stay out of the roster.
func (r *DepartmentRepository) Members(id int64) ([]department.Member, error) {
	rows, err := r.db.Raw(`
		SELECT u.id, u.username, u.email, u.role, m.state
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.department_id = ? AND m.state IN ('invited', 'active')
		ORDER BY u.id ASC`, id).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]department.Member, 0)
	for rows.Next() {
		var m department.Member
		if err := rows.Scan(&m.UserID, &m.Username, &m.Email, &m.Role, &m.State); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *DepartmentRepository) CourseSummaries(id int64) ([]department.CourseSummary, error) {
	rows, err := r.db.Raw(`
		SELECT id, name, course_nr
		FROM courses
		WHERE department_id = ?
		ORDER BY id ASC`, id).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]department.CourseSummary, 0)
	for rows.Next() {
		var c department.CourseSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.CourseNr); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Delete removes the department and detaches remaining memberships in the
// same transaction. The service has already verified there are no courses.
func (r *DepartmentRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`UPDATE memberships SET state = 'removed', removed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
			 WHERE department_id = ? AND state IN ('invited', 'active')`, id,
		).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM departments WHERE id = ?`, id).Error
	})
}
