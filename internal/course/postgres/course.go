package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/school-administration/internal"
	"github.com/frahmantamala/school-administration/internal/course"
)

// CourseRepository implements the course.Repository interface using GORM
type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) course.Repository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(c *course.Course) error {
	return r.db.Create(c).Error
}

func (r *CourseRepository) GetByID(id int64) (*course.Course, error) {
	var c course.Course
	err := r.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) List() ([]*course.Course, error) {
	var courses []*course.Course
	err := r.db.Order("id ASC").Find(&courses).Error
	return courses, err
}

// Roster returns actively enrolled students only; withdrawn enrollments are
// excluded by state, not by row deletion.
func (r *CourseRepository) Roster(courseID int64) ([]course.RosterEntry, error) {
	rows, err := r.db.Raw(`
		SELECT u.id, u.username, u.email, e.enrolled_at
		FROM enrollments e
		JOIN users u ON u.id = e.user_id
		WHERE e.course_id = ? AND e.state = 'active'
		ORDER BY u.id ASC`, courseID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roster := make([]course.RosterEntry, 0)
	for rows.Next() {
		var entry course.RosterEntry
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.Email, &entry.EnrolledAt); err != nil {
			return nil, err
		}
		roster = append(roster, entry)
	}
	return roster, rows.Err()
}

func (r *CourseRepository) Update(c *course.Course) error {
	c.UpdatedAt = time.Now()
	return r.db.Save(c).Error
}

// DeleteCascade withdraws the course's active enrollments and removes the
// course row in one transaction.
func (r *CourseRepository) DeleteCascade(id int64) error {
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`UPDATE enrollments SET state = 'withdrawn', withdrawn_at = ?, updated_at = ? WHERE course_id = ? AND state = 'active'`,
			now, now, id,
		).Error; err != nil {
			return err
		}

		res := tx.Exec(`DELETE FROM courses WHERE id = ?`, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrCourseNotFound
		}
		return nil
	})
}

func (r *CourseRepository) DepartmentExists(id int64) (bool, error) {
	var count int64
	err := r.db.Raw(`SELECT COUNT(*) FROM departments WHERE id = ?`, id).Scan(&count).Error
	return count > 0, err
}
