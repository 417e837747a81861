package postgres

import (
	"gorm.io/gorm"

	"github.com/frahmantamala/school-administration/internal/stats"
)

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Collect() (*stats.Statistics, error) {
	var s stats.Statistics

	counts := []struct {
		dest  *int64
		query string
	}{
		{&s.RegisteredUsers, `SELECT COUNT(1) FROM users`},
		{&s.SuspendedUsers, `SELECT COUNT(1) FROM users WHERE suspended = TRUE`},
		{&s.FacultyMembers, `SELECT COUNT(1) FROM users WHERE role IN ('teacher', 'admin')`},
		{&s.ActiveStudents, `SELECT COUNT(1) FROM users WHERE role = 'student' AND suspended = FALSE`},
		{&s.Departments, `SELECT COUNT(1) FROM departments`},
		{&s.Courses, `SELECT COUNT(1) FROM courses`},
		{&s.ActiveEnrollments, `SELECT COUNT(1) FROM enrollments WHERE state = 'active'`},
	}

	for _, c := range counts {
		if err := r.db.Raw(c.query).Scan(c.dest).Error; err != nil {
			return nil, err
		}
	}

	return &s, nil
}
