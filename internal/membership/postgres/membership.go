package postgres

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/school-administration/internal"
	"github.com/frahmantamala/school-administration/internal/auth"
	"github.com/frahmantamala/school-administration/internal/membership"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) GetMembership(userID, departmentID int64) (*membership.Membership, error) {
	var m membership.Membership
	err := r.db.Raw(`
		SELECT id, user_id, department_id, state, invited_at, activated_at, removed_at, created_at, updated_at
		FROM memberships
		WHERE user_id = ? AND department_id = ?`,
		userID, departmentID).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *MembershipRepository) CreateMembership(m *membership.Membership) error {
	if err := r.db.Create(m).Error; err != nil {
		if isDuplicate(err) {
			return internal.ErrAlreadyInvited
		}
		return err
	}
	return nil
}

func (r *MembershipRepository) UpdateMembership(m *membership.Membership) error {
	m.UpdatedAt = time.Now()
	return r.db.Save(m).Error
}

// StandingFor reports the roster standing for a user in a department. A
// missing or removed row both collapse to no standing.
func (r *MembershipRepository) StandingFor(userID, departmentID int64) (auth.Standing, error) {
	m, err := r.GetMembership(userID, departmentID)
	if err != nil {
		return auth.StandingNone, err
	}
	if m == nil {
		return auth.StandingNone, nil
	}
	return m.Standing(), nil
}

// KickCascade removes a user from the department roster and withdraws their
// active enrollments in that department's courses, atomically. It returns the
// number of enrollments withdrawn.
func (r *MembershipRepository) KickCascade(userID, departmentID int64) (int64, error) {
	var withdrawn int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		res := tx.Exec(`
			UPDATE memberships
			SET state = ?, removed_at = ?, updated_at = ?
			WHERE user_id = ? AND department_id = ? AND state IN (?, ?)`,
			membership.StateRemoved, now, now,
			userID, departmentID,
			membership.StateInvited, membership.StateActive)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrNotMember
		}

		res = tx.Exec(`
			UPDATE enrollments
			SET state = ?, withdrawn_at = ?, updated_at = ?
			WHERE user_id = ? AND state = ?
			AND course_id IN (SELECT id FROM courses WHERE department_id = ?)`,
			membership.EnrollmentWithdrawn, now, now,
			userID, membership.EnrollmentActive,
			departmentID)
		if res.Error != nil {
			return res.Error
		}
		withdrawn = res.RowsAffected

		return nil
	})
	if err != nil {
		return 0, err
	}

	return withdrawn, nil
}

func (r *MembershipRepository) GetEnrollment(userID, courseID int64) (*membership.Enrollment, error) {
	var e membership.Enrollment
	err := r.db.Raw(`
		SELECT id, user_id, course_id, state, enrolled_at, withdrawn_at, created_at, updated_at
		FROM enrollments
		WHERE user_id = ? AND course_id = ?`,
		userID, courseID).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

// CreateEnrollment inserts an active enrollment only while the user's
// membership row in the course's department is still active. The guard and
// the insert are one statement, so they serialize against KickCascade's
// membership update: a kick that commits first leaves nothing for the insert
// to match.
func (r *MembershipRepository) CreateEnrollment(e *membership.Enrollment, departmentID int64) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	err := r.db.Raw(`
		INSERT INTO enrollments (user_id, course_id, state, enrolled_at, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE EXISTS (
			SELECT 1 FROM memberships
			WHERE user_id = ? AND department_id = ? AND state = ?)
		RETURNING id`,
		e.UserID, e.CourseID, e.State, e.EnrolledAt, e.CreatedAt, e.UpdatedAt,
		e.UserID, departmentID, membership.StateActive).Scan(&e.ID).Error
	if err != nil {
		if isDuplicate(err) {
			return internal.ErrAlreadyEnrolled
		}
		return err
	}
	if e.ID == 0 {
		return internal.ErrNotDeptMember
	}
	return nil
}

// ReactivateEnrollment flips a withdrawn enrollment back to active under the
// same membership guard as CreateEnrollment.
func (r *MembershipRepository) ReactivateEnrollment(e *membership.Enrollment, departmentID int64) error {
	now := time.Now()
	res := r.db.Exec(`
		UPDATE enrollments
		SET state = ?, enrolled_at = ?, withdrawn_at = NULL, updated_at = ?
		WHERE id = ? AND EXISTS (
			SELECT 1 FROM memberships
			WHERE user_id = ? AND department_id = ? AND state = ?)`,
		membership.EnrollmentActive, e.EnrolledAt, now,
		e.ID, e.UserID, departmentID, membership.StateActive)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrNotDeptMember
	}
	e.State = membership.EnrollmentActive
	e.WithdrawnAt = nil
	e.UpdatedAt = now
	return nil
}

func (r *MembershipRepository) UpdateEnrollment(e *membership.Enrollment) error {
	e.UpdatedAt = time.Now()
	return r.db.Save(e).Error
}

// isDuplicate recognizes unique-index violations from both the pgx and
// sqlite drivers so callers get the typed conflict instead of a 500.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func (r *MembershipRepository) CourseDepartment(courseID int64) (int64, error) {
	var departmentID int64
	err := r.db.Raw(`SELECT department_id FROM courses WHERE id = ?`, courseID).Scan(&departmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, internal.ErrCourseNotFound
		}
		return 0, err
	}
	if departmentID == 0 {
		return 0, internal.ErrCourseNotFound
	}
	return departmentID, nil
}

func (r *MembershipRepository) DepartmentExists(id int64) (bool, error) {
	var count int64
	if err := r.db.Raw(`SELECT COUNT(1) FROM departments WHERE id = ?`, id).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MembershipRepository) UserExists(id int64) (bool, error) {
	var count int64
	if err := r.db.Raw(`SELECT COUNT(1) FROM users WHERE id = ?`, id).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
