package membership

import (
	"time"

	"github.com/frahmantamala/school-administration/internal/auth"
)

// Membership states form an explicit machine: invited -> active -> removed,
// with removed -> invited as the re-invite transition. Presence of a row is
// never used to infer state, so history survives a kick.
const (
	StateInvited = "invited"
	StateActive  = "active"
	StateRemoved = "removed"
)

type Membership struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	UserID       int64      `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:idx_memberships_user_dept"`
	DepartmentID int64      `json:"department_id" gorm:"column:department_id;not null;uniqueIndex:idx_memberships_user_dept"`
	State        string     `json:"state" gorm:"column:state;not null"`
	InvitedAt    time.Time  `json:"invited_at" gorm:"column:invited_at"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty" gorm:"column:activated_at"`
	RemovedAt    *time.Time `json:"removed_at,omitempty" gorm:"column:removed_at"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Membership) TableName() string {
	return "memberships"
}

// Standing maps the membership state to the authorization gate's vocabulary.
func (m *Membership) Standing() auth.Standing {
	switch m.State {
	case StateInvited:
		return auth.StandingInvited
	case StateActive:
		return auth.StandingActive
	default:
		return auth.StandingNone
	}
}

// Enrollment states: active -> withdrawn, with withdrawn -> active as the
// re-enroll transition.
const (
	EnrollmentActive    = "active"
	EnrollmentWithdrawn = "withdrawn"
)

type Enrollment struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	UserID      int64      `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:idx_enrollments_user_course"`
	CourseID    int64      `json:"course_id" gorm:"column:course_id;not null;uniqueIndex:idx_enrollments_user_course"`
	State       string     `json:"state" gorm:"column:state;not null"`
	EnrolledAt  time.Time  `json:"enrolled_at" gorm:"column:enrolled_at"`
	WithdrawnAt *time.Time `json:"withdrawn_at,omitempty" gorm:"column:withdrawn_at"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

type InviteDTO struct {
	UserID int64 `json:"user_id"`
}
