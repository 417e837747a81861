package user

import (
	"time"

	"github.com/frahmantamala/school-administration/internal/auth"
)

// User is the identity record. Role is immutable outside the gated promotion
// path; Suspended blocks login without destroying the account.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	Role         auth.Role `json:"role" gorm:"type:text;not null"`
	Verified     bool      `json:"verified" gorm:"default:false"`
	Suspended    bool      `json:"suspended" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

func (u *User) IsTeacher() bool {
	return u.Role == auth.RoleTeacher
}

func (u *User) IsStudent() bool {
	return u.Role == auth.RoleStudent
}
