package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/school-administration/internal"
	"github.com/frahmantamala/school-administration/internal/auth"
	authPostgres "github.com/frahmantamala/school-administration/internal/auth/postgres"
	"github.com/frahmantamala/school-administration/internal/user"
)

// UserRepository implements the user.Repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	err := r.db.Where("id = ?", id).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var u user.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(role *auth.Role) ([]*user.User, error) {
	var users []*user.User
	q := r.db.Order("id ASC")
	if role != nil {
		q = q.Where("role = ?", string(*role))
	}
	err := q.Find(&users).Error
	return users, err
}

func (r *UserRepository) Update(u *user.User) error {
	u.UpdatedAt = time.Now()
	return r.db.Save(u).Error
}

func (r *UserRepository) UpdateRole(id int64, role auth.Role) error {
	res := r.db.Model(&user.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":       string(role),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

// DeleteCascade removes the user and, in the same transaction, marks every
// membership removed, withdraws every active enrollment, and revokes every
// live session. A concurrent observer sees the account fully present or
// fully gone, never half-detached.
func (r *UserRepository) DeleteCascade(id int64) error {
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`DELETE FROM users WHERE id = ?`, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}

		if err := tx.Exec(
			`UPDATE memberships SET state = 'removed', removed_at = ?, updated_at = ? WHERE user_id = ? AND state IN ('invited', 'active')`,
			now, now, id,
		).Error; err != nil {
			return err
		}

		if err := tx.Exec(
			`UPDATE enrollments SET state = 'withdrawn', withdrawn_at = ?, updated_at = ? WHERE user_id = ? AND state = 'active'`,
			now, now, id,
		).Error; err != nil {
			return err
		}

		return authPostgres.RevokeAllForUser(tx, id)
	})
}
