package user

import (
	"net/mail"

	"github.com/frahmantamala/school-administration/internal"
	"github.com/frahmantamala/school-administration/internal/auth"
)

// RegisterDTO is the self-registration payload. Role is restricted to
// student or teacher here; admin accounts go through the access-code route.
type RegisterDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

func (d RegisterDTO) Validate() error {
	var errs []internal.ValidationError

	if d.Username == "" {
		errs = append(errs, internal.ValidationError{Field: "username", Message: "username is required", Code: string(internal.ErrCodeValidationFailed)})
	}
	if d.Email == "" {
		errs = append(errs, internal.ValidationError{Field: "email", Message: "email is required", Code: string(internal.ErrCodeValidationFailed)})
	} else if _, err := mail.ParseAddress(d.Email); err != nil {
		errs = append(errs, internal.ValidationError{Field: "email", Message: "email is not a valid address", Code: string(internal.ErrCodeValidationFailed)})
	}
	if len(d.Password) < 8 {
		errs = append(errs, internal.ValidationError{Field: "password", Message: "password must be at least 8 characters", Code: string(internal.ErrCodeValidationFailed)})
	}

	role, ok := auth.ParseRole(d.Role)
	if !ok || role == auth.RoleAdmin {
		errs = append(errs, internal.ValidationError{Field: "role", Message: "role must be student or teacher", Code: string(internal.ErrCodeInvalidRole)})
	}

	if len(errs) > 0 {
		return internal.NewValidationError("validation failed", internal.ErrCodeValidationFailed).
			WithDetails(internal.ValidationErrors{Errors: errs})
	}
	return nil
}

// RegisterAdminDTO carries the bootstrap access code alongside the profile.
type RegisterAdminDTO struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone,omitempty"`
	AccessCode string `json:"access_code"`
}

func (d RegisterAdminDTO) Validate() error {
	base := RegisterDTO{
		Username: d.Username,
		Email:    d.Email,
		Password: d.Password,
		Phone:    d.Phone,
		Role:     string(auth.RoleStudent), // role is fixed server-side; validate the rest
	}
	return base.Validate()
}

// UpdateSelfDTO lets a user change their own profile fields. Role and the
// moderation flags are deliberately absent.
type UpdateSelfDTO struct {
	Username *string `json:"username,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

func (d UpdateSelfDTO) Validate() error {
	if d.Username != nil && *d.Username == "" {
		return internal.NewValidationError("username cannot be empty", internal.ErrCodeValidationFailed)
	}
	return nil
}

// AdminUpdateUserDTO is the privileged user-update payload. Nil fields are
// left untouched.
type AdminUpdateUserDTO struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Role      *string `json:"role,omitempty"`
	Verified  *bool   `json:"verified,omitempty"`
	Suspended *bool   `json:"suspended,omitempty"`
}

func (d AdminUpdateUserDTO) Validate() error {
	if d.Username != nil && *d.Username == "" {
		return internal.NewValidationError("username cannot be empty", internal.ErrCodeValidationFailed)
	}
	if d.Email != nil {
		if _, err := mail.ParseAddress(*d.Email); err != nil {
			return internal.NewValidationError("email is not a valid address", internal.ErrCodeValidationFailed)
		}
	}
	if d.Role != nil {
		if _, ok := auth.ParseRole(*d.Role); !ok {
			return internal.NewValidationError("unknown role", internal.ErrCodeInvalidRole)
		}
	}
	return nil
}
