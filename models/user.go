package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
	ProviderApple  AuthProvider = "apple"
)

func (p AuthProvider) Valid() bool {
	return p == ProviderLocal || p == ProviderGoogle || p == ProviderApple
}

// DisplayName is the label used in "Continue with ..." hints.
func (p AuthProvider) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google"
	case ProviderApple:
		return "Apple"
	default:
		return "Email"
	}
}

type User struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"_id"`
	Name         string       `gorm:"size:50;not null" json:"name"`
	Email        string       `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password     string       `gorm:"type:text" json:"-"`
	Role         UserRole     `gorm:"type:varchar(20);not null;default:'student';index" json:"role"`
	Avatar       string       `gorm:"type:text" json:"avatar"`
	Semester     *int         `json:"semester"`
	AuthProvider AuthProvider `gorm:"type:varchar(20);not null;default:'local'" json:"authProvider"`
	FirebaseUID  *string      `gorm:"size:128;uniqueIndex" json:"-"`
	ProviderID   string       `gorm:"size:128" json:"-"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updatedAt"`

	Bookmarks []Bookmark `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Normalize trims free-text fields, folds the email and fills defaults.
func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	u.Avatar = strings.TrimSpace(u.Avatar)
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if u.AuthProvider == "" {
		u.AuthProvider = ProviderLocal
	}
}

// MinNameLength applies to names typed by the account holder. Display names
// from an identity provider are stored as given.
const MinNameLength = 2

// ValidateName checks a name entered at registration or on a profile edit.
func ValidateName(name string) ValidationErrors {
	var errs ValidationErrors
	if n := runeLen(strings.TrimSpace(name)); n > 0 && n < MinNameLength {
		errs.Add("name", "Name must be at least 2 characters")
	}
	return errs
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the persisted shape of an account. The password rule only
// applies at creation: a new local account must already carry a hash.
func (u *User) Validate(isNew bool) ValidationErrors {
	var errs ValidationErrors

	switch n := runeLen(u.Name); {
	case n == 0:
		errs.Add("name", "Please provide a name")
	case n > 50:
		errs.Add("name", "Name cannot exceed 50 characters")
	}

	switch {
	case u.Email == "":
		errs.Add("email", "Please provide an email")
	case !IsValidEmail(u.Email):
		errs.Add("email", "Please provide a valid email")
	}

	if !u.Role.Valid() {
		errs.Add("role", "Invalid role")
	}
	if !u.AuthProvider.Valid() {
		errs.Add("authProvider", "Invalid authentication provider")
	}
	if u.Semester != nil && (*u.Semester < 1 || *u.Semester > 8) {
		errs.Add("semester", "Semester must be between 1 and 8")
	}
	if isNew && u.AuthProvider == ProviderLocal && u.Password == "" {
		errs.Add("password", "Please provide a password")
	}
	return errs
}
