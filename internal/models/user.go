package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleDoctor     Role = "doctor"
	RoleStaff      Role = "staff"
	RolePatient    Role = "patient"
)

// User represents a staff member, doctor or patient portal account
type User struct {
	BaseModel
	Username    string     `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email       string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string     `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	FirstName   string     `gorm:"size:100" json:"firstName"`
	LastName    string     `gorm:"size:100" json:"lastName"`
	Role        Role       `gorm:"size:20;default:'staff'" json:"role"`
	PhoneNumber string     `gorm:"size:15" json:"phoneNumber,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"isActive"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`

	// Relations (not always preloaded)
	RefreshTokens       []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	DoctorAppointments  []Appointment  `gorm:"foreignKey:DoctorID" json:"-"`
	CreatedAppointments []Appointment  `gorm:"foreignKey:CreatedByID" json:"-"`
	Prescriptions       []Prescription `gorm:"foreignKey:DoctorID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        Role       `json:"role"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsSchedulableDoctor reports whether appointments may be booked with this user.
func (u *User) IsSchedulableDoctor() bool {
	return u.Role == RoleDoctor && u.IsActive
}

// CanAccess implements the role/permission matrix for coarse resource checks.
func (u *User) CanAccess(resource string) bool {
	permissions := map[Role][]string{
		RoleSuperAdmin: {"all"},
		RoleAdmin:      {"patients", "appointments", "billing", "reports", "staff"},
		RoleDoctor:     {"patients", "appointments", "prescriptions", "consultations"},
		RoleStaff:      {"patients", "appointments", "billing"},
		RolePatient:    {"own_data", "appointments", "prescriptions"},
	}
	for _, p := range permissions[u.Role] {
		if p == "all" || p == resource {
			return true
		}
	}
	return false
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.IsActive,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
