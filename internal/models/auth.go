package models

import (
	"time"
)

type UserRole string

const (
	UserRoleAdmin     UserRole = "ADMIN"
	UserRoleDeveloper UserRole = "DEVELOPER"
	UserRoleTester    UserRole = "TESTER"
	UserRoleReporter  UserRole = "REPORTER"
	UserRoleViewer    UserRole = "VIEWER"
)

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"unique;not null"`
	Email        string     `json:"email" gorm:"unique;not null"`
	FullName     string     `json:"full_name" gorm:"not null"`
	Role         UserRole   `json:"role" gorm:"not null;default:'REPORTER'"`
	PasswordHash string     `json:"-"`
	AvatarURL    string     `json:"avatar_url"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
