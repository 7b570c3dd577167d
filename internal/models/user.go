package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

// User is the campus identity record (PostgreSQL)
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FirstName   string    `json:"first_name" gorm:"size:100"`
	LastName    string    `json:"last_name" gorm:"size:100"`
	Email       string    `json:"email" gorm:"uniqueIndex"`
	Role        string    `json:"role" gorm:"size:20;index"`
	Department  string    `json:"department" gorm:"size:100;index"`
	YearLevel   int       `json:"year_level" gorm:"index"`
	FirebaseUID string    `json:"-" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Snapshot copies the identity fields stored on notices.
func (u *User) Snapshot() AuthorSnapshot {
	return AuthorSnapshot{ID: u.ID, Name: u.FullName(), Email: u.Email, Role: u.Role}
}

func (u *User) Actor() *Actor {
	return &Actor{ID: u.ID, Email: u.Email, Role: u.Role}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
