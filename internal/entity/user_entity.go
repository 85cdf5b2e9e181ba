package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleStudent     UserRole = "student"
	UserRoleInstitution UserRole = "institution_admin"
)

type User struct {
	Id             uuid.UUID
	Email          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Phone          string
	StudentID      string
	Institution    string
	Program        string
	GraduationYear int
	Role           UserRole
	InstitutionId  *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
