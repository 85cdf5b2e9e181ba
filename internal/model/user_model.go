package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email          string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash   string         `gorm:"type:varchar(255);not null"`
	FirstName      string         `gorm:"type:varchar(100);not null"`
	LastName       string         `gorm:"type:varchar(100);not null"`
	Phone          string         `gorm:"type:varchar(50)"`
	StudentID      string         `gorm:"column:student_id;type:varchar(50)"`
	Institution    string         `gorm:"type:varchar(255)"`
	Program        string         `gorm:"type:varchar(255)"`
	GraduationYear int            `gorm:"default:0"`
	Role           string         `gorm:"type:varchar(50);not null;default:'student';index"`
	InstitutionId  *uuid.UUID     `gorm:"type:uuid;index"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
