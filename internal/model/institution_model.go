package model

import (
	"time"

	"github.com/google/uuid"
)

type Institution struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code            string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name            string    `gorm:"type:varchar(255);not null;index"`
	Type            string    `gorm:"type:varchar(50)"`
	EstablishedYear int
	Accreditation   string `gorm:"type:varchar(100)"`
	Website         string `gorm:"type:varchar(255)"`
	Email           string `gorm:"type:varchar(255)"`
	Phone           string `gorm:"type:varchar(50)"`
	RegistrarName   string `gorm:"type:varchar(255)"`
	RegistrarEmail  string `gorm:"type:varchar(255)"`

	AddressStreet  string `gorm:"type:varchar(255)"`
	AddressCity    string `gorm:"type:varchar(100)"`
	AddressState   string `gorm:"type:varchar(100)"`
	AddressZipCode string `gorm:"type:varchar(20)"`

	AutoApprove        bool `gorm:"default:false"`
	EmailNotifications bool `gorm:"default:true"`
	ProcessingDays     int  `gorm:"default:3"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Institution) TableName() string {
	return "institutions"
}

type InstitutionDocument struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InstitutionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Name          string    `gorm:"type:varchar(255);not null"`
	Type          string    `gorm:"type:varchar(50);not null"`
	BatchName     string    `gorm:"type:varchar(255)"`
	Description   string    `gorm:"type:text"`
	Size          int64
	ContentType   string    `gorm:"type:varchar(100)"`
	Pages         int       `gorm:"default:0"`
	BlobKey       string    `gorm:"type:text;not null"`
	Status        string    `gorm:"type:varchar(20);not null;default:'processing'"`
	UploadedAt    time.Time `gorm:"autoCreateTime"`
}

func (InstitutionDocument) TableName() string {
	return "institution_documents"
}
