package entity

import (
	"time"

	"github.com/google/uuid"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

type InstitutionSettings struct {
	AutoApprove        bool `json:"auto_approve"`
	EmailNotifications bool `json:"email_notifications"`
	ProcessingDays     int  `json:"processing_days"`
}

type Institution struct {
	Id              uuid.UUID
	Code            string
	Name            string
	Type            string
	EstablishedYear int
	Accreditation   string
	Website         string
	Email           string
	Phone           string
	RegistrarName   string
	RegistrarEmail  string
	Address         Address
	Settings        InstitutionSettings
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (i *Institution) Location() string {
	if i.Address.City == "" {
		return i.Address.State
	}
	if i.Address.State == "" {
		return i.Address.City
	}
	return i.Address.City + ", " + i.Address.State
}

type InstitutionDocumentStatus string

const (
	InstitutionDocumentProcessing InstitutionDocumentStatus = "processing"
	InstitutionDocumentActive     InstitutionDocumentStatus = "active"
)

// InstitutionDocument is a batch file an institution keeps on record
// (transcript batches, degree lists, seal templates).
type InstitutionDocument struct {
	Id            uuid.UUID
	InstitutionId uuid.UUID
	Name          string
	Type          string
	BatchName     string
	Description   string
	Size          int64
	ContentType   string
	Pages         int
	BlobKey       string
	Status        InstitutionDocumentStatus
	UploadedAt    time.Time
}
