package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type StoredFile struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Pages       int    `json:"pages,omitempty"`
	SHA256      string `json:"sha256"`
}

type Verification struct {
	Id                  uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code                string     `gorm:"type:varchar(32);uniqueIndex;not null"`
	DocumentCode        string     `gorm:"type:varchar(32);uniqueIndex;not null"`
	UserId              uuid.UUID  `gorm:"type:uuid;not null;index:idx_verifications_user_submitted,priority:1"`
	InstitutionId       *uuid.UUID `gorm:"type:uuid;index"`
	SubmissionId        uuid.UUID  `gorm:"type:uuid;not null;index"`
	RunId               uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	Status              string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Source              string     `gorm:"type:varchar(20);not null"`
	DocumentName        string     `gorm:"type:varchar(255)"`
	DocumentType        string     `gorm:"type:varchar(50)"`
	InstitutionName     string     `gorm:"type:varchar(255)"`
	Degree              string     `gorm:"type:varchar(255)"`
	GraduationDate      string     `gorm:"type:varchar(10)"`
	ExtractedText       string     `gorm:"type:text"`
	Confidence          int
	Score               int
	FieldsMatched       int
	FieldsTotal         int
	Method              string                                `gorm:"type:varchar(100)"`
	Verifier            string                                `gorm:"type:varchar(255)"`
	InstitutionResponse string                                `gorm:"type:text"`
	Registrar           string                                `gorm:"type:varchar(255)"`
	RegistrarEmail      string                                `gorm:"type:varchar(255)"`
	Fields              datatypes.JSONType[map[string]string] `gorm:"type:jsonb"`
	Files               datatypes.JSONSlice[StoredFile]       `gorm:"type:jsonb"`
	SubmittedAt         time.Time                             `gorm:"not null;index:idx_verifications_user_submitted,priority:2"`
	VerifiedAt          *time.Time
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

func (Verification) TableName() string {
	return "verifications"
}

type AuditEvent struct {
	Id             uuid.UUID                             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VerificationId uuid.UUID                             `gorm:"type:uuid;not null;index:idx_audit_events_verification,priority:1"`
	Type           string                                `gorm:"type:varchar(40);not null"`
	Title          string                                `gorm:"type:varchar(255);not null"`
	Description    string                                `gorm:"type:text"`
	Performer      string                                `gorm:"type:varchar(255)"`
	Details        datatypes.JSONType[map[string]string] `gorm:"type:jsonb"`
	CreatedAt      time.Time                             `gorm:"not null;index:idx_audit_events_verification,priority:2"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

type VerificationRequest struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VerificationId uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	InstitutionId  uuid.UUID  `gorm:"type:uuid;not null;index:idx_requests_institution_status,priority:1"`
	StudentName    string     `gorm:"type:varchar(255)"`
	StudentID      string     `gorm:"column:student_id;type:varchar(50)"`
	DocumentName   string     `gorm:"type:varchar(255)"`
	DocumentType   string     `gorm:"type:varchar(50);index"`
	Priority       string     `gorm:"type:varchar(10);not null;default:'medium'"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_requests_institution_status,priority:2"`
	ReviewedBy     *uuid.UUID `gorm:"type:uuid"`
	SubmittedAt    time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`
}

func (VerificationRequest) TableName() string {
	return "verification_requests"
}
