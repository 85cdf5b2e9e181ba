package entity

import (
	"time"

	"github.com/google/uuid"
)

type VerificationStatus string

const (
	VerificationPending    VerificationStatus = "pending"
	VerificationProcessing VerificationStatus = "processing"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

// StoredFile is one persisted upload of a verification.
type StoredFile struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Pages       int    `json:"pages,omitempty"`
	SHA256      string `json:"sha256"`
}

type Verification struct {
	Id                  uuid.UUID
	Code                string
	DocumentCode        string
	UserId              uuid.UUID
	InstitutionId       *uuid.UUID
	SubmissionId        uuid.UUID
	RunId               uuid.UUID
	Status              VerificationStatus
	Source              string
	DocumentName        string
	DocumentType        string
	InstitutionName     string
	Degree              string
	GraduationDate      string
	ExtractedText       string
	Confidence          int
	Score               int
	FieldsMatched       int
	FieldsTotal         int
	Method              string
	Verifier            string
	InstitutionResponse string
	Registrar           string
	RegistrarEmail      string
	Fields              map[string]string
	Files               []StoredFile
	SubmittedAt         time.Time
	VerifiedAt          *time.Time
	UpdatedAt           time.Time
}

type AuditEventType string

const (
	AuditSubmission            AuditEventType = "submission"
	AuditProcessing            AuditEventType = "processing"
	AuditInstitutionalResponse AuditEventType = "institutional_response"
	AuditVerificationComplete  AuditEventType = "verification_complete"
	AuditReview                AuditEventType = "review"
	AuditShared                AuditEventType = "shared"
	AuditDispute               AuditEventType = "dispute"
)

type AuditEvent struct {
	Id             uuid.UUID
	VerificationId uuid.UUID
	Type           AuditEventType
	Title          string
	Description    string
	Performer      string
	Details        map[string]string
	CreatedAt      time.Time
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestInReview RequestStatus = "in-review"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

type RequestPriority string

const (
	PriorityHigh   RequestPriority = "high"
	PriorityMedium RequestPriority = "medium"
	PriorityLow    RequestPriority = "low"
)

// VerificationRequest is the institution queue entry of a Verification.
type VerificationRequest struct {
	Id             uuid.UUID
	VerificationId uuid.UUID
	InstitutionId  uuid.UUID
	StudentName    string
	StudentID      string
	DocumentName   string
	DocumentType   string
	Priority       RequestPriority
	Status         RequestStatus
	ReviewedBy     *uuid.UUID
	SubmittedAt    time.Time
	UpdatedAt      time.Time
}

// VerificationStats counts a student's verifications by status.
type VerificationStats struct {
	Total      int64
	Verified   int64
	Processing int64
	Pending    int64
	Rejected   int64
}
