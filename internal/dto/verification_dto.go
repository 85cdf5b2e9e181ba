package dto

import (
	"time"

	"academic-auth-be/internal/entity"

	"github.com/google/uuid"
)

type VerificationResponse struct {
	Id              uuid.UUID  `json:"id"`
	Code            string     `json:"code"`
	DocumentCode    string     `json:"document_code"`
	Status          string     `json:"status"`
	Source          string     `json:"source"`
	DocumentName    string     `json:"document_name"`
	DocumentType    string     `json:"document_type"`
	InstitutionName string     `json:"institution_name"`
	Degree          string     `json:"degree"`
	GraduationDate  string     `json:"graduation_date"`
	Confidence      int        `json:"confidence"`
	Score           int        `json:"score"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	VerifiedAt      *time.Time `json:"verified_at"`
}

type AuditEventResponse struct {
	Id          uuid.UUID         `json:"id"`
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Performer   string            `json:"performer"`
	Details     map[string]string `json:"details,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

type InstitutionalDetails struct {
	Name           string  `json:"name"`
	Registrar      string  `json:"registrar"`
	RegistrarEmail string  `json:"registrar_email"`
	Location       string  `json:"location,omitempty"`
	Website        string  `json:"website,omitempty"`
	Accreditation  string  `json:"accreditation,omitempty"`
	Response       string  `json:"response"`
	Method         string  `json:"method"`
	FieldsMatched  int     `json:"fields_matched"`
	FieldsTotal    int     `json:"fields_total"`
	MatchRate      float64 `json:"match_rate"`
}

// Certificate is the printable verification certificate block.
type Certificate struct {
	Code           string     `json:"code"`
	DocumentCode   string     `json:"document_code"`
	IssuedTo       string     `json:"issued_to"`
	Institution    string     `json:"institution"`
	Degree         string     `json:"degree"`
	GraduationDate string     `json:"graduation_date"`
	Status         string     `json:"status"`
	Verifier       string     `json:"verifier"`
	VerifiedAt     *time.Time `json:"verified_at"`
	ShareURL       string     `json:"share_url"`
}

type VerificationDetailResponse struct {
	VerificationResponse
	ExtractedText string               `json:"extracted_text"`
	Fields        map[string]string    `json:"fields"`
	Files         []entity.StoredFile  `json:"files"`
	Institution   InstitutionalDetails `json:"institution"`
	AuditTrail    []AuditEventResponse `json:"audit_trail"`
	Certificate   Certificate          `json:"certificate"`
}

// PublicVerificationResponse is what anyone holding a code may see.
type PublicVerificationResponse struct {
	Code            string     `json:"code"`
	Status          string     `json:"status"`
	DocumentType    string     `json:"document_type"`
	InstitutionName string     `json:"institution_name"`
	Degree          string     `json:"degree"`
	GraduationDate  string     `json:"graduation_date"`
	HolderName      string     `json:"holder_name,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at"`
}

// ShareLinkResponse reports whether the link resolves for others; that
// follows the holder's share-verification-status privacy setting.
type ShareLinkResponse struct {
	Code   string `json:"code"`
	URL    string `json:"url"`
	Public bool   `json:"public"`
}

type ShareByEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ShareByEmailResponse struct {
	ShareLinkResponse
	Recipient string `json:"recipient"`
}

type DisputeRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=2000"`
}

type ListVerificationsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=pending processing verified rejected all"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}
