package dto

import (
	"time"

	"github.com/google/uuid"
)

type ListRequestsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=pending in-review approved rejected all"`
	Type   string `query:"type" validate:"omitempty,oneof=transcript degree diploma certificate enrollment grade_report all"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type VerificationRequestResponse struct {
	Id               uuid.UUID  `json:"id"`
	VerificationId   uuid.UUID  `json:"verification_id"`
	VerificationCode string     `json:"verification_code,omitempty"`
	StudentName      string     `json:"student_name"`
	StudentID        string     `json:"student_id"`
	DocumentName     string     `json:"document_name"`
	DocumentType     string     `json:"document_type"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status"`
	ReviewedBy       *uuid.UUID `json:"reviewed_by,omitempty"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type RequestDetailResponse struct {
	Request      VerificationRequestResponse `json:"request"`
	Verification VerificationDetailResponse  `json:"verification"`
}

type UpdateRequestStatusRequest struct {
	Id     uuid.UUID
	Status string `json:"status" validate:"required,oneof=pending in-review approved rejected"`
	Note   string `json:"note" validate:"max=500"`
}

type BulkUpdateRequestStatusRequest struct {
	Ids    []uuid.UUID `json:"ids" validate:"required,min=1,max=100"`
	Status string      `json:"status" validate:"required,oneof=pending in-review approved rejected"`
}

type BulkUpdateResponse struct {
	Updated []uuid.UUID `json:"updated"`
	Failed  []uuid.UUID `json:"failed,omitempty"`
}

type InstitutionDocumentResponse struct {
	Id          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	BatchName   string    `json:"batch_name"`
	Description string    `json:"description"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Pages       int       `json:"pages"`
	Status      string    `json:"status"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type UploadInstitutionDocumentRequest struct {
	Type        string `form:"type" validate:"required,oneof=transcript diploma certificate enrollment grade_report seal other"`
	BatchName   string `form:"batch_name" validate:"max=255"`
	Description string `form:"description" validate:"max=1000"`
}

type AddressDto struct {
	Street  string `json:"street" validate:"max=255"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state" validate:"max=100"`
	ZipCode string `json:"zip_code" validate:"max=20"`
}

type InstitutionSettingsDto struct {
	AutoApprove        bool `json:"auto_approve"`
	EmailNotifications bool `json:"email_notifications"`
	ProcessingDays     int  `json:"processing_days" validate:"min=1,max=60"`
}

type InstitutionProfileResponse struct {
	Id              uuid.UUID              `json:"id"`
	Code            string                 `json:"code"`
	Name            string                 `json:"name"`
	Type            string                 `json:"type"`
	EstablishedYear int                    `json:"established_year"`
	Accreditation   string                 `json:"accreditation"`
	Website         string                 `json:"website"`
	Email           string                 `json:"email"`
	Phone           string                 `json:"phone"`
	RegistrarName   string                 `json:"registrar_name"`
	RegistrarEmail  string                 `json:"registrar_email"`
	Address         AddressDto             `json:"address"`
	Settings        InstitutionSettingsDto `json:"settings"`
}

type UpdateInstitutionProfileRequest struct {
	Name            string                 `json:"name" validate:"required,max=255"`
	Type            string                 `json:"type" validate:"max=100"`
	EstablishedYear int                    `json:"established_year" validate:"omitempty,min=1000,max=2100"`
	Accreditation   string                 `json:"accreditation" validate:"max=255"`
	Website         string                 `json:"website" validate:"omitempty,url"`
	Email           string                 `json:"email" validate:"omitempty,email"`
	Phone           string                 `json:"phone" validate:"max=30"`
	RegistrarEmail  string                 `json:"registrar_email" validate:"omitempty,email"`
	Address         AddressDto             `json:"address"`
	Settings        InstitutionSettingsDto `json:"settings"`
}

type LogListRequest struct {
	Level  string `query:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Module string `query:"module"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}
