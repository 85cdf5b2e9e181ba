package dto

import (
	"time"

	"academic-auth-be/internal/entity"
	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"

	"github.com/google/uuid"
)

type CreateSubmissionResponse struct {
	Id uuid.UUID `json:"id"`
}

type SubmissionResponse struct {
	Id        uuid.UUID                     `json:"id"`
	Snapshot  processing.Snapshot           `json:"snapshot"`
	Draft     *processing.Extraction        `json:"draft,omitempty"`
	Outcome   *provider.VerificationOutcome `json:"outcome,omitempty"`
	CreatedAt time.Time                     `json:"created_at"`
}

type SubmitFilesResponse struct {
	Submission SubmissionResponse     `json:"submission"`
	Rejected   []processing.Rejection `json:"rejected,omitempty"`
}

type ConfirmExtractionRequest struct {
	Id             uuid.UUID
	EditedText     string            `json:"edited_text"`
	Institution    string            `json:"institution" validate:"required"`
	DocumentType   string            `json:"document_type" validate:"required"`
	GraduationDate string            `json:"graduation_date" validate:"required,datetime=2006-01-02"`
	Degree         string            `json:"degree" validate:"required"`
	Fields         map[string]string `json:"fields"`
}

type DetectQRRequest struct {
	SubmissionId *uuid.UUID `json:"submission_id"`
	Payload      string     `json:"payload" validate:"required"`
}

type SubmissionOptionsResponse struct {
	Institutions  []provider.Option `json:"institutions"`
	DocumentTypes []provider.Option `json:"document_types"`
}

// SubmissionCompletedMessage is published on the in-process topic when a
// run reaches COMPLETE. It carries everything needed to persist the run,
// since the live submission may be evicted before it is consumed.
type SubmissionCompletedMessage struct {
	SubmissionId uuid.UUID                     `json:"submission_id"`
	RunId        uuid.UUID                     `json:"run_id"`
	UserId       uuid.UUID                     `json:"user_id"`
	Source       processing.Source             `json:"source"`
	Extraction   processing.Extraction         `json:"extraction"`
	QR           *processing.QRPayload         `json:"qr,omitempty"`
	Outcome      *provider.VerificationOutcome `json:"outcome,omitempty"`
	Files        []entity.StoredFile           `json:"files"`
	CompletedAt  time.Time                     `json:"completed_at"`
}
