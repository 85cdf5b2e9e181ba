package processing

import (
	"fmt"
	"strings"
	"time"
)

// GraduationDateLayout is the layout of Extraction.GraduationDate.
const GraduationDateLayout = "2006-01-02"

// Extraction is the OCR result a user confirms before validation may start.
type Extraction struct {
	OriginalText   string            `json:"original_text" yaml:"original_text"`
	EditedText     string            `json:"edited_text" yaml:"edited_text"`
	Institution    string            `json:"institution" yaml:"institution"`
	DocumentType   string            `json:"document_type" yaml:"document_type"`
	GraduationDate string            `json:"graduation_date" yaml:"graduation_date"`
	Degree         string            `json:"degree" yaml:"degree"`
	Confidence     int               `json:"confidence" yaml:"confidence"`
	Fields         map[string]string `json:"fields,omitempty" yaml:"fields"`
}

// Validate reports every missing or malformed classification field.
func (e Extraction) Validate() error {
	var problems []string
	if strings.TrimSpace(e.Institution) == "" {
		problems = append(problems, "institution is required")
	}
	if strings.TrimSpace(e.DocumentType) == "" {
		problems = append(problems, "document type is required")
	}
	if strings.TrimSpace(e.GraduationDate) == "" {
		problems = append(problems, "graduation date is required")
	} else if _, err := time.Parse(GraduationDateLayout, e.GraduationDate); err != nil {
		problems = append(problems, "graduation date must be YYYY-MM-DD")
	}
	if strings.TrimSpace(e.Degree) == "" {
		problems = append(problems, "degree is required")
	}
	if e.Confidence < 0 || e.Confidence > 100 {
		problems = append(problems, "confidence must be within 0..100")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompleteExtraction, strings.Join(problems, "; "))
	}
	return nil
}

// Text returns the edited text when present, otherwise the original.
func (e Extraction) Text() string {
	if e.EditedText != "" {
		return e.EditedText
	}
	return e.OriginalText
}

// QRPayload is a decoded academic credential QR code.
type QRPayload struct {
	Type            string `json:"type" yaml:"type"`
	Institution     string `json:"institution" yaml:"institution"`
	StudentID       string `json:"studentId" yaml:"student_id"`
	DocumentID      string `json:"documentId" yaml:"document_id"`
	IssueDate       string `json:"issueDate" yaml:"issue_date"`
	Degree          string `json:"degree" yaml:"degree"`
	VerificationURL string `json:"verificationUrl" yaml:"verification_url"`
}

// Extraction converts the payload into a confirmed extraction for the
// validation phase.
func (q QRPayload) Extraction() Extraction {
	return Extraction{
		Institution:    q.Institution,
		DocumentType:   q.Type,
		GraduationDate: q.IssueDate,
		Degree:         q.Degree,
		Confidence:     100,
		Fields: map[string]string{
			"studentId":       q.StudentID,
			"documentId":      q.DocumentID,
			"verificationUrl": q.VerificationURL,
		},
	}
}
