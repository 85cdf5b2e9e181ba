package specification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByCode struct {
	Code string
}

func (s ByCode) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("code = ?", strings.ToUpper(strings.TrimSpace(s.Code)))
}

type BySubmission struct {
	SubmissionID uuid.UUID
}

func (s BySubmission) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("submission_id = ?", s.SubmissionID)
}

type ByRun struct {
	RunID uuid.UUID
}

func (s ByRun) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("run_id = ?", s.RunID)
}

type ByVerification struct {
	VerificationID uuid.UUID
}

func (s ByVerification) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("verification_id = ?", s.VerificationID)
}

type ByVerifications struct {
	VerificationIDs []uuid.UUID
}

func (s ByVerifications) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("verification_id IN ?", s.VerificationIDs)
}

type ByInstitution struct {
	InstitutionID uuid.UUID
}

func (s ByInstitution) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("institution_id = ?", s.InstitutionID)
}

// ByStatus ignores the "all" filter value.
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	if s.Status == "" || s.Status == "all" {
		return db
	}
	return db.Where("status = ?", s.Status)
}

// ByDocumentType ignores the "all" filter value.
type ByDocumentType struct {
	Type string
}

func (s ByDocumentType) Apply(db *gorm.DB) *gorm.DB {
	if s.Type == "" || s.Type == "all" {
		return db
	}
	return db.Where("document_type = ?", s.Type)
}

type SubmittedSince struct {
	Since time.Time
}

func (s SubmittedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("submitted_at >= ?", s.Since)
}

// InstitutionLookup matches an institution by code or case-insensitive name.
type InstitutionLookup struct {
	Value string
}

func (s InstitutionLookup) Apply(db *gorm.DB) *gorm.DB {
	v := strings.TrimSpace(s.Value)
	return db.Where("code = ? OR LOWER(name) = ?", strings.ToLower(v), strings.ToLower(v))
}
